package notify

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contactdesk/contactdesk/pkg/logger"
)

var activation = Message{
	Channel:  "email",
	To:       "anna@example.com",
	Template: "esim_activation",
	Subject:  "Your eSIM is ready for activation",
	Body:     "Use the activation code: ABC123XYZ789",
}

func TestMessage_Text(t *testing.T) {
	assert.Equal(t,
		"[email] to anna@example.com (esim_activation)\nYour eSIM is ready for activation\nUse the activation code: ABC123XYZ789",
		activation.Text())
	assert.Equal(t, "[sms] to +431234", Message{Channel: "sms", To: "+431234"}.Text())
}

func TestNew_SelectsSender(t *testing.T) {
	s, err := New(Config{}, logger.Nop())
	require.NoError(t, err)
	assert.Equal(t, "log", s.Name())

	s, err = New(Config{SlackToken: "xoxb-1", SlackChannel: "#ops", TelegramToken: "t"}, logger.Nop())
	require.NoError(t, err)
	assert.Equal(t, "slack", s.Name())

	_, err = New(Config{SlackToken: "xoxb-1"}, logger.Nop())
	assert.ErrorIs(t, err, ErrNotConfigured)

	s, err = New(Config{TelegramToken: "t", TelegramChatID: "42"}, logger.Nop())
	require.NoError(t, err)
	assert.Equal(t, "telegram", s.Name())

	_, err = New(Config{TelegramToken: "t", TelegramChatID: "ops"}, logger.Nop())
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestLogSender(t *testing.T) {
	receipt, err := NewLogSender(logger.Nop()).Send(context.Background(), activation)
	require.NoError(t, err)
	assert.Equal(t, "logged", receipt)
}

func TestSlackSender_PostsToChannel(t *testing.T) {
	var (
		mu      sync.Mutex
		path    string
		auth    string
		channel string
		text    string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		mu.Lock()
		path, auth = r.URL.Path, r.Header.Get("Authorization")
		channel, text = r.FormValue("channel"), r.FormValue("text")
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"ok":true,"channel":"C123","ts":"1718000000.000100"}`)
	}))
	defer srv.Close()

	s := NewSlackSender("xoxb-test", "C123", srv.URL+"/")
	receipt, err := s.Send(context.Background(), activation)
	require.NoError(t, err)
	assert.Equal(t, "1718000000.000100", receipt)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "/chat.postMessage", path)
	assert.Contains(t, auth, "xoxb-test")
	assert.Equal(t, "C123", channel)
	assert.Contains(t, text, "esim_activation")
}

func TestSlackSender_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"ok":false,"error":"channel_not_found"}`)
	}))
	defer srv.Close()

	_, err := NewSlackSender("xoxb-test", "C404", srv.URL+"/").Send(context.Background(), activation)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "channel_not_found")
}

func TestTelegramSender_ConnectsLazilyAndSends(t *testing.T) {
	var (
		mu    sync.Mutex
		calls []string
		texts []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		method := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]
		mu.Lock()
		calls = append(calls, method)
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		switch method {
		case "getMe":
			_, _ = io.WriteString(w, `{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"Desk","username":"deskbot"}}`)
		case "sendMessage":
			mu.Lock()
			texts = append(texts, r.FormValue("text"))
			mu.Unlock()
			assert.Equal(t, "42", r.FormValue("chat_id"))
			_, _ = io.WriteString(w, `{"ok":true,"result":{"message_id":7,"date":1718000000,"chat":{"id":42,"type":"private"}}}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	s, err := NewTelegramSender("123:abc", "42", srv.URL+"/bot%s/%s")
	require.NoError(t, err)

	mu.Lock()
	assert.Empty(t, calls, "no request before the first send")
	mu.Unlock()

	receipt, err := s.Send(context.Background(), activation)
	require.NoError(t, err)
	assert.Equal(t, "7", receipt)

	_, err = s.Send(context.Background(), Message{Channel: "sms", To: "+43"})
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"getMe", "sendMessage", "sendMessage"}, calls)
	assert.Equal(t, activation.Text(), texts[0])
}

func TestSplitMessage(t *testing.T) {
	assert.Equal(t, []string{"short"}, splitMessage("short", 10))
	assert.Equal(t, []string{"line one", "line two"}, splitMessage("line one\nline two", 12))
	assert.Equal(t, []string{"alpha beta", "gamma"}, splitMessage("alpha beta gamma", 12))
	assert.Equal(t, []string{"abcde", "fghij"}, splitMessage("abcdefghij", 5))
}
