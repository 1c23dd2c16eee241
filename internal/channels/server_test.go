package channels

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contactdesk/contactdesk/internal/agent"
	"github.com/contactdesk/contactdesk/internal/capability"
	"github.com/contactdesk/contactdesk/internal/schema"
	"github.com/contactdesk/contactdesk/pkg/logger"
)

// replayProvider answers each request with the next queued response.
type replayProvider struct {
	mu    sync.Mutex
	queue []schema.LLMResponse
}

func (p *replayProvider) Chat(ctx context.Context, _ schema.Messages, _ []schema.ToolDefinition, _ schema.ChatOptions) (schema.LLMResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.queue) == 0 {
		return schema.LLMResponse{}, errors.New("no response queued")
	}
	r := p.queue[0]
	p.queue = p.queue[1:]
	return r, ctx.Err()
}

func (p *replayProvider) DefaultModel() string { return "replay" }

func newTestOrchestrator(t *testing.T, provider schema.LLMProvider, opts ...agent.Option) *agent.Orchestrator {
	t.Helper()
	catalog, err := capability.NewRegistryBuilder(
		capability.NewStaticProvider("Billing", "Billing lookups",
			schema.Operation{
				Name:        "GetBalance",
				Description: "Current balance of an account",
				Params:      []schema.Param{{Name: "accountId", Description: "Account id", Type: schema.TypeString}},
				Invoke: func(_ context.Context, args schema.Args) (any, error) {
					return map[string]any{"accountId": args.String("accountId"), "balance": "42.50"}, nil
				},
			}),
	).Discover()
	require.NoError(t, err)

	return agent.NewOrchestrator(provider, catalog, schema.NewAgentSettings("", 256, 0.3), "You are a test assistant.",
		append([]agent.Option{agent.WithLogger(logger.Nop())}, opts...)...)
}

func newTestServer(t *testing.T, provider schema.LLMProvider, opts ...ServerOption) *httptest.Server {
	t.Helper()
	srv := NewServer(newTestOrchestrator(t, provider), append([]ServerOption{WithServerLogger(logger.Nop())}, opts...)...)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) Frame {
	t.Helper()
	var f Frame
	require.NoError(t, conn.ReadJSON(&f))
	return f
}

func TestServer_SessionRoundTrip(t *testing.T) {
	provider := &replayProvider{queue: []schema.LLMResponse{
		{ToolCalls: []schema.ToolCall{{ID: "call_1", Name: "Billing.GetBalance", Arguments: map[string]any{"accountId": "A-1"}}}},
		{Content: "Your balance is 42.50 EUR."},
	}}
	conn := dial(t, newTestServer(t, provider))

	assert.Equal(t, FrameReady, readFrame(t, conn).Type)

	require.NoError(t, conn.WriteJSON(Frame{Type: FrameMessage, Content: "what is my balance?"}))
	assert.Equal(t, FrameProcessing, readFrame(t, conn).Type)

	progress := readFrame(t, conn)
	assert.Equal(t, FrameProgress, progress.Type)
	assert.Equal(t, `Billing.GetBalance("A-1")`, progress.Content)

	reply := readFrame(t, conn)
	assert.Equal(t, FrameReply, reply.Type)
	assert.Equal(t, "Your balance is 42.50 EUR.", reply.Content)
	assert.Equal(t, []string{"Billing.GetBalance"}, reply.Tools)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("exit")))
	summary := readFrame(t, conn)
	require.Equal(t, FrameSummary, summary.Type)
	require.NotNil(t, summary.Summary)
	assert.Equal(t, agent.StatusCompleted, summary.Summary.Status)
	assert.Equal(t, 1, summary.Summary.UserTurns)
	assert.Equal(t, 1, summary.Summary.ToolInvocations)
	assert.NotEmpty(t, summary.Summary.SessionID)

	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)
}

func TestServer_CompletionErrorKeepsSessionOpen(t *testing.T) {
	provider := &replayProvider{} // first request fails
	conn := dial(t, newTestServer(t, provider))
	assert.Equal(t, FrameReady, readFrame(t, conn).Type)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("hi")))
	assert.Equal(t, FrameProcessing, readFrame(t, conn).Type)
	errFrame := readFrame(t, conn)
	assert.Equal(t, FrameError, errFrame.Type)
	assert.Contains(t, errFrame.Content, "no response queued")

	provider.mu.Lock()
	provider.queue = []schema.LLMResponse{{Content: "Hello again."}}
	provider.mu.Unlock()

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("hi")))
	assert.Equal(t, FrameProcessing, readFrame(t, conn).Type)
	reply := readFrame(t, conn)
	assert.Equal(t, FrameReply, reply.Type)
	assert.Equal(t, "Hello again.", reply.Content)
}

func TestServer_ClientCloseEndsSession(t *testing.T) {
	conn := dial(t, newTestServer(t, &replayProvider{}))
	assert.Equal(t, FrameReady, readFrame(t, conn).Type)

	require.NoError(t, conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye")))

	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)
}

// slowSink takes a while to persist, like a transcript store on a slow disk.
type slowSink struct {
	delay time.Duration
	saved atomic.Bool
}

func (s *slowSink) SaveTranscript(schema.Messages, agent.Summary) error {
	time.Sleep(s.delay)
	s.saved.Store(true)
	return nil
}

func TestServer_ShutdownWaitsForOpenSessions(t *testing.T) {
	sink := &slowSink{delay: 300 * time.Millisecond}
	srv := NewServer(newTestOrchestrator(t, &replayProvider{}, agent.WithTranscripts(sink)),
		WithServerLogger(logger.Nop()))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+ln.Addr().String()+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	assert.Equal(t, FrameReady, readFrame(t, conn).Type)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancellation")
	}
	assert.True(t, sink.saved.Load(), "transcript of the open session is saved before Serve returns")
}

func TestServer_RejectsDisallowedOrigin(t *testing.T) {
	ts := newTestServer(t, &replayProvider{}, WithAllowedOrigins([]string{"desk.example.com"}))
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"

	_, resp, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": {"https://evil.example.org"}})
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	conn, _, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": {"https://desk.example.com"}})
	require.NoError(t, err)
	conn.Close()
}

func TestServer_HealthAndMetrics(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "# metrics")
	})
	ts := newTestServer(t, &replayProvider{}, WithMetricsHandler("", metrics))

	for path, want := range map[string]string{"/healthz": "ok", "/metrics": "# metrics"} {
		resp, err := http.Get(ts.URL + path)
		require.NoError(t, err)
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
		assert.Equal(t, want, string(body), path)
	}
}

func TestDecodeTurn(t *testing.T) {
	for _, tc := range []struct {
		in   string
		turn string
		ok   bool
	}{
		{`{"type":"message","content":"hello"}`, "hello", true},
		{`{"content":"untyped"}`, "untyped", true},
		{"  plain text \n", "plain text", true},
		{"{not json", "{not json", true},
		{`{"type":"ping"}`, "", false},
		{`{"type":"typing","content":"exit"}`, "", false},
	} {
		turn, ok := decodeTurn([]byte(tc.in))
		assert.Equal(t, tc.turn, turn, tc.in)
		assert.Equal(t, tc.ok, ok, tc.in)
	}
}

func TestServer_IgnoresNonMessageFrames(t *testing.T) {
	provider := &replayProvider{queue: []schema.LLMResponse{{Content: "Still here."}}}
	conn := dial(t, newTestServer(t, provider))
	assert.Equal(t, FrameReady, readFrame(t, conn).Type)

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "ping"}))
	require.NoError(t, conn.WriteJSON(map[string]string{"type": "typing"}))
	require.NoError(t, conn.WriteJSON(Frame{Type: FrameMessage, Content: "are you there?"}))

	assert.Equal(t, FrameProcessing, readFrame(t, conn).Type, "control frames must not end the session")
	reply := readFrame(t, conn)
	assert.Equal(t, FrameReply, reply.Type)
	assert.Equal(t, "Still here.", reply.Content)
}

func TestAllowlist(t *testing.T) {
	open := NewAllowlist(nil)
	assert.True(t, open.Allows("https://anything.example"))

	a := NewAllowlist([]string{" Desk.Example.com ", "", "http://localhost:3000"})
	assert.True(t, a.Allows("https://desk.example.com"))
	assert.True(t, a.Allows("desk.example.com"))
	assert.True(t, a.Allows("http://localhost:3000"))
	assert.True(t, a.Allows(""), "non-browser clients send no origin")
	assert.False(t, a.Allows("https://other.example.com"))
	assert.False(t, a.Allows("http://localhost:4000"))
}
