package channels

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/contactdesk/contactdesk/internal/agent"
)

// Frame types exchanged over a WebSocket session.
const (
	FrameMessage    = "message"    // client → server: one user turn
	FrameReady      = "ready"      // server → client: session opened
	FrameProcessing = "processing" // server → client: turn accepted
	FrameProgress   = "progress"
	FrameReply      = "reply"
	FrameError      = "error"
	FrameSummary    = "summary" // last frame before the server closes
)

const writeWait = 10 * time.Second

// Frame is the JSON envelope of every WebSocket message.
type Frame struct {
	Type    string         `json:"type"`
	Content string         `json:"content,omitempty"`
	Tools   []string       `json:"tools,omitempty"`
	Summary *agent.Summary `json:"summary,omitempty"`
}

// WebSocket adapts one gorilla connection to agent.Transport.
// Text frames that are not JSON are taken verbatim as the user turn; JSON
// frames of any type other than "message" are ignored.
type WebSocket struct {
	conn *websocket.Conn

	writeMu sync.Mutex
	done    chan struct{}
	once    sync.Once
}

var (
	_ agent.Transport      = (*WebSocket)(nil)
	_ agent.ProgressWriter = (*WebSocket)(nil)
)

func NewWebSocket(conn *websocket.Conn) *WebSocket {
	return &WebSocket{conn: conn, done: make(chan struct{})}
}

// Open announces the session and starts a watcher that closes the
// connection when ctx ends, which unblocks a pending ReadTurn.
func (w *WebSocket) Open(ctx context.Context) error {
	go func() {
		select {
		case <-ctx.Done():
			_ = w.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
				time.Now().Add(time.Second))
			_ = w.conn.Close()
		case <-w.done:
		}
	}()
	return w.write(Frame{Type: FrameReady})
}

func (w *WebSocket) ReadTurn(ctx context.Context) (string, error) {
	for {
		kind, data, err := w.conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			var closeErr *websocket.CloseError
			if errors.As(err, &closeErr) || errors.Is(err, io.ErrUnexpectedEOF) {
				return "", io.EOF
			}
			return "", fmt.Errorf("websocket read: %w", err)
		}
		if kind != websocket.TextMessage {
			continue
		}
		if turn, ok := decodeTurn(data); ok {
			return turn, nil
		}
	}
}

// decodeTurn extracts the user turn from a text frame. ok is false for
// control frames such as keepalives, which must not reach the session.
func decodeTurn(data []byte) (turn string, ok bool) {
	trimmed := strings.TrimSpace(string(data))
	if !strings.HasPrefix(trimmed, "{") {
		return trimmed, true
	}
	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		return trimmed, true
	}
	if f.Type != "" && f.Type != FrameMessage {
		return "", false
	}
	return f.Content, true
}

func (w *WebSocket) BeginTurn(context.Context) error {
	return w.write(Frame{Type: FrameProcessing})
}

func (w *WebSocket) WriteProgress(_ context.Context, text string) error {
	return w.write(Frame{Type: FrameProgress, Content: text})
}

func (w *WebSocket) WriteReply(_ context.Context, reply agent.Reply) error {
	return w.write(Frame{Type: FrameReply, Content: reply.Content, Tools: reply.Tools})
}

func (w *WebSocket) WriteError(_ context.Context, err error) error {
	return w.write(Frame{Type: FrameError, Content: err.Error()})
}

// Close sends the summary frame and a normal close, then drops the
// connection. Safe to call more than once.
func (w *WebSocket) Close(_ context.Context, s agent.Summary) error {
	var err error
	w.once.Do(func() {
		close(w.done)
		err = w.write(Frame{Type: FrameSummary, Summary: &s})
		_ = w.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, string(s.Status)),
			time.Now().Add(time.Second))
		if cerr := w.conn.Close(); err == nil {
			err = cerr
		}
	})
	return err
}

func (w *WebSocket) write(f Frame) error {
	w.writeMu.Lock()
	defer w.writeMu.Unlock()
	_ = w.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return w.conn.WriteJSON(f)
}
