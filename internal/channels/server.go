package channels

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/contactdesk/contactdesk/internal/agent"
	"github.com/contactdesk/contactdesk/pkg/logger"
)

const shutdownGrace = 5 * time.Second

// Server exposes the orchestrator over WebSocket. Every connection runs an
// independent session; only the immutable catalog is shared between them.
type Server struct {
	orch     *agent.Orchestrator
	origins  Allowlist
	metrics  http.Handler
	mpath    string
	log      *logger.Logger
	upgrader websocket.Upgrader

	// base is the parent context of every session, set by Serve.
	base context.Context
	// sessions counts hijacked connections, which http.Server.Shutdown
	// does not wait for.
	sessions sync.WaitGroup
}

type ServerOption func(*Server)

func WithAllowedOrigins(origins []string) ServerOption {
	return func(s *Server) { s.origins = NewAllowlist(origins) }
}

// WithMetricsHandler mounts h at path, /metrics when path is empty.
func WithMetricsHandler(path string, h http.Handler) ServerOption {
	return func(s *Server) { s.mpath, s.metrics = path, h }
}

func WithServerLogger(l *logger.Logger) ServerOption {
	return func(s *Server) { s.log = l }
}

func NewServer(orch *agent.Orchestrator, opts ...ServerOption) *Server {
	s := &Server{orch: orch, base: context.Background()}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logger.Get()
	}
	s.log = s.log.Named("ws")
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			return s.origins.Allows(r.Header.Get("Origin"))
		},
	}
	return s
}

// Handler returns the HTTP routes: /ws, /healthz and, when configured, the
// metrics endpoint.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.serveWS)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	if s.metrics != nil {
		path := s.mpath
		if path == "" {
			path = "/metrics"
		}
		mux.Handle(path, s.metrics)
	}
	return mux
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	// Registered before the upgrade so Shutdown, which waits for this
	// handler until the hijack, cannot miss the session.
	s.sessions.Add(1)
	defer s.sessions.Done()

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warnw("Upgrade rejected", "remote", r.RemoteAddr, "origin", r.Header.Get("Origin"), "err", err)
		return
	}
	s.log.Infow("Connection opened", "remote", r.RemoteAddr)

	summary, err := s.orch.Run(s.base, NewWebSocket(conn))
	if err != nil {
		s.log.Errorw("Session failed", "remote", r.RemoteAddr, "session", summary.SessionID, "err", err)
		return
	}
	s.log.Infow("Connection closed",
		"remote", r.RemoteAddr,
		"session", summary.SessionID,
		"status", summary.Status,
		"turns", summary.UserTurns,
	)
}

// ListenAndServe listens on addr and calls Serve.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled, then shuts down:
// open sessions are cancelled, and Serve returns once they have terminated
// and saved their transcripts, or after a grace period.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.base = ctx
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.log.Infow("Listening", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownGrace)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		s.waitSessions(shutdownGrace)
		return err
	})
	return g.Wait()
}

func (s *Server) waitSessions(grace time.Duration) {
	idle := make(chan struct{})
	go func() {
		s.sessions.Wait()
		close(idle)
	}()
	select {
	case <-idle:
	case <-time.After(grace):
		s.log.Warnw("Sessions still open after shutdown grace", "grace", grace)
	}
}
