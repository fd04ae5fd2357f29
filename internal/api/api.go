// Package api provides HTTP handlers and the main API server logic for
// TripFlow.
//
// It exposes RESTful endpoints for chatting with the trip-planning
// assistant and for inspecting and clearing persisted sessions.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/atlasai/tripflow/internal/flow"
	"github.com/atlasai/tripflow/internal/notify"
	"github.com/atlasai/tripflow/internal/session"
)

// DefaultAddr is the listen address used when none is configured.
const DefaultAddr = ":8080"

// DefaultReadTimeout bounds how long a request may take to arrive.
const DefaultReadTimeout = 30 * time.Second

// DefaultWriteTimeout bounds the full handler duration. Chat turns can
// cascade through several provider and LLM calls, so this is generous.
const DefaultWriteTimeout = 3 * time.Minute

// Opts holds configuration options for the API server.
type Opts struct {
	Addr string
}

// Option defines a configuration option for the API server.
type Option func(*Opts)

// WithAddr sets the listen address.
func WithAddr(addr string) Option {
	return func(o *Opts) { o.Addr = addr }
}

// Server wires the conversation engine, session service and notifier
// behind HTTP endpoints.
type Server struct {
	engine   *flow.Engine
	sessions *session.Service
	notifier notify.Notifier
	addr     string
}

// NewServer creates an API server. The notifier may be nil, in which
// case itinerary SMS delivery is disabled.
func NewServer(engine *flow.Engine, sessions *session.Service, notifier notify.Notifier, opts ...Option) *Server {
	cfg := Opts{Addr: DefaultAddr}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Server{engine: engine, sessions: sessions, notifier: notifier, addr: cfg.Addr}
}

// Handler returns the routed HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/chat", s.chatHandler)
	mux.HandleFunc("/health", s.healthHandler)
	mux.HandleFunc("/sessions", s.sessionsHandler)
	mux.HandleFunc("/sessions/", s.sessionDetailHandler)
	mux.HandleFunc("/conversation-history/", s.conversationHistoryHandler)
	mux.HandleFunc("/clear-sessions", s.clearSessionsHandler)
	return mux
}

// Run starts the HTTP server and blocks until the context is canceled
// or the listener fails.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.addr,
		Handler:      s.Handler(),
		ReadTimeout:  DefaultReadTimeout,
		WriteTimeout: DefaultWriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server.Run: TripFlow API listening", "addr", s.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return nil
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	}
}
