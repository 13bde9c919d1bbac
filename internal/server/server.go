// Package server exposes the send tool over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/shineum/email-sender-lite/internal/email"
	"github.com/shineum/email-sender-lite/internal/tool"
)

// shutdownTimeout is the maximum time to wait for in-flight requests
// during graceful shutdown.
const shutdownTimeout = 30 * time.Second

// maxBodySize caps request bodies; messages carry no attachments.
const maxBodySize = 1 << 20

// Invoker runs tool invocations.
type Invoker interface {
	Invoke(ctx context.Context, params map[string]any) tool.Output
	TestConnection(ctx context.Context, creds map[string]any) email.ConnectionResult
}

// Server serves tool invocations as JSON over HTTP.
type Server struct {
	listenAddr string
	invoker    Invoker
	logger     *slog.Logger
	auth       *Authenticator

	mu       sync.Mutex
	listener net.Listener
}

// Option configures a Server.
type Option func(*Server)

// WithAuth requires HTTP Basic credentials on the /v1 routes.
func WithAuth(username, password string) Option {
	return func(s *Server) {
		s.auth = NewAuthenticator(username, password)
	}
}

// New creates a Server listening on listenAddr once started.
func New(listenAddr string, invoker Invoker, logger *slog.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		listenAddr: listenAddr,
		invoker:    invoker,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/v1", func(r chi.Router) {
		r.Use(s.auth.Middleware)
		r.Post("/send", s.handleSend)
		r.Post("/test-connection", s.handleTestConnection)
	})

	return r
}

// ListenAndServe starts the HTTP server and blocks until the context is
// cancelled. On cancellation it stops accepting requests and waits up to
// 30 seconds for in-flight requests to complete.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.listenAddr)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info("HTTP server listening",
		"addr", ln.Addr().String(),
		"auth_enabled", s.auth.Enabled(),
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("shutdown timeout reached, forcing close", "error", err)
		return srv.Close()
	}
	s.logger.Info("all requests completed")
	return nil
}

// Addr returns the listener address, or empty string if not listening.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return ""
}

func (s *Server) handleSend(w http.ResponseWriter, r *http.Request) {
	params, ok := s.decodeParams(w, r)
	if !ok {
		return
	}

	out := s.invoker.Invoke(r.Context(), params)
	if out.IsText() {
		writeText(w, http.StatusUnprocessableEntity, out.Text)
		return
	}
	writeJSON(w, http.StatusOK, out.Result)
}

func (s *Server) handleTestConnection(w http.ResponseWriter, r *http.Request) {
	creds, ok := s.decodeParams(w, r)
	if !ok {
		return
	}

	res := s.invoker.TestConnection(r.Context(), creds)
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) decodeParams(w http.ResponseWriter, r *http.Request) (map[string]any, bool) {
	var params map[string]any
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err := dec.Decode(&params); err != nil {
		s.logger.Debug("rejecting malformed request body",
			"path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()),
			"error", err,
		)
		writeText(w, http.StatusBadRequest, "Error: request body must be a JSON object")
		return nil, false
	}
	if params == nil {
		params = map[string]any{}
	}
	return params, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeText(w http.ResponseWriter, status int, text string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(text))
}
