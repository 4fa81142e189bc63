package httpserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ShutdownTimeout controls how long to wait for graceful shutdowns.
var ShutdownTimeout = 10 * time.Second

// Server wraps the http.Server with timeouts suited to the player API. The
// write timeout leaves room for provider lookups made while resolving.
type Server struct {
	inner *http.Server
}

// New constructs a server listening on the provided port.
func New(port int, handler http.Handler) *Server {
	return NewWithAddr(fmt.Sprintf(":%d", port), handler)
}

// NewWithAddr constructs a server listening on addr.
func NewWithAddr(addr string, handler http.Handler) *Server {
	return &Server{
		inner: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       2 * time.Minute,
		},
	}
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.inner.Addr
}

// ListenAndServe serves until ctx ends, then shuts down gracefully within
// ShutdownTimeout.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if s == nil || s.inner == nil {
		return errors.New("http server is nil")
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.inner.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		if err := s.inner.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	}
}
