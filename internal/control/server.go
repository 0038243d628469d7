// SPDX-License-Identifier: MPL-2.0

package control

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/pmswitch/pmswitch/internal/core/taskbase"
	"github.com/pmswitch/pmswitch/internal/issue"
)

const shutdownTimeout = 5 * time.Second

// Server runs the control API. It is single-use: Start once, Stop once.
type Server struct {
	*taskbase.Base

	addr    string
	handler http.Handler
	logger  *log.Logger

	mu      sync.Mutex
	boundTo string
}

// NewServer creates a Server that will listen on addr. Port 0 picks a free
// port; Addr reports the bound address once running.
func NewServer(addr string, handler http.Handler, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Server{
		Base:    taskbase.NewBase(),
		addr:    addr,
		handler: handler,
		logger:  logger,
	}
}

// Start binds the listener and serves in the background. It returns once
// the server accepts connections.
func (s *Server) Start(ctx context.Context) error {
	if err := s.TransitionToStarting(ctx); err != nil {
		return err
	}

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		err = issue.NewErrorContext().
			WithOperation("start control API").
			WithResource(s.addr).
			WithIssue(issue.ControlServerFailedId).
			WithSuggestion("Pick another address with --listen, e.g. --listen 127.0.0.1:0").
			Wrap(err).
			BuildError()
		s.TransitionToFailed(err)
		return err
	}

	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
		// Request contexts end with the server, which closes event streams.
		BaseContext: func(net.Listener) context.Context { return s.Context() },
	}

	s.mu.Lock()
	s.boundTo = ln.Addr().String()
	s.mu.Unlock()

	s.Go(func(context.Context) {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("control API stopped", "error", err)
			s.SendError(err)
		}
	})
	s.Go(func(ctx context.Context) {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("control API shutdown", "error", err)
		}
	})

	s.TransitionToRunning()
	s.logger.Info("control API listening", "addr", s.Addr())
	return nil
}

// Stop shuts the server down and waits for in-flight requests.
func (s *Server) Stop() {
	s.Shutdown()
}

// Addr returns the bound address, or the configured one before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.boundTo != "" {
		return s.boundTo
	}
	return s.addr
}

// URL returns the base URL of the running server.
func (s *Server) URL() string {
	return "http://" + s.Addr()
}
