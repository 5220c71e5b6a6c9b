package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/planforge/api/internal/config"
	"github.com/planforge/api/pkg/logger"
)

// Server wraps http.Server with lifecycle management.
type Server struct {
	server *http.Server
	logger *logger.Logger
}

// NewServer creates the HTTP server.
func NewServer(cfg config.ServerConfig, handler http.Handler, log *logger.Logger) *Server {
	return &Server{
		server: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
			Handler:      handler,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
		logger: log.With("component", "http_server"),
	}
}

// Start serves until the listener closes.
func (s *Server) Start() error {
	s.logger.Info("http server listening", "addr", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("http server shutting down")
	return s.server.Shutdown(ctx)
}
