package metrics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"drone-follow/internal/config/components"
)

type Server struct {
	server   *http.Server
	listener net.Listener
	logger   zerolog.Logger
}

func NewServer(cfg components.MetricsConfigImpl, collector *Collector, logger zerolog.Logger) *Server {
	mux := http.NewServeMux()
	mux.Handle(cfg.Path, collector.Handler())

	return &Server{
		server: &http.Server{
			Addr:              cfg.Address,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: logger,
	}
}

// Start binds the listener and serves in the background.
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("failed to bind metrics server on %s: %w", s.server.Addr, err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error().Err(err).Msg("Metrics server stopped")
		}
	}()

	s.logger.Info().Str("address", listener.Addr().String()).Msg("Metrics server listening")
	return nil
}

func (s *Server) Addr() string {
	if s.listener == nil {
		return s.server.Addr
	}
	return s.listener.Addr().String()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
