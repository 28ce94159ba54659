// Package api exposes the row codec and the harness metrics over HTTP.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/ssargent/rowcheck/pkg/codec"
	"github.com/ssargent/rowcheck/pkg/logging"
	"go.uber.org/zap"
)

// Server holds the API server state
type Server struct {
	codec    *codec.RowCodec
	config   ServerConfig
	registry *prometheus.Registry
	metrics  *Metrics
	logger   *zap.Logger
}

// NewServer creates a new API server. Its metrics are registered on reg, which
// is also what /metrics exposes, so collectors registered on reg by other
// components (a harness runner) are served as well.
func NewServer(config ServerConfig, reg *prometheus.Registry, logger *zap.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Server{
		codec:    codec.NewRowCodec(),
		config:   config,
		registry: reg,
		metrics:  NewMetrics(reg),
		logger:   logger,
	}
}

// Router builds the HTTP routes
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)

	// Prometheus metrics endpoint
	r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{Registry: s.registry}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.metrics.InstrumentHandler("GET", "/api/v1/health", s.handleHealth))
		r.Post("/rows/encode", s.metrics.InstrumentHandler("POST", "/api/v1/rows/encode", s.handleEncode))
		r.Post("/rows/decode", s.metrics.InstrumentHandler("POST", "/api/v1/rows/decode", s.handleDecode))
	})

	return r
}

// Addr returns the listen address
func (s *Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.config.Bind, s.config.Port)
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.Addr(),
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return errors.Wrap(err, "api: listen")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "api: shutdown")
	}
	s.logger.Info("server stopped")
	return nil
}
