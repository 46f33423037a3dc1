package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"noodle_backend/core"
	"noodle_backend/logging"
	"noodle_backend/metrics"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Server is the HTTP front of the service.
type Server struct {
	httpServer *http.Server
	logger     *logging.Logger
}

// NewServer builds the router and the underlying http.Server.
//
// artifactsDir is served read-only under /images/ so the references the
// pipeline hands out resolve against this same process.
func NewServer(cfg *core.Config, logger *logging.Logger, handlers *Handlers, artifactsDir string) *Server {
	r := chi.NewRouter()

	r.Use(metrics.Middleware)
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(RequestLogger(logger))
	r.Use(Recoverer(logger))
	r.Use(MaxBodySize(cfg.MaxBodyBytes))

	r.Post("/generate_image/", handlers.GenerateImage)
	r.Get("/health", handlers.Health)
	r.Handle("/metrics", metrics.Handler())

	fileServer := http.FileServer(http.Dir(artifactsDir))
	r.Handle("/images/*", http.StripPrefix("/images/", fileServer))

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	return &Server{
		httpServer: &http.Server{
			Addr:    addr,
			Handler: r,
			// Generation can legitimately take tens of seconds, so the write
			// timeout stays above the provider timeout plus the retry budget.
			ReadHeaderTimeout: 10 * time.Second,
			WriteTimeout:      cfg.AITimeout*3 + 30*time.Second,
			IdleTimeout:       120 * time.Second,
		},
		logger: logger.Named("server"),
	}
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Handler returns the root handler, exposed for httptest.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start listens and serves until Shutdown is called. Blocks; returns nil
// after a clean shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server listening", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("api: server failed: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("http server shutting down")
	return s.httpServer.Shutdown(ctx)
}
