// Package server provides the local HTTP facade over the interaction
// controller, so a browser UI or other local tools can drive the same flow as
// the CLI.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/inseek/inseek/internal/config"
	"github.com/inseek/inseek/internal/controller"
)

// Server is the HTTP facade for the INSEEK client.
type Server struct {
	controller *controller.Controller
	config     *config.ServerConfig
	logger     *zap.Logger
	server     *http.Server
}

// NewServer creates a server around ctl. The underlying http.Server is built
// here, not in Start, so Stop works even when a shutdown signal arrives
// before the listen goroutine has run.
func NewServer(ctl *controller.Controller, cfg *config.ServerConfig, logger *zap.Logger) *Server {
	s := &Server{
		controller: ctl,
		config:     cfg,
		logger:     logger,
	}
	s.server = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler: s.routes(),
	}
	return s
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	s.logger.Info("Starting server", zap.String("addr", s.server.Addr))
	return s.server.ListenAndServe()
}

func (s *Server) routes() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))

	r.Post("/api/v1/ask", s.handleAsk)
	r.Get("/api/v1/state", s.handleState)
	r.Get("/api/v1/history", s.handleHistoryList)
	r.Post("/api/v1/history/{index}/select", s.handleHistorySelect)
	r.Delete("/api/v1/history/{index}", s.handleHistoryDelete)
	r.Get("/api/v1/settings/streaming", s.handleStreamingGet)
	r.Put("/api/v1/settings/streaming", s.handleStreamingPut)
	r.Get("/health", s.handleHealth)
	return r
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
