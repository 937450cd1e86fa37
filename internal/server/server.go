// Package server provides the HTTP server for the signcoach practice engine.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ayusman/signcoach/internal/gesture"
	"github.com/ayusman/signcoach/internal/metrics"
	"github.com/ayusman/signcoach/internal/practice"
	"github.com/ayusman/signcoach/internal/server/api"
	"github.com/ayusman/signcoach/internal/store"
	"github.com/ayusman/signcoach/internal/templates"
)

// shutdownTimeout bounds the graceful shutdown in Run.
const shutdownTimeout = 10 * time.Second

// Config holds the server configuration. Endpoints whose dependencies are
// nil are not registered.
type Config struct {
	StaticDir string
	Templates *templates.Repository
	Practice  *practice.Coordinator
	Store     *store.Store
	Trainer   *gesture.Trainer
	Metrics   *metrics.Metrics
	Logger    *slog.Logger
}

// Server represents the HTTP server for the signcoach application.
type Server struct {
	config Config
	router chi.Router
	logger *slog.Logger
	start  time.Time
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		config: config,
		router: chi.NewRouter(),
		logger: logger,
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Recoverer)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		if s.config.Templates != nil {
			api.NewSymbolHandler(s.config.Templates).Register(r)
		}

		if s.config.Practice != nil {
			api.NewMatchHandler(s.config.Practice, s.logger).Register(r)
			r.Handle("/practice", NewPracticeHandler(s.config.Practice, s.logger))
		}

		if s.config.Store != nil && s.config.Templates != nil {
			trainer := s.config.Trainer
			if trainer == nil {
				trainer = gesture.NewTrainer(gesture.DefaultConfig())
			}
			api.NewSamplesHandler(s.config.Store, s.config.Templates, trainer, s.logger).Register(r)
		}
	})

	if s.config.Metrics != nil {
		s.router.Handle("/metrics", s.config.Metrics.Handler())
	}

	// Serve static files if StaticDir is configured
	if s.config.StaticDir != "" {
		s.router.Handle("/*", http.FileServer(http.Dir(s.config.StaticDir)))
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"status": "ok",
		"uptime": time.Since(s.start).String(),
	}
	if s.config.Templates != nil {
		response["symbols"] = len(s.config.Templates.Vocabulary())
		response["templates"] = s.config.Templates.Snapshot().Count()
	}
	if s.config.Practice != nil {
		response["sessions"] = s.config.Practice.Len()
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// ListenAndServe starts the HTTP server on the given address.
func (s *Server) ListenAndServe(addr string) error {
	return http.ListenAndServe(addr, s)
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
