// Package server provides the HTTP server initialization and route
// registration.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"tuition-credits/internal/config"
	"tuition-credits/internal/handler"
)

// Server wraps the HTTP server with application dependencies.
type Server struct {
	cfg     *config.Config
	router  chi.Router
	httpSrv *http.Server
	handler *handler.Handler
	health  func(ctx context.Context) error
}

// Dependencies holds all the dependencies needed by the server.
type Dependencies struct {
	Config  *config.Config
	Handler *handler.Handler
	// HealthCheck probes storage for /health. Optional.
	HealthCheck func(ctx context.Context) error
}

// New creates a new Server instance with the given dependencies.
func New(deps *Dependencies) (*Server, error) {
	if deps.Config == nil || deps.Handler == nil {
		return nil, fmt.Errorf("server config and handler are required")
	}

	s := &Server{
		cfg:     deps.Config,
		router:  chi.NewRouter(),
		handler: deps.Handler,
		health:  deps.HealthCheck,
	}

	s.registerMiddleware()
	s.registerHandlers()

	s.httpSrv = &http.Server{
		Addr:         deps.Config.Server.Addr,
		Handler:      s.router,
		ReadTimeout:  deps.Config.Server.ReadTimeout,
		WriteTimeout: deps.Config.Server.WriteTimeout,
	}
	return s, nil
}

// registerMiddleware registers all middleware.
func (s *Server) registerMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(LoggingMiddleware())
	s.router.Use(RecoveryMiddleware())
}

// registerHandlers registers all routes.
func (s *Server) registerHandlers() {
	s.router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if s.health != nil {
			if err := s.health(r.Context()); err != nil {
				log.Error().Err(err).Msg("Health check failed")
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte(`{"status":"unavailable"}`))
				return
			}
		}
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if s.cfg.Server.MetricsEnabled {
		s.router.Handle("/metrics", promhttp.Handler())
	}

	s.router.Route("/v1", func(r chi.Router) {
		s.handler.Routes(r)

		// Admin routes (with admin middleware)
		r.Route("/admin", func(r chi.Router) {
			r.Use(AdminMiddleware(s.cfg))
			s.handler.AdminRoutes(r)
		})
	})
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves HTTP until Stop is called. It returns nil after a clean
// shutdown.
func (s *Server) Start() error {
	log.Info().Str("addr", s.httpSrv.Addr).Msg("Starting HTTP server...")
	if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to serve: %w", err)
	}
	return nil
}

// Stop shuts the server down gracefully, waiting at most the configured
// shutdown timeout for in-flight requests.
func (s *Server) Stop(ctx context.Context) error {
	log.Info().Msg("Stopping HTTP server...")
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Server.ShutdownTimeout)
	defer cancel()
	return s.httpSrv.Shutdown(ctx)
}
