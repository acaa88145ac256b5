// internal/api/server.go
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/newthinker/signalhub/internal/api/handler"
	"github.com/newthinker/signalhub/internal/api/middleware"
	"github.com/newthinker/signalhub/internal/auth"
	"github.com/newthinker/signalhub/internal/metrics"
	"github.com/newthinker/signalhub/internal/service"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Server represents the HTTP server for signalhub
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
	router     chi.Router
}

// Config holds server configuration
type Config struct {
	Host        string
	Port        int
	APIKey      string // guards admin routes
	MetricsPath string // empty disables the metrics endpoint
}

// Dependencies holds the components the routes are served from.
type Dependencies struct {
	Service  *service.Service
	Analyzer handler.ChartAnalyzer
	Tokens   *auth.TokenIssuer
	Metrics  *metrics.Registry
}

// NewServer creates a new HTTP server
func NewServer(cfg Config, deps Dependencies, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if deps.Service == nil {
		return nil, fmt.Errorf("service is required")
	}
	if deps.Tokens == nil {
		deps.Tokens = auth.NewTokenIssuer("", 0)
	}

	s := &Server{
		logger: logger,
		router: chi.NewRouter(),
	}
	s.setupRoutes(cfg, deps)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second, // chart analysis can be slow
		IdleTimeout:  60 * time.Second,
	}
	return s, nil
}

func (s *Server) setupRoutes(cfg Config, deps Dependencies) {
	r := s.router
	h := handler.New(deps.Service, deps.Analyzer, deps.Tokens, s.logger)

	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(metrics.LoggingMiddleware(s.logger))
	if deps.Metrics != nil {
		r.Use(metrics.HTTPMiddleware(deps.Metrics))
		if cfg.MetricsPath != "" {
			r.Handle(cfg.MetricsPath, promhttp.HandlerFor(deps.Metrics, promhttp.HandlerOpts{}))
		}
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.Health)

		r.Post("/auth/login", h.Login)
		r.Post("/auth/register", h.Register)
		r.Post("/auth/recover", h.Recover)

		r.Get("/signals", h.Signals)
		r.Get("/providers", h.Providers)
		r.Post("/backtest", h.Backtest)
		r.Post("/analysis", h.Analyze)

		r.Group(func(r chi.Router) {
			r.Use(middleware.BearerAuth(deps.Tokens))
			r.Post("/providers/{id}/follow", h.Follow)
			r.Post("/account/upgrade", h.Upgrade)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.APIKeyAuth(cfg.APIKey))
			r.Get("/users", h.Users)
			r.Patch("/users/{id}/status", h.UpdateStatus)
			r.Delete("/users/{id}", h.DeleteUser)
		})
	})
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}
