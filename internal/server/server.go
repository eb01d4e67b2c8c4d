// Package server provides the HTTP server and routing for Titanium.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/titaniumapp/titanium/internal/config"
	"github.com/titaniumapp/titanium/internal/database"
	accountshandlers "github.com/titaniumapp/titanium/internal/modules/accounts/handlers"
	alertshandlers "github.com/titaniumapp/titanium/internal/modules/alerts/handlers"
	chartshandlers "github.com/titaniumapp/titanium/internal/modules/charts/handlers"
	dividendshandlers "github.com/titaniumapp/titanium/internal/modules/dividends/handlers"
	impexphandlers "github.com/titaniumapp/titanium/internal/modules/impexp/handlers"
	ledgerhandlers "github.com/titaniumapp/titanium/internal/modules/ledger/handlers"
	portfoliohandlers "github.com/titaniumapp/titanium/internal/modules/portfolio/handlers"
	valuationhandlers "github.com/titaniumapp/titanium/internal/modules/valuation/handlers"
	"github.com/titaniumapp/titanium/internal/reliability"
)

// Handlers bundles the per-module handlers the server mounts.
type Handlers struct {
	Accounts  *accountshandlers.Handler
	Ledger    *ledgerhandlers.Handler
	Portfolio *portfoliohandlers.Handler
	Valuation *valuationhandlers.Handler
	Dividends *dividendshandlers.Handler
	Alerts    *alertshandlers.Handler
	ImpExp    *impexphandlers.Handler
	Charts    *chartshandlers.Handler
}

// Config holds server configuration
type Config struct {
	Log      zerolog.Logger
	Config   *config.Config
	LedgerDB *database.DB
	CacheDB  *database.DB
	Handlers Handlers
	Backups  *reliability.BackupService
}

// Server represents the HTTP server
type Server struct {
	router         *chi.Mux
	server         *http.Server
	log            zerolog.Logger
	cfg            *config.Config
	handlers       Handlers
	systemHandlers *SystemHandlers
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	s := &Server{
		router:   chi.NewRouter(),
		log:      cfg.Log.With().Str("component", "server").Logger(),
		cfg:      cfg.Config,
		handlers: cfg.Handlers,
		systemHandlers: NewSystemHandlers(
			cfg.Log,
			cfg.LedgerDB,
			cfg.CacheDB,
			cfg.Backups,
		),
	}

	s.setupMiddleware(cfg.Config.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware(devMode bool) {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Timeout(60 * time.Second))

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.systemHandlers.HandleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Route("/system", func(r chi.Router) {
			r.Get("/status", s.systemHandlers.HandleSystemStatus)
			r.Post("/backup", s.systemHandlers.HandleTriggerBackup)
		})

		r.Route("/clients", func(r chi.Router) {
			s.handlers.Accounts.RegisterRoutes(r)

			r.Route("/{clientID}", func(r chi.Router) {
				s.handlers.Ledger.RegisterRoutes(r)
				s.handlers.Portfolio.RegisterRoutes(r)
				s.handlers.Valuation.RegisterRoutes(r)
				s.handlers.Dividends.RegisterRoutes(r)
				s.handlers.Alerts.RegisterRoutes(r)
				s.handlers.ImpExp.RegisterRoutes(r)
				s.handlers.Charts.RegisterRoutes(r)
			})
		})
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Int("port", s.cfg.Port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
