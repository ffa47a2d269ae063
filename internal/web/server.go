// Package web provides the HTTP server and JSON handlers for workout
// imports, nutrition plans and the calendar.
package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/JonMunkholm/trainfuel/internal/config"
	"github.com/JonMunkholm/trainfuel/internal/core"
	weblog "github.com/JonMunkholm/trainfuel/internal/web/middleware"
)

// multipartOverhead is allowed on top of the import size limit for form
// boundaries and other fields.
const multipartOverhead = 1 << 20

// Server is the HTTP server for the trainfuel API.
type Server struct {
	service  *core.Service
	cfg      *config.Config
	router   *chi.Mux
	server   *http.Server
	limiters []*rateLimiter
}

// NewServer creates a new Server instance.
func NewServer(service *core.Service, cfg *config.Config) *Server {
	s := &Server{
		service: service,
		cfg:     cfg,
		router:  chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(weblog.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(weblog.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(s.cfg.Server.RequestTimeout))

	// Security hardening
	s.router.Use(securityHeaders)

	if s.cfg.Rate.Enabled {
		s.router.Use(s.newRateLimiter(s.cfg.Rate.RequestsPerMinute, time.Minute).middleware)
	}
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)
	s.router.Handle("/metrics", promhttp.Handler())

	// Import endpoints get a tighter per-IP budget
	importLimit := func(next http.Handler) http.Handler { return next }
	if s.cfg.Rate.Enabled {
		importLimit = s.newRateLimiter(s.cfg.Rate.ImportLimit, time.Minute).middleware
	}

	s.router.Route("/api", func(r chi.Router) {
		// Stateless operations
		r.With(importLimit).Post("/imports/preview", s.handlePreviewImport)
		r.Post("/layout", s.handleLayout)
		r.Get("/imports/status", s.handleImportStatus)

		r.Route("/users/{userID}", func(r chi.Router) {
			r.Use(weblog.UserContext)

			// Workouts
			r.With(importLimit).Post("/imports", s.handleImport)
			r.Get("/workouts/summary", s.handleWorkoutSummary)

			// Nutrition plans
			r.Post("/nutrition/plans", s.handleCreatePlan)
			r.With(importLimit).Post("/nutrition/plans/upload", s.handleUploadPlan)
			r.Get("/nutrition/plans", s.handleListPlans)
			r.Get("/nutrition/plans/{planID}", s.handleGetPlan)

			// Calendar
			r.Post("/calendar/resolve", s.handleResolveSchedule)
			r.Get("/calendar/{date}/layout", s.handleDayLayout)
		})
	})
}

// Start begins listening for HTTP requests.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	slog.Info("starting server", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server and its background cleanup.
func (s *Server) Shutdown(ctx context.Context) error {
	for _, rl := range s.limiters {
		rl.stop()
	}
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

func (s *Server) newRateLimiter(rate int, window time.Duration) *rateLimiter {
	rl := newRateLimiter(rate, window)
	s.limiters = append(s.limiters, rl)
	return rl
}

// securityHeaders adds security headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Prevent MIME type sniffing
		w.Header().Set("X-Content-Type-Options", "nosniff")

		// Prevent clickjacking
		w.Header().Set("X-Frame-Options", "DENY")

		// JSON API: nothing may be loaded from responses
		w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")

		// Control referrer information
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		next.ServeHTTP(w, r)
	})
}

// writeJSON encodes v as JSON with the given status.
// Logs encoding errors since headers are already sent.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "path", r.URL.Path, "error", err)
	}
}
