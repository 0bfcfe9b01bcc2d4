// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package api wires together the HTTP router, middleware chain, and all
domain handlers into a runnable [http.Server].

Architecture:

  - This package is the topmost Presentation layer boundary.
  - It acts as the central composition root for the HTTP transport framework (chi router).
  - Only this package and cmd/portal are allowed to import net/http server primitives.

Route Families:

  - Probes: /health, /ready, /metrics. Never guarded.
  - JSON API: /api/... with the session hydrated but not enforced; handlers
    and RequireRole decide what they need.
  - Pages: every other path runs through the access guard and answers with a
    page descriptor the client renders.
*/
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/taibuivan/talentgate/internal/assessment"
	"github.com/taibuivan/talentgate/internal/guard"
	"github.com/taibuivan/talentgate/internal/notice"
	"github.com/taibuivan/talentgate/internal/payment"
	"github.com/taibuivan/talentgate/internal/platform/config"
	"github.com/taibuivan/talentgate/internal/platform/constants"
	"github.com/taibuivan/talentgate/internal/platform/metrics"
	"github.com/taibuivan/talentgate/internal/platform/middleware"
	"github.com/taibuivan/talentgate/internal/session"
)

// # Server Definitions

// Server wraps the chi router and the [http.Server].
//
// It is constructed once in main.go with all dependencies injected.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	log        *slog.Logger
}

// # Handler Registry

// Handlers groups all domain-specific HTTP handler sets.
type Handlers struct {
	// Liveness is the /health handler.
	Liveness http.HandlerFunc

	// Readiness is the /ready handler; 503 while a dependency is down.
	Readiness http.HandlerFunc

	// Session handles role logins, logout and the session probe.
	Session *session.Handler

	// Guard answers client-side routing decisions and stores role preferences.
	Guard *guard.Handler

	// Notices drains the device's toast queue.
	Notices *notice.Handler

	// Assessment is the candidate assessment API.
	Assessment *assessment.Handler

	// AssessmentPages serves the guarded /candidate/assessment screens.
	AssessmentPages *assessment.PageHandler

	// Payments runs the checkout lifecycle.
	Payments *payment.Handler
}

// Dependencies are the cross-cutting collaborators of the router.
type Dependencies struct {
	// Hydrator rebuilds the session for API routes and the guard.
	Hydrator guard.Hydrator

	// Guard configures the page guard. Its Hydrator field is filled from Hydrator.
	Guard guard.Options

	Metrics *metrics.Registry
}

// # Server Initialization

// NewServer constructs the chi router with the full middleware chain and
// registers all route groups.
func NewServer(ctx context.Context, cfg *config.Config, log *slog.Logger, deps Dependencies, h Handlers) *Server {
	router := newRouter(ctx, cfg, log, deps, h)

	return &Server{
		router: router,
		log:    log,
		httpServer: &http.Server{
			Addr:              ":" + cfg.ServerPort,
			Handler:           router,
			ReadTimeout:       constants.DefaultReadTimeout,
			WriteTimeout:      constants.DefaultWriteTimeout,
			IdleTimeout:       constants.DefaultIdleTimeout,
			ReadHeaderTimeout: constants.DefaultReadHeaderTimeout,
		},
	}
}

func newRouter(ctx context.Context, cfg *config.Config, log *slog.Logger, deps Dependencies, h Handlers) *chi.Mux {
	r := chi.NewRouter()

	// # Middleware Chain
	// Global middleware applied in order of execution.
	r.Use(middleware.RequestID())
	r.Use(middleware.DeviceID(cfg.CookieSecure))
	r.Use(middleware.StructuredLogger(log))
	r.Use(middleware.Instrument(deps.Metrics))
	r.Use(chimw.Timeout(constants.GlobalRequestTimeout))
	r.Use(middleware.RateLimit(ctx))
	r.Use(middleware.PanicRecovery(log))
	r.Use(middleware.CORS(cfg))
	r.Use(chimw.CleanPath)

	// # Infrastructure Endpoints
	// Unauthenticated probes for container orchestration and scraping.
	r.Get("/health", h.Liveness)
	r.Get("/ready", h.Readiness)
	r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())

	// # Application API
	// The session is hydrated for every API call; enforcement is per route.
	r.Route("/api", func(api chi.Router) {
		api.Use(middleware.Authenticate(deps.Hydrator))

		api.Mount("/auth", h.Session.Routes())
		api.Mount("/notices", h.Notices.Routes())
		api.Mount("/assessment", h.Assessment.Routes())
		api.Mount("/payments", h.Payments.Routes())
		api.Mount("/", h.Guard.Routes())
	})

	// # Guarded Pages
	// Everything else is a page navigation and goes through the access guard.
	guardOptions := deps.Guard
	guardOptions.Hydrator = deps.Hydrator
	guardOptions.Metrics = deps.Metrics

	r.Group(func(pages chi.Router) {
		pages.Use(guard.Middleware(guardOptions))

		pages.Mount("/candidate/assessment", h.AssessmentPages.Routes())
		pages.Get("/*", servePage)
	})

	return r
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// # Server Lifecycle

// ListenAndServe starts the HTTP server.
//
// It blocks until the server is closed or an error occurs.
func (s *Server) ListenAndServe() error {
	s.log.Info("server_starting", slog.String("addr", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server, waiting for in-flight requests.
func (s *Server) Shutdown(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}
