// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command portal is the entry point for the Talentgate portal server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Connect to PostgreSQL (pgxpool).
//  4. Connect to Redis.
//  5. Run database migrations (idempotent).
//  6. Build the backend client and the session layer.
//  7. Wire domain services and HTTP handlers.
//  8. Start HTTP server with graceful shutdown.
//
// No business logic lives here. All wiring is explicit constructor injection.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/taibuivan/talentgate/internal/api"
	"github.com/taibuivan/talentgate/internal/assessment"
	"github.com/taibuivan/talentgate/internal/guard"
	"github.com/taibuivan/talentgate/internal/notice"
	"github.com/taibuivan/talentgate/internal/payment"
	"github.com/taibuivan/talentgate/internal/platform/backend"
	"github.com/taibuivan/talentgate/internal/platform/clock"
	"github.com/taibuivan/talentgate/internal/platform/config"
	"github.com/taibuivan/talentgate/internal/platform/constants"
	"github.com/taibuivan/talentgate/internal/platform/metrics"
	"github.com/taibuivan/talentgate/internal/platform/migration"
	pgstore "github.com/taibuivan/talentgate/internal/platform/postgres"
	redisstore "github.com/taibuivan/talentgate/internal/platform/redis"
	"github.com/taibuivan/talentgate/internal/platform/sec"
	"github.com/taibuivan/talentgate/internal/session"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// Initialize first so that subsequent startup errors are structured JSON.
	log := newLogger(slog.LevelInfo)
	slog.SetDefault(log)

	log.Info("service_initializing", slog.String("version", constants.AppVersion))

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		log = newLogger(slog.LevelDebug)
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
		slog.String("backend", cfg.BackendBaseURL),
	)

	// Root context for startup. Use a 30s deadline so misconfiguration is
	// caught quickly rather than hanging indefinitely.
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	// ── 3. PostgreSQL ─────────────────────────────────────────────────────
	pool, err := pgstore.NewPool(startupCtx, cfg.DatabaseURL, log)
	must(log, err, "connect to postgres")
	defer func() {
		log.Info("closing_postgres_pool")
		pool.Close()
	}()

	// ── 4. Redis ──────────────────────────────────────────────────────────
	rdb, err := redisstore.NewClient(startupCtx, cfg.RedisURL, log)
	must(log, err, "connect to redis")
	defer func() {
		log.Info("closing_redis_client")
		if cerr := rdb.Close(); cerr != nil {
			log.Error("redis_close_failed", slog.Any("error", cerr))
		}
	}()

	// ── 5. Migrations ─────────────────────────────────────────────────────
	must(log, migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log), "run migrations")

	// ── 6. Backend & Session ──────────────────────────────────────────────
	registry := metrics.New()
	verifier := sec.NewTokenVerifier(cfg.BackendJWTSecret, cfg.BackendJWTIssuer)
	sessionStore := session.NewRedisStore(rdb)

	// The 401 hook needs the session service, which itself calls the backend.
	var sessionService *session.Service
	backendClient, err := backend.New(backend.Options{
		BaseURL: cfg.BackendBaseURL,
		Timeout: cfg.BackendTimeout,
		Tokens:  session.Tokens{},
		OnUnauthorized: func(ctx context.Context, token string) {
			sessionService.Invalidate(ctx, token)
		},
	})
	must(log, err, "initialize backend client")

	sessionService = session.NewService(backendClient, sessionStore, verifier, cfg.SessionTTL)
	provider := session.NewProvider(verifier, sessionStore)

	// ── 7. Domain Wiring ──────────────────────────────────────────────────
	policy := guard.DefaultPolicy(cfg.DenialRedirectDelay)
	must(log, policy.Validate(), "validate route policy")

	preferences := guard.NewRedisPreferenceStore(rdb)
	notices := notice.NewRedisStore(rdb)

	submissions := assessment.NewBackendSource(backendClient)
	assessmentService := assessment.NewService(assessment.Options{
		Submissions:             submissions,
		Resumes:                 submissions,
		Journal:                 assessment.NewPostgresJournal(pool),
		Clock:                   clock.Real{},
		Metrics:                 registry,
		Logger:                  log,
		MCQMinutes:              cfg.MCQMinutes,
		CodingMinutes:           cfg.CodingMinutes,
		WarningThresholdSeconds: cfg.WarningThresholdSeconds,
	})
	defer assessmentService.Close()

	paymentService := payment.NewService(backendClient, payment.NewRedisCache(rdb), registry)

	liveness, readiness := api.NewHealthHandlers([]api.Check{
		{Name: "postgres", Run: pgstore.Checker(pool)},
		{Name: "redis", Run: redisstore.Checker(rdb)},
	}, log)

	handlers := api.Handlers{
		Liveness:        liveness,
		Readiness:       readiness,
		Session:         session.NewHandler(sessionService, cfg.CookieSecure, policy.DashboardPath),
		Guard:           guard.NewHandler(policy, preferences),
		Notices:         notice.NewHandler(notices),
		Assessment:      assessment.NewHandler(assessmentService),
		AssessmentPages: assessment.NewPageHandler(assessmentService),
		Payments:        payment.NewHandler(paymentService),
	}

	// ── 8. HTTP Server ────────────────────────────────────────────────────
	serverCtx, serverCancel := context.WithCancel(context.Background())
	defer serverCancel()

	server := api.NewServer(serverCtx, cfg, log, api.Dependencies{
		Hydrator: provider,
		Guard: guard.Options{
			Policy:      policy,
			Preferences: preferences,
			Notices:     notices,
			Grace:       cfg.HydrationGrace,
		},
		Metrics: registry,
	}, handlers)

	// ── 9. Graceful Shutdown ──────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Block until OS signal or server error.
	select {
	case sig := <-quit:
		log.Info("shutdown_signal_received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server_startup_failed", slog.Any("error", err))
	}

	// Give in-flight requests enough time to complete.
	shutdownTimeout := constants.ShutdownTimeout
	log.Info("shutting_down_server", slog.Duration("timeout", shutdownTimeout))

	if err := server.Shutdown(shutdownTimeout); err != nil {
		log.Error("shutdown_failed", slog.Any("error", err))
		os.Exit(1)
	}

	log.Info("server_stopped_cleanly")
}

func newLogger(level slog.Level) *slog.Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return slog.New(handler).With(slog.String("app", "talentgate"))
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is limited to startup wiring. After startup, all errors are returned and
// handled explicitly.
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup_failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
