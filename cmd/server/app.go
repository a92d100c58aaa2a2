package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/wordrill/wordrill-api/internal/config"
	"github.com/wordrill/wordrill-api/internal/domain"
	"github.com/wordrill/wordrill-api/internal/domain/scheduler"
	"github.com/wordrill/wordrill-api/internal/platform/postgres"
	"github.com/wordrill/wordrill-api/internal/service/auth"
	"github.com/wordrill/wordrill-api/internal/service/quota"
	"github.com/wordrill/wordrill-api/internal/service/review"
	"github.com/wordrill/wordrill-api/internal/store"
)

// application holds all the shared application dependencies to simplify
// management and ensure proper cleanup on shutdown.
type application struct {
	// Configuration
	config *config.Config

	// Core services
	logger *slog.Logger
	db     *sql.DB

	// Stores (using interfaces for proper abstraction)
	cardStore  store.CardStateStore
	wordStore  store.WordStore
	quotaStore store.QuotaUsageStore

	// Service interfaces
	jwtService       auth.JWTService
	schedulerService scheduler.Service
	quotaService     *quota.Service
	reviewService    review.Service
}

// newApplication creates a new application instance with all dependencies
// initialized. It accepts core dependencies like configuration, logger, and
// database connection that must be established before application
// initialization.
func newApplication(cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	// Initialize JWT service
	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	logger.Info("JWT verification service initialized")

	// Initialize stores
	app.cardStore = postgres.NewPostgresCardStateStore(db, logger)
	app.wordStore = postgres.NewPostgresWordStore(db, logger)
	app.quotaStore = postgres.NewPostgresQuotaUsageStore(db, logger)

	// Initialize scheduler with configured overrides
	params := scheduler.NewParams(scheduler.ParamsConfig{
		MinEaseFactor:          cfg.Scheduler.MinEaseFactor,
		MaxEaseFactor:          cfg.Scheduler.MaxEaseFactor,
		RelearnStepMinutes:     cfg.Scheduler.RelearnStepMinutes,
		GraduationIntervalDays: cfg.Scheduler.GraduationIntervalDays,
		MaxIntervalDays:        cfg.Scheduler.MaxIntervalDays,
	})
	app.schedulerService = scheduler.NewServiceWithParams(params)

	// Initialize quota service
	zones, err := quota.NewFixedZoneSource(cfg.Quota.DefaultTimezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load default time zone: %w", err)
	}
	app.quotaService = quota.NewService(
		app.quotaStore,
		quota.NewStaticTierSource(domain.TierFree),
		zones,
		quota.LimitsFromConfig(cfg.Quota),
		logger,
	)

	// Initialize review session orchestrator
	app.reviewService = review.NewService(
		db,
		app.cardStore,
		app.wordStore,
		app.quotaService,
		app.schedulerService,
		logger,
	)

	logger.Info("Application initialized successfully")
	return app, nil
}

// Run starts the application server, handling lifecycle and cleanup.
// It returns an error if the server fails to start or encounters problems.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("Error closing database connection", "error", err)
		}
	}

	app.logger.Info("Application shutdown completed")
}
