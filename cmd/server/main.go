// Package main implements the entry point for the WordRill API server,
// which schedules vocabulary reviews and gates new-word introduction on
// per-user daily quotas.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"

	"github.com/wordrill/wordrill-api/internal/config"
	"github.com/wordrill/wordrill-api/internal/platform/logger"
)

// main is the entry point for the wordrill-api server.
// It initializes configuration, sets up logging, establishes the database
// connection, runs pending migrations, wires the application dependencies,
// and starts the HTTP server.
func main() {
	if err := run(); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}
}

// run performs the full startup sequence. Splitting it out of main keeps
// all failure paths on the error return instead of log.Fatalf scattered
// through initialization.
func run() error {
	ctx := context.Background()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Set up structured logging using the configured log level
	appLogger, err := logger.Setup(cfg.Server)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}

	slog.Info("Server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel)

	// Establish the database connection
	db, err := setupAppDatabase(cfg, appLogger)
	if err != nil {
		return fmt.Errorf("failed to set up database: %w", err)
	}

	// Apply pending schema migrations before serving traffic
	if err := runMigrations(db, appLogger); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	// Wire application dependencies
	app, err := newApplication(cfg, appLogger, db)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	return app.Run(ctx)
}
