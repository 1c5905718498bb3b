// Package main implements the entry point for the JobScout API server,
// which takes résumé signups, emails daily job matches and announces new
// scholarships to subscribers.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/phrazzld/jobscout-api/internal/config"
	"github.com/phrazzld/jobscout-api/internal/platform/logger"
	"github.com/phrazzld/jobscout-api/internal/platform/postgres"
)

func main() {
	migrate := flag.String("migrate", "", "run a migration command (up, down, status, version) and exit")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *migrate); err != nil {
		slog.Error("server exited with error", "error", err)
		stop()
		os.Exit(1)
	}
}

// run loads configuration, connects to the database and then either runs a
// migration command or serves until ctx is cancelled.
func run(ctx context.Context, migrateCmd string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.Setup(cfg.Server)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}
	log.Info("server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"public_url", cfg.Server.PublicURL)

	db, err := setupAppDatabase(ctx, cfg.Database, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("failed to close database", "error", err)
		}
	}()

	if migrateCmd != "" {
		return postgres.Migrate(ctx, db, migrateCmd, &slogGooseLogger{logger: log}, log)
	}

	app, err := newApplication(ctx, cfg, db, log)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	return app.Run(ctx)
}
