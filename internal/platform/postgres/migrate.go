package postgres

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const migrationsDir = "migrations"

// Migration commands accepted by Migrate.
const (
	MigrateUp      = "up"
	MigrateDown    = "down"
	MigrateStatus  = "status"
	MigrateVersion = "version"
)

// ErrUnknownMigrateCommand is returned for commands Migrate does not support.
var ErrUnknownMigrateCommand = errors.New("unknown migration command")

// Migrate runs a goose command against db using the embedded migrations.
// gooseLogger may be nil to keep goose's default logger.
func Migrate(ctx context.Context, db *sql.DB, command string, gooseLogger goose.Logger, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "migrations", "command", command)

	goose.SetBaseFS(migrationsFS)
	if gooseLogger != nil {
		goose.SetLogger(gooseLogger)
	}
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	var err error
	switch command {
	case MigrateUp:
		err = goose.UpContext(ctx, db, migrationsDir)
	case MigrateDown:
		err = goose.DownContext(ctx, db, migrationsDir)
	case MigrateStatus:
		err = goose.StatusContext(ctx, db, migrationsDir)
	case MigrateVersion:
		var version int64
		version, err = goose.GetDBVersionContext(ctx, db)
		if err == nil {
			logger.Info("current database version", "version", version)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownMigrateCommand, command)
	}
	if err != nil {
		logger.Error("migration failed", "error", err)
		return fmt.Errorf("goose %s: %w", command, err)
	}

	logger.Info("migration command finished")
	return nil
}
