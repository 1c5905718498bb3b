package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/jobscout-api/internal/domain"
	"github.com/phrazzld/jobscout-api/internal/platform/logger"
	"github.com/phrazzld/jobscout-api/internal/store"
)

// PostgresUserStore implements the store.UserStore interface
// using a PostgreSQL database as the storage backend.
type PostgresUserStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresUserStore creates a new PostgreSQL implementation of the UserStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresUserStore(db store.DBTX, logger *slog.Logger) *PostgresUserStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresUserStore{
		db:     db,
		logger: logger.With(slog.String("component", "user_store")),
	}
}

var _ store.UserStore = (*PostgresUserStore)(nil)

// Upsert implements store.UserStore.Upsert.
// On an email conflict the stored ID and creation time are kept and written
// back into user.
func (s *PostgresUserStore) Upsert(ctx context.Context, user *domain.User) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := user.Validate(); err != nil {
		log.Warn("user validation failed during upsert", slog.String("error", err.Error()))
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO users (id, email, username, resume_text, subscribed, created_at, updated_at)
		VALUES ($1, $2, $3, $4, TRUE, $5, $6)
		ON CONFLICT (email) DO UPDATE SET
			username = EXCLUDED.username,
			resume_text = EXCLUDED.resume_text,
			subscribed = TRUE,
			updated_at = EXCLUDED.updated_at
		RETURNING id, created_at
	`
	err := s.db.QueryRowContext(ctx, query,
		user.ID,
		user.Email,
		user.Username,
		user.ResumeText,
		user.CreatedAt,
		user.UpdatedAt,
	).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		log.Error("failed to upsert user", slog.String("error", err.Error()))
		return MapError(err)
	}

	user.Subscribed = true
	log.Debug("user upserted", slog.String("user_id", user.ID.String()))
	return nil
}

const userColumns = `id, email, username, resume_text, subscribed, created_at, updated_at`

func scanUser(row interface{ Scan(dest ...any) error }) (*domain.User, error) {
	var u domain.User
	if err := row.Scan(
		&u.ID,
		&u.Email,
		&u.Username,
		&u.ResumeText,
		&u.Subscribed,
		&u.CreatedAt,
		&u.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByEmail implements store.UserStore.GetByEmail.
func (s *PostgresUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrUserNotFound
		}
		log.Error("failed to get user by email", slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	return user, nil
}

// ListSubscribed implements store.UserStore.ListSubscribed.
func (s *PostgresUserStore) ListSubscribed(ctx context.Context) ([]*domain.User, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE subscribed ORDER BY created_at`)
	if err != nil {
		log.Error("failed to list subscribed users", slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var users []*domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, MapError(err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	log.Debug("listed subscribed users", slog.Int("count", len(users)))
	return users, nil
}

// SetSubscribed implements store.UserStore.SetSubscribed.
func (s *PostgresUserStore) SetSubscribed(ctx context.Context, email string, subscribed bool) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx,
		`UPDATE users SET subscribed = $2, updated_at = $3 WHERE email = $1`,
		email, subscribed, time.Now().UTC())
	if err != nil {
		log.Error("failed to update subscription", slog.String("error", err.Error()))
		return MapError(err)
	}
	if err := CheckRowsAffected(result, store.ErrUserNotFound); err != nil {
		return err
	}

	log.Info("subscription updated", slog.Bool("subscribed", subscribed))
	return nil
}

// WithTx implements store.UserStore.WithTx.
func (s *PostgresUserStore) WithTx(tx *sql.Tx) store.UserStore {
	return &PostgresUserStore{db: tx, logger: s.logger}
}
