package store

import (
	"context"
	"database/sql"

	"github.com/phrazzld/jobscout-api/internal/domain"
)

// UserStore defines the interface for subscriber persistence.
type UserStore interface {
	// Upsert inserts the user or, when the email is already registered,
	// replaces username and résumé and re-subscribes them.
	// Returns validation errors from the domain User if data is invalid.
	Upsert(ctx context.Context, user *domain.User) error

	// GetByEmail retrieves a user by their email address.
	// Returns ErrUserNotFound if the user does not exist.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// ListSubscribed returns every subscribed user ordered by creation time.
	ListSubscribed(ctx context.Context) ([]*domain.User, error)

	// SetSubscribed flips the subscription flag.
	// Returns ErrUserNotFound if the user does not exist.
	SetSubscribed(ctx context.Context, email string, subscribed bool) error

	// WithTx returns a UserStore bound to the transaction.
	WithTx(tx *sql.Tx) UserStore
}
