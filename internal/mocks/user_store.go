package mocks

import (
	"context"
	"database/sql"
	"sort"
	"strings"
	"sync"

	"github.com/phrazzld/jobscout-api/internal/domain"
	"github.com/phrazzld/jobscout-api/internal/store"
)

// MockUserStore implements store.UserStore for testing. Without function
// fields it behaves as an in-memory store keyed by lowercase email.
type MockUserStore struct {
	UpsertFn         func(ctx context.Context, user *domain.User) error
	GetByEmailFn     func(ctx context.Context, email string) (*domain.User, error)
	ListSubscribedFn func(ctx context.Context) ([]*domain.User, error)
	SetSubscribedFn  func(ctx context.Context, email string, subscribed bool) error

	mu    sync.Mutex
	users map[string]*domain.User
}

var _ store.UserStore = (*MockUserStore)(nil)

// NewMockUserStore creates a new mock store holding users.
func NewMockUserStore(users ...*domain.User) *MockUserStore {
	m := &MockUserStore{users: make(map[string]*domain.User)}
	for _, u := range users {
		m.users[strings.ToLower(u.Email)] = u
	}
	return m
}

// Upsert implements the UserStore interface.
func (m *MockUserStore) Upsert(ctx context.Context, user *domain.User) error {
	if m.UpsertFn != nil {
		return m.UpsertFn(ctx, user)
	}
	if err := user.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	key := strings.ToLower(user.Email)
	if existing, ok := m.users[key]; ok {
		user.ID = existing.ID
		user.CreatedAt = existing.CreatedAt
	}
	user.Subscribed = true
	m.users[key] = user
	return nil
}

// GetByEmail implements the UserStore interface.
func (m *MockUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if m.GetByEmailFn != nil {
		return m.GetByEmailFn(ctx, email)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[strings.ToLower(email)]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	return user, nil
}

// ListSubscribed implements the UserStore interface.
func (m *MockUserStore) ListSubscribed(ctx context.Context) ([]*domain.User, error) {
	if m.ListSubscribedFn != nil {
		return m.ListSubscribedFn(ctx)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	var users []*domain.User
	for _, u := range m.users {
		if u.Subscribed {
			users = append(users, u)
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].CreatedAt.Before(users[j].CreatedAt) })
	return users, nil
}

// SetSubscribed implements the UserStore interface.
func (m *MockUserStore) SetSubscribed(ctx context.Context, email string, subscribed bool) error {
	if m.SetSubscribedFn != nil {
		return m.SetSubscribedFn(ctx, email, subscribed)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[strings.ToLower(email)]
	if !ok {
		return store.ErrUserNotFound
	}
	user.Subscribed = subscribed
	return nil
}

// WithTx implements the UserStore interface. The mock ignores transactions.
func (m *MockUserStore) WithTx(*sql.Tx) store.UserStore {
	return m
}
