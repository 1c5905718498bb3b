package mocks

import (
	"context"
	"database/sql"

	"github.com/phrazzld/jobscout-api/internal/domain"
	"github.com/phrazzld/jobscout-api/internal/store"
	"github.com/stretchr/testify/mock"
)

// TestifyMockUserStore is a mock of store.UserStore interface for use with testify/mock
type TestifyMockUserStore struct {
	mock.Mock
}

var _ store.UserStore = (*TestifyMockUserStore)(nil)

// Upsert is a mock implementation of store.UserStore.Upsert
func (m *TestifyMockUserStore) Upsert(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

// GetByEmail is a mock implementation of store.UserStore.GetByEmail
func (m *TestifyMockUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if user, ok := args.Get(0).(*domain.User); ok {
		return user, args.Error(1)
	}
	return nil, args.Error(1)
}

// ListSubscribed is a mock implementation of store.UserStore.ListSubscribed
func (m *TestifyMockUserStore) ListSubscribed(ctx context.Context) ([]*domain.User, error) {
	args := m.Called(ctx)
	if users, ok := args.Get(0).([]*domain.User); ok {
		return users, args.Error(1)
	}
	return nil, args.Error(1)
}

// SetSubscribed is a mock implementation of store.UserStore.SetSubscribed
func (m *TestifyMockUserStore) SetSubscribed(ctx context.Context, email string, subscribed bool) error {
	args := m.Called(ctx, email, subscribed)
	return args.Error(0)
}

// WithTx is a mock implementation of store.UserStore.WithTx
func (m *TestifyMockUserStore) WithTx(tx *sql.Tx) store.UserStore {
	args := m.Called(tx)
	if s, ok := args.Get(0).(store.UserStore); ok {
		return s
	}
	return m
}
