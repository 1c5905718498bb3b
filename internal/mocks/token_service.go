package mocks

import (
	"context"

	"github.com/phrazzld/jobscout-api/internal/service/auth"
)

// MockTokenService implements auth.TokenService for testing
type MockTokenService struct {
	GenerateUnsubscribeTokenFn func(ctx context.Context, email string) (string, error)
	ValidateUnsubscribeTokenFn func(ctx context.Context, token string) (*auth.Claims, error)

	// Default values used when functions aren't explicitly defined
	Token       string
	Err         error
	Claims      *auth.Claims
	ValidateErr error
}

var _ auth.TokenService = (*MockTokenService)(nil)

// GenerateUnsubscribeToken implements the auth.TokenService interface
func (m *MockTokenService) GenerateUnsubscribeToken(ctx context.Context, email string) (string, error) {
	if m.GenerateUnsubscribeTokenFn != nil {
		return m.GenerateUnsubscribeTokenFn(ctx, email)
	}
	return m.Token, m.Err
}

// ValidateUnsubscribeToken implements the auth.TokenService interface
func (m *MockTokenService) ValidateUnsubscribeToken(ctx context.Context, token string) (*auth.Claims, error) {
	if m.ValidateUnsubscribeTokenFn != nil {
		return m.ValidateUnsubscribeTokenFn(ctx, token)
	}
	return m.Claims, m.ValidateErr
}
