package mocks

import (
	"context"
	"net/url"

	"github.com/phrazzld/jobscout-api/internal/service"
)

// MockSubscriptionService implements service.SubscriptionService for testing.
// By default UnsubscribeURL returns BaseURL with the email as the token and
// Unsubscribe echoes the token back as the email.
type MockSubscriptionService struct {
	UnsubscribeURLFn func(ctx context.Context, email string) (string, error)
	UnsubscribeFn    func(ctx context.Context, token string) (string, error)

	BaseURL string
}

var _ service.SubscriptionService = (*MockSubscriptionService)(nil)

// UnsubscribeURL implements the service.SubscriptionService interface
func (m *MockSubscriptionService) UnsubscribeURL(ctx context.Context, email string) (string, error) {
	if m.UnsubscribeURLFn != nil {
		return m.UnsubscribeURLFn(ctx, email)
	}
	base := m.BaseURL
	if base == "" {
		base = "https://jobscout.test"
	}
	return base + "/unsubscribe?token=" + url.QueryEscape(email), nil
}

// Unsubscribe implements the service.SubscriptionService interface
func (m *MockSubscriptionService) Unsubscribe(ctx context.Context, token string) (string, error) {
	if m.UnsubscribeFn != nil {
		return m.UnsubscribeFn(ctx, token)
	}
	return token, nil
}
