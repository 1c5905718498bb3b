package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/phrazzld/jobscout-api/internal/platform/logger"
	"github.com/phrazzld/jobscout-api/internal/service/auth"
	"github.com/phrazzld/jobscout-api/internal/store"
)

// SubscriptionService manages digest subscriptions.
type SubscriptionService interface {
	// UnsubscribeURL returns the signed link that unsubscribes email.
	UnsubscribeURL(ctx context.Context, email string) (string, error)

	// Unsubscribe validates token and marks its subscriber unsubscribed.
	// It returns the unsubscribed email.
	Unsubscribe(ctx context.Context, token string) (string, error)
}

type subscriptionService struct {
	users     store.UserStore
	tokens    auth.TokenService
	publicURL string
	logger    *slog.Logger
}

// NewSubscriptionService creates a SubscriptionService building links on
// publicURL.
func NewSubscriptionService(
	users store.UserStore,
	tokens auth.TokenService,
	publicURL string,
	log *slog.Logger,
) SubscriptionService {
	return &subscriptionService{
		users:     users,
		tokens:    tokens,
		publicURL: strings.TrimRight(publicURL, "/"),
		logger:    log.With("component", "subscription_service"),
	}
}

func (s *subscriptionService) UnsubscribeURL(ctx context.Context, email string) (string, error) {
	token, err := s.tokens.GenerateUnsubscribeToken(ctx, email)
	if err != nil {
		return "", fmt.Errorf("failed to create unsubscribe token: %w", err)
	}
	return s.publicURL + "/unsubscribe?token=" + url.QueryEscape(token), nil
}

func (s *subscriptionService) Unsubscribe(ctx context.Context, token string) (string, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	claims, err := s.tokens.ValidateUnsubscribeToken(ctx, token)
	if err != nil {
		log.Debug("rejected unsubscribe token", "error", err)
		return "", fmt.Errorf("%w: %w", ErrInvalidUnsubscribeLink, err)
	}

	if err := s.users.SetSubscribed(ctx, claims.Email, false); err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			// The account is gone; the link has done its job.
			log.Info("unsubscribe for unknown user", "token_id", claims.ID)
			return claims.Email, nil
		}
		log.Error("failed to unsubscribe user", "error", err)
		return "", fmt.Errorf("failed to unsubscribe: %w", err)
	}

	log.Info("user unsubscribed", "token_id", claims.ID)
	return claims.Email, nil
}
