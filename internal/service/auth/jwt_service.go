package auth

import (
	"context"
	"time"
)

// TokenTypeUnsubscribe marks tokens embedded in unsubscribe links.
const TokenTypeUnsubscribe = "unsubscribe"

// TokenService issues and validates the signed tokens carried by email
// links.
type TokenService interface {
	// GenerateUnsubscribeToken creates a signed token identifying the
	// subscriber by email.
	GenerateUnsubscribeToken(ctx context.Context, email string) (string, error)

	// ValidateUnsubscribeToken verifies the signature, expiry and token type
	// and returns the claims.
	ValidateUnsubscribeToken(ctx context.Context, tokenString string) (*Claims, error)
}

// Claims represents the validated content of a token.
type Claims struct {
	// Email is the subscriber the token was issued for; it is also the
	// token subject.
	Email string `json:"sub,omitempty"`

	// TokenType indicates the purpose of the token.
	TokenType string `json:"type,omitempty"`

	IssuedAt  time.Time `json:"iat,omitempty"`
	ExpiresAt time.Time `json:"exp,omitempty"`
	ID        string    `json:"jti,omitempty"`
}
