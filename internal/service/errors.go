package service

import "errors"

// Common service errors. The API layer maps them to HTTP status codes.
var (
	// ErrInvalidUnsubscribeLink indicates a malformed, forged or expired
	// unsubscribe token. API layer should map this to HTTP 400 Bad Request.
	ErrInvalidUnsubscribeLink = errors.New("invalid or expired unsubscribe link")
)
