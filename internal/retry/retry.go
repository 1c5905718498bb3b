// Package retry runs calls to external providers with bounded retries.
//
// Failures back off exponentially from Policy.BaseDelay. A rate-limit
// response (HTTP 429, or an error marked with RateLimited) instead pauses for
// the fixed Policy.RateLimitPause before the next attempt.
package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	goretry "github.com/sethvargo/go-retry"
)

// ErrRateLimited marks a provider rejection caused by rate limiting.
var ErrRateLimited = errors.New("rate limited")

// Policy bounds the attempts made by Do.
type Policy struct {
	// MaxRetries is the number of attempts after the first one.
	MaxRetries uint64
	// BaseDelay is the first backoff delay; it doubles on each retry.
	BaseDelay time.Duration
	// RateLimitPause replaces the backoff after a rate-limit response.
	RateLimitPause time.Duration
}

// DefaultPolicy is used by providers that are not configured explicitly.
var DefaultPolicy = Policy{
	MaxRetries:     3,
	BaseDelay:      2 * time.Second,
	RateLimitPause: time.Minute,
}

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// RateLimited marks err as a rate-limit rejection.
func RateLimited(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrRateLimited, err)
}

// statusCoder is implemented by provider errors carrying an HTTP status.
type statusCoder interface {
	StatusCode() int
}

// HTTPStatusError reports a non-success HTTP response.
type HTTPStatusError struct {
	URL    string
	Status int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("%s returned HTTP %d", e.URL, e.Status)
}

// StatusCode returns the HTTP status.
func (e *HTTPStatusError) StatusCode() int { return e.Status }

// IsRateLimited reports whether err is a rate-limit rejection.
func IsRateLimited(err error) bool {
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	var sc statusCoder
	if errors.As(err, &sc) {
		return sc.StatusCode() == http.StatusTooManyRequests
	}
	return false
}

// IsPermanent reports whether err must not be retried.
func IsPermanent(err error) bool {
	var pe *permanentError
	if errors.As(err, &pe) {
		return true
	}
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// Do calls fn until it succeeds, returns a permanent error, ctx is done, or
// the policy runs out of retries. The last error is returned.
func Do(ctx context.Context, policy Policy, logger *slog.Logger, fn func(ctx context.Context) error) error {
	if logger == nil {
		logger = slog.Default()
	}
	base := policy.BaseDelay
	if base <= 0 {
		base = DefaultPolicy.BaseDelay
	}
	pause := policy.RateLimitPause
	if pause <= 0 {
		pause = DefaultPolicy.RateLimitPause
	}

	exponential := goretry.NewExponential(base)
	var limited bool
	backoff := goretry.WithMaxRetries(policy.MaxRetries, goretry.BackoffFunc(func() (time.Duration, bool) {
		next, stop := exponential.Next()
		if limited {
			return pause, stop
		}
		return next, stop
	}))

	attempt := 0
	err := goretry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if IsPermanent(err) {
			return err
		}

		limited = IsRateLimited(err)
		logger.Warn("attempt failed",
			"attempt", attempt,
			"max_retries", policy.MaxRetries,
			"rate_limited", limited,
			"error", err)
		return goretry.RetryableError(err)
	})
	if err == nil {
		return nil
	}

	var pe *permanentError
	if errors.As(err, &pe) {
		return pe.err
	}
	return err
}
