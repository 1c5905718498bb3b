package retry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errFlaky = errors.New("flaky")

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fastPolicy(retries uint64) Policy {
	return Policy{MaxRetries: retries, BaseDelay: time.Millisecond, RateLimitPause: time.Millisecond}
}

func TestDoSucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastPolicy(3), testLogger(), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errFlaky
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoReturnsLastErrorWhenExhausted(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastPolicy(2), testLogger(), func(ctx context.Context) error {
		calls++
		return fmt.Errorf("attempt %d: %w", calls, errFlaky)
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, errFlaky)
	assert.Contains(t, err.Error(), "attempt 3")
	assert.Equal(t, 3, calls, "one attempt plus two retries")
}

func TestDoStopsOnPermanentError(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastPolicy(5), testLogger(), func(ctx context.Context) error {
		calls++
		return Permanent(errFlaky)
	})

	assert.ErrorIs(t, err, errFlaky)
	assert.Equal(t, 1, calls)
}

func TestDoPausesOnRateLimit(t *testing.T) {
	policy := Policy{MaxRetries: 1, BaseDelay: time.Millisecond, RateLimitPause: 40 * time.Millisecond}

	calls := 0
	start := time.Now()
	err := Do(context.Background(), policy, testLogger(), func(ctx context.Context) error {
		calls++
		if calls == 1 {
			return &HTTPStatusError{URL: "https://api.example.com", Status: 429}
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}

func TestDoHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	policy := Policy{MaxRetries: 10, BaseDelay: time.Hour, RateLimitPause: time.Hour}

	calls := 0
	done := make(chan error, 1)
	go func() {
		done <- Do(ctx, policy, testLogger(), func(ctx context.Context) error {
			calls++
			return errFlaky
		})
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("Do ignored cancellation")
	}
	assert.Equal(t, 1, calls)
}

func TestClassification(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		rateLimited bool
		permanent   bool
	}{
		{name: "plain error", err: errFlaky},
		{name: "http 429", err: &HTTPStatusError{Status: 429}, rateLimited: true},
		{name: "wrapped http 429", err: fmt.Errorf("fetch: %w", &HTTPStatusError{Status: 429}), rateLimited: true},
		{name: "http 500", err: &HTTPStatusError{Status: 500}},
		{name: "marked rate limited", err: RateLimited(errFlaky), rateLimited: true},
		{name: "permanent", err: Permanent(errFlaky), permanent: true},
		{name: "cancelled", err: context.Canceled, permanent: true},
		{name: "deadline", err: fmt.Errorf("call: %w", context.DeadlineExceeded), permanent: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.rateLimited, IsRateLimited(tc.err))
			assert.Equal(t, tc.permanent, IsPermanent(tc.err))
		})
	}
}

func TestMarkersIgnoreNil(t *testing.T) {
	assert.NoError(t, Permanent(nil))
	assert.NoError(t, RateLimited(nil))
}
