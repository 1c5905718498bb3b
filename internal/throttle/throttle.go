// Package throttle bounds how often the service calls external providers.
//
// A Limiter admits at most N operations in any rolling window of duration W.
// It keeps the admission timestamps of the current window, so the bound holds
// exactly, including across window boundaries where a token bucket would
// allow a burst of up to 2N.
package throttle

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Gate is anything callers can block on before an external call.
type Gate interface {
	Wait(ctx context.Context) error
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithClock replaces the time source, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		l.now = now
	}
}

// WithName labels the limiter in error messages.
func WithName(name string) Option {
	return func(l *Limiter) {
		l.name = name
	}
}

// Limiter admits at most limit operations per rolling window.
type Limiter struct {
	limit  int
	window time.Duration
	name   string
	now    func() time.Time

	mu       sync.Mutex
	admitted []time.Time
}

// New creates a Limiter admitting limit operations per window. A
// non-positive limit is treated as 1.
func New(limit int, window time.Duration, opts ...Option) *Limiter {
	if limit <= 0 {
		limit = 1
	}
	if window <= 0 {
		window = time.Second
	}

	l := &Limiter{
		limit:    limit,
		window:   window,
		name:     fmt.Sprintf("%d/%s", limit, window),
		now:      time.Now,
		admitted: make([]time.Time, 0, limit),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// PerMinute is shorthand for New(limit, time.Minute).
func PerMinute(limit int, opts ...Option) *Limiter {
	return New(limit, time.Minute, opts...)
}

// Name returns the limiter label.
func (l *Limiter) Name() string {
	return l.name
}

// prune drops admissions that have left the window. Callers hold l.mu.
func (l *Limiter) prune(now time.Time) {
	cutoff := 0
	for cutoff < len(l.admitted) && !now.Before(l.admitted[cutoff].Add(l.window)) {
		cutoff++
	}
	if cutoff > 0 {
		l.admitted = append(l.admitted[:0], l.admitted[cutoff:]...)
	}
}

// tryReserve admits one operation if the window has room. Otherwise it
// returns how long until the oldest admission leaves the window.
func (l *Limiter) tryReserve() (time.Time, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.prune(now)
	if len(l.admitted) < l.limit {
		l.admitted = append(l.admitted, now)
		return now, 0
	}
	return time.Time{}, l.admitted[0].Add(l.window).Sub(now)
}

// release returns a reservation made by tryReserve.
func (l *Limiter) release(ts time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i := len(l.admitted) - 1; i >= 0; i-- {
		if l.admitted[i].Equal(ts) {
			l.admitted = append(l.admitted[:i], l.admitted[i+1:]...)
			return
		}
	}
}

// Allow admits one operation if the window has room, without blocking.
func (l *Limiter) Allow() bool {
	_, delay := l.tryReserve()
	return delay == 0
}

// Delay reports how long a caller would wait right now, without reserving.
func (l *Limiter) Delay() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.prune(now)
	if len(l.admitted) < l.limit {
		return 0
	}
	return l.admitted[0].Add(l.window).Sub(now)
}

// InWindow returns the number of admissions in the current window.
func (l *Limiter) InWindow() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.prune(l.now())
	return len(l.admitted)
}

// Wait blocks until the operation is admitted or ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	return wait(ctx, l.name, l.tryReserve)
}

// Multi admits an operation only when every limiter has room.
type Multi struct {
	limiters []*Limiter
}

// All composes limiters, e.g. a per-minute and a per-month quota.
func All(limiters ...*Limiter) *Multi {
	return &Multi{limiters: limiters}
}

func (m *Multi) tryReserve() (time.Time, time.Duration) {
	reserved := make([]time.Time, 0, len(m.limiters))
	for i, l := range m.limiters {
		ts, delay := l.tryReserve()
		if delay > 0 {
			for j := 0; j < i; j++ {
				m.limiters[j].release(reserved[j])
			}
			return time.Time{}, delay
		}
		reserved = append(reserved, ts)
	}
	return time.Now(), 0
}

// Allow admits one operation if every limiter has room.
func (m *Multi) Allow() bool {
	_, delay := m.tryReserve()
	return delay == 0
}

// Wait blocks until every limiter admits the operation or ctx is done.
func (m *Multi) Wait(ctx context.Context) error {
	return wait(ctx, "multi", m.tryReserve)
}

func wait(ctx context.Context, name string, try func() (time.Time, time.Duration)) error {
	for {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("throttle %s: %w", name, err)
		}

		_, delay := try()
		if delay == 0 {
			return nil
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("throttle %s: %w", name, ctx.Err())
		case <-timer.C:
		}
	}
}

var (
	_ Gate = (*Limiter)(nil)
	_ Gate = (*Multi)(nil)
)
