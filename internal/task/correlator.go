package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrResultNotFound is returned when a result was claimed by another waiter.
var ErrResultNotFound = errors.New("result not found")

// Result is the outcome a worker posts for a task.
type Result struct {
	ID   uuid.UUID       `json:"id"`
	Data json.RawMessage `json:"data"`
}

// NewResult serializes data as the result for task id.
func NewResult(id uuid.UUID, data any) (Result, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Result{}, fmt.Errorf("failed to marshal result for task %s: %w", id, err)
	}
	return Result{ID: id, Data: raw}, nil
}

// Decode unmarshals the result data into v.
func (r Result) Decode(v any) error {
	return json.Unmarshal(r.Data, v)
}

type pending struct {
	ready    chan struct{}
	posted   bool
	postedAt time.Time
	waiters  int
	result   Result
}

// Correlator matches results to the producers waiting for them. A result is
// delivered to exactly one waiter and then evicted. Posting before or after
// the waiter arrives yields the same result.
type Correlator struct {
	mu      sync.Mutex
	entries map[uuid.UUID]*pending
	logger  *slog.Logger
}

// NewCorrelator creates an empty Correlator.
func NewCorrelator(logger *slog.Logger) *Correlator {
	return &Correlator{
		entries: make(map[uuid.UUID]*pending),
		logger:  logger.With("component", "result_correlator"),
	}
}

// entry returns the pending slot for id, creating it if needed. Callers hold c.mu.
func (c *Correlator) entry(id uuid.UUID) *pending {
	p, ok := c.entries[id]
	if !ok {
		p = &pending{ready: make(chan struct{})}
		c.entries[id] = p
	}
	return p
}

// Post stores the result and wakes its waiter. Posting again before the
// result is retrieved replaces the stored data.
func (c *Correlator) Post(result Result) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.entry(result.ID)
	p.result = result
	p.postedAt = time.Now()
	if p.posted {
		c.logger.Warn("result replaced before retrieval", "task_id", result.ID)
		return
	}
	p.posted = true
	close(p.ready)
	c.logger.Debug("result stored", "task_id", result.ID)
}

// Wait blocks until the result for id is posted or ctx is done, then
// removes and returns it.
func (c *Correlator) Wait(ctx context.Context, id uuid.UUID) (Result, error) {
	c.mu.Lock()
	p := c.entry(id)
	p.waiters++
	c.mu.Unlock()

	select {
	case <-p.ready:
	case <-ctx.Done():
		c.mu.Lock()
		p.waiters--
		if !p.posted && p.waiters == 0 && c.entries[id] == p {
			delete(c.entries, id)
		}
		c.mu.Unlock()
		return Result{}, fmt.Errorf("waiting for result of task %s: %w", id, ctx.Err())
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	p.waiters--
	if current, ok := c.entries[id]; !ok || current != p {
		return Result{}, fmt.Errorf("%w: task %s", ErrResultNotFound, id)
	}
	delete(c.entries, id)

	c.logger.Debug("result retrieved and removed", "task_id", id)
	return p.result, nil
}

// Pending returns the number of results posted or awaited but not yet retrieved.
func (c *Correlator) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Expire drops posted results nobody retrieved within maxAge and returns
// how many were dropped.
func (c *Correlator) Expire(maxAge time.Duration) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	dropped := 0
	for id, p := range c.entries {
		if p.posted && p.waiters == 0 && p.postedAt.Before(cutoff) {
			delete(c.entries, id)
			dropped++
		}
	}
	if dropped > 0 {
		c.logger.Info("expired unclaimed results", "count", dropped)
	}
	return dropped
}

// ResultHandler returns a Handler for the result queue: every result task
// is posted to the correlator.
func ResultHandler(c *Correlator) Handler {
	return HandlerFunc(func(ctx context.Context, tasks []*Task) error {
		var errs []error
		for _, t := range tasks {
			var payload ResultPayload
			if err := t.Decode(&payload); err != nil {
				errs = append(errs, err)
				continue
			}
			c.Post(Result{ID: payload.TaskID, Data: payload.Data})
		}
		return errors.Join(errs...)
	})
}

// LogHandler returns a Handler for the log queue: every entry is written to
// logger at its level.
func LogHandler(logger *slog.Logger) Handler {
	logger = logger.With("component", "log_queue")
	return HandlerFunc(func(ctx context.Context, tasks []*Task) error {
		var errs []error
		for _, t := range tasks {
			var entry LogEntry
			if err := t.Decode(&entry); err != nil {
				errs = append(errs, err)
				continue
			}

			level := slog.LevelInfo
			if err := level.UnmarshalText([]byte(entry.Level)); err != nil {
				level = slog.LevelInfo
			}

			attrs := make([]any, 0, len(entry.Attrs)*2+2)
			attrs = append(attrs, "task_id", t.ID)
			for k, v := range entry.Attrs {
				attrs = append(attrs, k, v)
			}
			logger.Log(ctx, level, entry.Message, attrs...)
		}
		return errors.Join(errs...)
	})
}
