package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
)

// Common errors returned by Queue
var (
	ErrQueueClosed  = errors.New("task queue is closed")
	ErrQueueFull    = errors.New("task queue is full")
	ErrQueueRunning = errors.New("task queue already has a consumer")
	ErrTypeMismatch = errors.New("task type does not match queue")
)

// Handler processes a batch of tasks taken from a queue.
type Handler interface {
	HandleTasks(ctx context.Context, tasks []*Task) error
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, tasks []*Task) error

// HandleTasks calls f(ctx, tasks).
func (f HandlerFunc) HandleTasks(ctx context.Context, tasks []*Task) error {
	return f(ctx, tasks)
}

// QueueConfig holds configuration for a Queue.
type QueueConfig struct {
	// Type is the task type this queue accepts.
	Type Type

	// BatchSize is the number of tasks handed to the handler at once.
	// If zero or negative, defaults to 1.
	BatchSize int

	// Capacity bounds the number of queued tasks. Zero means unbounded.
	Capacity int
}

// QueueStats reports counters for a queue.
type QueueStats struct {
	Type      Type  `json:"type"`
	Depth     int   `json:"depth"`
	Processed int64 `json:"processed"`
	Failed    int64 `json:"failed"`
	Batches   int64 `json:"batches"`
}

// Queue is an unbounded-by-default FIFO with a wake signal and a single
// consumer. The consumer waits for the signal, drains every queued task,
// hands them to the handler in batches of at most BatchSize, then waits again.
// A batch is flushed when it reaches BatchSize or when the queue is empty.
type Queue struct {
	cfg     QueueConfig
	handler Handler
	logger  *slog.Logger

	mu      sync.Mutex
	items   []*Task
	closed  bool
	running bool

	// wake holds at most one pending signal.
	wake chan struct{}

	processed atomic.Int64
	failed    atomic.Int64
	batches   atomic.Int64
}

// NewQueue creates a queue for the configured task type.
func NewQueue(cfg QueueConfig, handler Handler, logger *slog.Logger) *Queue {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 1
	}
	if cfg.Capacity < 0 {
		cfg.Capacity = 0
	}

	return &Queue{
		cfg:     cfg,
		handler: handler,
		logger:  logger.With("component", "task_queue", "queue", string(cfg.Type)),
		wake:    make(chan struct{}, 1),
	}
}

// Type returns the task type accepted by the queue.
func (q *Queue) Type() Type {
	return q.cfg.Type
}

// Enqueue adds a task to the queue and wakes the consumer.
// Returns an error if the queue is full or closed.
func (q *Queue) Enqueue(ctx context.Context, t *Task) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if t.Type != q.cfg.Type {
		return fmt.Errorf("%w: %s queue got %s task", ErrTypeMismatch, q.cfg.Type, t.Type)
	}

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrQueueClosed
	}
	if q.cfg.Capacity > 0 && len(q.items) >= q.cfg.Capacity {
		q.mu.Unlock()
		return fmt.Errorf("%w: queue capacity %d reached", ErrQueueFull, q.cfg.Capacity)
	}
	q.items = append(q.items, t)
	depth := len(q.items)
	q.mu.Unlock()

	q.signal()

	q.logger.Debug("task enqueued",
		"task_id", t.ID,
		"queue_len", depth)
	return nil
}

// Len returns the number of queued tasks.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Stats returns a snapshot of the queue counters.
func (q *Queue) Stats() QueueStats {
	return QueueStats{
		Type:      q.cfg.Type,
		Depth:     q.Len(),
		Processed: q.processed.Load(),
		Failed:    q.failed.Load(),
		Batches:   q.batches.Load(),
	}
}

// Close prevents further submissions. A running consumer drains what is
// already queued and then returns.
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	q.mu.Unlock()

	q.signal()
	q.logger.Info("task queue closed")
}

func (q *Queue) signal() {
	select {
	case q.wake <- struct{}{}:
	default:
		// A wake-up is already pending.
	}
}

// pop removes the oldest task. It reports false when the queue is empty.
func (q *Queue) pop() (*Task, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return nil, false
	}
	t := q.items[0]
	q.items[0] = nil
	q.items = q.items[1:]
	if len(q.items) == 0 {
		// Release the backing array once drained.
		q.items = nil
	}
	return t, true
}

func (q *Queue) isClosedAndEmpty() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed && len(q.items) == 0
}

// Run consumes the queue until ctx is done or the queue is closed and
// drained. Only one consumer may run at a time.
func (q *Queue) Run(ctx context.Context) error {
	q.mu.Lock()
	if q.running {
		q.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrQueueRunning, q.cfg.Type)
	}
	q.running = true
	q.mu.Unlock()

	defer func() {
		q.mu.Lock()
		q.running = false
		q.mu.Unlock()
	}()

	q.logger.Debug("starting queue consumer", "batch_size", q.cfg.BatchSize)

	for {
		if q.isClosedAndEmpty() {
			q.logger.Debug("queue closed and drained, stopping consumer")
			return nil
		}

		q.logger.Debug("queue waiting for wake signal")
		select {
		case <-ctx.Done():
			q.logger.Debug("stopping queue consumer", "dropped", q.Len())
			return nil
		case <-q.wake:
			// The signal is consumed before draining, so a task enqueued
			// while draining leaves a fresh signal behind.
		}

		q.drain(ctx)
	}
}

// drain hands every queued task to the handler in batches.
func (q *Queue) drain(ctx context.Context) {
	batch := make([]*Task, 0, q.cfg.BatchSize)

	for ctx.Err() == nil {
		t, ok := q.pop()
		if !ok {
			break
		}
		batch = append(batch, t)

		if len(batch) == q.cfg.BatchSize {
			q.flush(ctx, batch)
			batch = make([]*Task, 0, q.cfg.BatchSize)
		}
	}

	if len(batch) > 0 {
		q.flush(ctx, batch)
	}
}

// flush runs the handler on one batch. Errors and panics are logged and the
// consumer carries on with the next batch.
func (q *Queue) flush(ctx context.Context, batch []*Task) {
	q.batches.Add(1)

	defer func() {
		if r := recover(); r != nil {
			q.failed.Add(int64(len(batch)))
			q.logger.Error("task handler panicked",
				"panic", r,
				"batch_size", len(batch),
				"stack", string(debug.Stack()))
		}
	}()

	if err := q.handler.HandleTasks(ctx, batch); err != nil {
		q.failed.Add(int64(len(batch)))
		q.logger.Error("task batch failed",
			"error", err,
			"batch_size", len(batch),
			"first_task_id", batch[0].ID)
		return
	}

	q.processed.Add(int64(len(batch)))
	q.logger.Debug("task batch processed", "batch_size", len(batch))
}
