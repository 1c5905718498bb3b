package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/jobscout-api/internal/events"
	"golang.org/x/sync/errgroup"
)

// Common errors returned by Manager
var (
	ErrUnknownTaskType = errors.New("no queue registered for task type")
	ErrDuplicateQueue  = errors.New("queue already registered for task type")
)

// Manager routes tasks to the queue registered for their type and runs
// every queue's consumer.
type Manager struct {
	mu     sync.RWMutex
	queues map[Type]*Queue
	order  []*Queue
	logger *slog.Logger
}

// NewManager creates an empty Manager.
func NewManager(logger *slog.Logger) *Manager {
	return &Manager{
		queues: make(map[Type]*Queue),
		logger: logger.With("component", "queue_manager"),
	}
}

// Register adds a queue. Only one queue may be registered per task type.
func (m *Manager) Register(q *Queue) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.queues[q.Type()]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateQueue, q.Type())
	}
	m.queues[q.Type()] = q
	m.order = append(m.order, q)
	m.logger.Debug("registered queue", "queue", string(q.Type()), "queue_count", len(m.order))
	return nil
}

// Enqueue routes t to the queue registered for its type.
func (m *Manager) Enqueue(ctx context.Context, t *Task) error {
	m.mu.RLock()
	q, ok := m.queues[t.Type]
	m.mu.RUnlock()

	if !ok {
		m.logger.Warn("task type not recognized",
			"task_id", t.ID,
			"task_type", string(t.Type))
		return fmt.Errorf("%w: %s", ErrUnknownTaskType, t.Type)
	}

	if err := q.Enqueue(ctx, t); err != nil {
		return fmt.Errorf("failed to enqueue %s task %s: %w", t.Type, t.ID, err)
	}

	m.logger.Debug("task routed", "task_id", t.ID, "task_type", string(t.Type))
	return nil
}

// Submit builds a task from payload and enqueues it. It returns the task ID
// so callers can wait on its result.
func (m *Manager) Submit(ctx context.Context, taskType Type, payload any) (uuid.UUID, error) {
	t, err := New(taskType, payload)
	if err != nil {
		return uuid.Nil, err
	}
	if err := m.Enqueue(ctx, t); err != nil {
		return uuid.Nil, err
	}
	return t.ID, nil
}

// HandleEvent turns a task request event into a task and routes it.
// The task keeps the event ID so the emitter can correlate results.
func (m *Manager) HandleEvent(ctx context.Context, event *events.TaskRequestEvent) error {
	t := &Task{
		ID:        event.ID,
		Type:      Type(event.Type),
		Payload:   event.Payload,
		CreatedAt: event.CreatedAt,
	}
	return m.Enqueue(ctx, t)
}

// Stats reports counters for every registered queue.
func (m *Manager) Stats() []QueueStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := make([]QueueStats, 0, len(m.order))
	for _, q := range m.order {
		stats = append(stats, q.Stats())
	}
	return stats
}

// Run starts every queue consumer and blocks until ctx is done or a
// consumer fails, in which case the others are cancelled too.
func (m *Manager) Run(ctx context.Context) error {
	m.mu.RLock()
	queues := make([]*Queue, len(m.order))
	copy(queues, m.order)
	m.mu.RUnlock()

	m.logger.Info("starting all queues", "queue_count", len(queues))

	g, gctx := errgroup.WithContext(ctx)
	for _, q := range queues {
		g.Go(func() error {
			return q.Run(gctx)
		})
	}

	err := g.Wait()
	m.logger.Info("all queues stopped")
	return err
}

// Close closes every registered queue.
func (m *Manager) Close() {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, q := range m.order {
		q.Close()
	}
}

// Ensure Manager implements events.EventHandler
var _ events.EventHandler = (*Manager)(nil)
