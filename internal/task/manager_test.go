package task

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/jobscout-api/internal/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingHandler collects every task it receives.
type recordingHandler struct {
	mu    sync.Mutex
	tasks []*Task
}

func (h *recordingHandler) HandleTasks(ctx context.Context, tasks []*Task) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.tasks = append(h.tasks, tasks...)
	return nil
}

func (h *recordingHandler) ids() []uuid.UUID {
	h.mu.Lock()
	defer h.mu.Unlock()
	ids := make([]uuid.UUID, 0, len(h.tasks))
	for _, t := range h.tasks {
		ids = append(ids, t.ID)
	}
	return ids
}

func newTestManager(t *testing.T) (*Manager, map[Type]*recordingHandler) {
	t.Helper()
	m := NewManager(setupTestLogger())
	handlers := make(map[Type]*recordingHandler)
	for _, typ := range Types {
		h := &recordingHandler{}
		handlers[typ] = h
		require.NoError(t, m.Register(NewQueue(QueueConfig{Type: typ}, h, setupTestLogger())))
	}
	return m, handlers
}

func TestManagerRegisterRejectsDuplicates(t *testing.T) {
	m := NewManager(setupTestLogger())
	h := &recordingHandler{}

	require.NoError(t, m.Register(NewQueue(QueueConfig{Type: TypeDB}, h, setupTestLogger())))
	err := m.Register(NewQueue(QueueConfig{Type: TypeDB}, h, setupTestLogger()))
	assert.ErrorIs(t, err, ErrDuplicateQueue)
}

func TestManagerRoutesByType(t *testing.T) {
	m, handlers := newTestManager(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()
	defer func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("manager did not stop")
		}
	}()

	want := make(map[Type]uuid.UUID)
	for _, typ := range Types {
		id, err := m.Submit(context.Background(), typ, map[string]string{"type": string(typ)})
		require.NoError(t, err)
		want[typ] = id
	}

	for typ, id := range want {
		h := handlers[typ]
		require.Eventually(t, func() bool { return len(h.ids()) == 1 }, 5*time.Second, 5*time.Millisecond,
			"queue %s did not receive its task", typ)
		assert.Equal(t, []uuid.UUID{id}, h.ids(), "queue %s received a foreign task", typ)
	}
}

func TestManagerUnknownType(t *testing.T) {
	m, _ := newTestManager(t)

	_, err := m.Submit(context.Background(), Type("fax"), "payload")
	assert.ErrorIs(t, err, ErrUnknownTaskType)
}

func TestManagerHandleEvent(t *testing.T) {
	m, _ := newTestManager(t)

	emitter := events.NewInMemoryEventEmitter(setupTestLogger())
	emitter.RegisterHandler(m)

	event, err := events.NewTaskRequestEvent(string(TypeUser), map[string]string{"email": "a@example.com"})
	require.NoError(t, err)
	require.NoError(t, emitter.EmitEvent(context.Background(), event))

	var userStats QueueStats
	for _, s := range m.Stats() {
		if s.Type == TypeUser {
			userStats = s
		}
	}
	assert.Equal(t, 1, userStats.Depth)

	q := m.queues[TypeUser]
	queued, ok := q.pop()
	require.True(t, ok)
	assert.Equal(t, event.ID, queued.ID, "task keeps the event id")
}

func TestManagerCloseStopsRun(t *testing.T) {
	m, handlers := newTestManager(t)

	_, err := m.Submit(context.Background(), TypeDB, "last write")
	require.NoError(t, err)
	m.Close()

	done := make(chan error, 1)
	go func() { done <- m.Run(context.Background()) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("manager did not stop after close")
	}
	assert.Len(t, handlers[TypeDB].ids(), 1)
}

func TestManagerFailingQueueStopsSiblings(t *testing.T) {
	m := NewManager(setupTestLogger())

	sibling := NewQueue(QueueConfig{Type: TypeDB}, &recordingHandler{}, setupTestLogger())
	require.NoError(t, m.Register(sibling))

	started := make(chan struct{})
	release := make(chan struct{})
	busy := NewQueue(QueueConfig{Type: TypeEmail}, HandlerFunc(func(context.Context, []*Task) error {
		close(started)
		<-release
		return nil
	}), setupTestLogger())
	require.NoError(t, m.Register(busy))

	// Keep the email queue running outside the manager so its second Run fails.
	busyCtx, stopBusy := context.WithCancel(context.Background())
	busyDone := make(chan error, 1)
	go func() { busyDone <- busy.Run(busyCtx) }()
	_, err := m.Submit(context.Background(), TypeEmail, "welcome")
	require.NoError(t, err)
	<-started
	defer func() {
		close(release)
		stopBusy()
		assert.NoError(t, <-busyDone)
	}()

	done := make(chan error, 1)
	go func() { done <- m.Run(context.Background()) }()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrQueueRunning)
	case <-time.After(5 * time.Second):
		t.Fatal("manager kept running after a queue failed")
	}

	// The sibling consumer has returned, so it can be started again.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, sibling.Run(ctx))
}
