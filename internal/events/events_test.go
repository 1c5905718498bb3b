package events

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingHandler struct {
	mu     sync.Mutex
	events []*TaskRequestEvent
	err    error
}

func (h *recordingHandler) HandleEvent(_ context.Context, event *TaskRequestEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, event)
	return h.err
}

func testEmitter() *InMemoryEventEmitter {
	return NewInMemoryEventEmitter(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestNewTaskRequestEvent(t *testing.T) {
	type payload struct {
		Source string `json:"source"`
	}

	event, err := NewTaskRequestEvent("scrape", payload{Source: "scholars4dev-masters"})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, event.ID)
	assert.Equal(t, "scrape", event.Type)
	assert.WithinDuration(t, time.Now(), event.CreatedAt, 2*time.Second)

	var decoded payload
	require.NoError(t, event.UnmarshalPayload(&decoded))
	assert.Equal(t, "scholars4dev-masters", decoded.Source)

	_, err = NewTaskRequestEvent("bad", make(chan int))
	assert.Error(t, err)
}

func TestEmitDeliversToEveryHandler(t *testing.T) {
	emitter := testEmitter()
	failing := &recordingHandler{err: errors.New("queue full")}
	ok := &recordingHandler{}
	emitter.RegisterHandler(failing)
	emitter.RegisterHandler(ok)

	id, err := Emit(context.Background(), emitter, "email", map[string]string{"kind": "welcome"})
	assert.ErrorContains(t, err, "queue full")
	assert.Equal(t, uuid.Nil, id)

	require.Len(t, failing.events, 1)
	require.Len(t, ok.events, 1, "later handlers still receive the event")
	assert.Equal(t, failing.events[0].ID, ok.events[0].ID)
}

func TestEmitReturnsEventID(t *testing.T) {
	emitter := testEmitter()
	h := &recordingHandler{}
	emitter.RegisterHandler(h)

	id, err := Emit(context.Background(), emitter, "user", struct{}{})
	require.NoError(t, err)
	require.Len(t, h.events, 1)
	assert.Equal(t, h.events[0].ID, id)
}

func TestEmitWithoutHandlers(t *testing.T) {
	_, err := Emit(context.Background(), testEmitter(), "db", struct{}{})
	assert.ErrorIs(t, err, ErrNoHandlers)
}
