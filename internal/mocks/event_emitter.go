package mocks

import (
	"context"
	"sync"

	"github.com/phrazzld/jobscout-api/internal/events"
)

// MockEventEmitter implements events.EventEmitter for testing. It records
// every event it is given.
type MockEventEmitter struct {
	EmitEventFn func(ctx context.Context, event *events.TaskRequestEvent) error

	mu      sync.Mutex
	emitted []*events.TaskRequestEvent
}

var _ events.EventEmitter = (*MockEventEmitter)(nil)

// EmitEvent implements the events.EventEmitter interface
func (m *MockEventEmitter) EmitEvent(ctx context.Context, event *events.TaskRequestEvent) error {
	if m.EmitEventFn != nil {
		if err := m.EmitEventFn(ctx, event); err != nil {
			return err
		}
	}
	m.mu.Lock()
	m.emitted = append(m.emitted, event)
	m.mu.Unlock()
	return nil
}

// Emitted returns the events accepted so far.
func (m *MockEventEmitter) Emitted() []*events.TaskRequestEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*events.TaskRequestEvent(nil), m.emitted...)
}
