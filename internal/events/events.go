package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TaskRequestEvent asks for a background task of the given type. Its ID
// becomes the task ID, so producers can wait on the task's result.
type TaskRequestEvent struct {
	ID        uuid.UUID       `json:"id"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

// UnmarshalPayload decodes the event payload into v.
func (e *TaskRequestEvent) UnmarshalPayload(v any) error {
	return json.Unmarshal(e.Payload, v)
}

// NewTaskRequestEvent creates an event of eventType carrying payload as JSON.
func NewTaskRequestEvent(eventType string, payload any) (*TaskRequestEvent, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s event payload: %w", eventType, err)
	}

	return &TaskRequestEvent{
		ID:        uuid.New(),
		Type:      eventType,
		Payload:   payloadBytes,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// EventHandler processes events.
type EventHandler interface {
	HandleEvent(ctx context.Context, event *TaskRequestEvent) error
}

// EventEmitter publishes events to the registered handlers.
type EventEmitter interface {
	EmitEvent(ctx context.Context, event *TaskRequestEvent) error
}

// Emit builds an event from payload, publishes it and returns its ID.
func Emit(ctx context.Context, emitter EventEmitter, eventType string, payload any) (uuid.UUID, error) {
	event, err := NewTaskRequestEvent(eventType, payload)
	if err != nil {
		return uuid.Nil, err
	}
	if err := emitter.EmitEvent(ctx, event); err != nil {
		return uuid.Nil, err
	}
	return event.ID, nil
}
