package task

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Type tags a task with the queue that consumes it.
type Type string

// Task types, one per queue.
const (
	TypeUser   Type = "user"
	TypeScrape Type = "scrape"
	TypeDB     Type = "db"
	TypeEmail  Type = "email"
	TypeResult Type = "result"
	TypeLog    Type = "log"
)

// Types lists every known task type.
var Types = []Type{TypeUser, TypeScrape, TypeDB, TypeEmail, TypeResult, TypeLog}

// ErrEmptyPayload is returned when a task carries no payload.
var ErrEmptyPayload = errors.New("task payload is empty")

// Task is the envelope for one unit of work.
type Task struct {
	ID        uuid.UUID       `json:"id"`
	Type      Type            `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

// New creates a task of the given type with payload serialized as JSON.
func New(taskType Type, payload any) (*Task, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s task payload: %w", taskType, err)
	}

	return &Task{
		ID:        uuid.New(),
		Type:      taskType,
		Payload:   payloadBytes,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// Decode unmarshals the task payload into v.
func (t *Task) Decode(v any) error {
	if len(t.Payload) == 0 {
		return ErrEmptyPayload
	}
	if err := json.Unmarshal(t.Payload, v); err != nil {
		return fmt.Errorf("failed to decode %s task %s: %w", t.Type, t.ID, err)
	}
	return nil
}

// Operation is the kind of write carried by a DBOperation.
type Operation string

// Supported database operations.
const (
	OpInsert Operation = "insert"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
	// OpUpsert inserts or replaces a record keyed by its natural key. Only
	// the users collection supports it.
	OpUpsert Operation = "upsert"
)

// DBOperation is the payload of a db task: one write against a collection.
type DBOperation struct {
	Collection string          `json:"collection"`
	Operation  Operation       `json:"operation"`
	DocumentID string          `json:"document_id,omitempty"`
	DedupKey   string          `json:"dedup_key,omitempty"`
	Data       json.RawMessage `json:"data,omitempty"`
}

// Validate checks that the operation is well formed.
func (op DBOperation) Validate() error {
	if op.Collection == "" {
		return errors.New("collection is required")
	}
	switch op.Operation {
	case OpInsert, OpUpsert:
		if len(op.Data) == 0 {
			return fmt.Errorf("%s requires data", op.Operation)
		}
	case OpUpdate, OpDelete:
		if _, err := uuid.Parse(op.DocumentID); err != nil {
			return fmt.Errorf("%s requires a valid document id: %w", op.Operation, err)
		}
		if op.Operation == OpUpdate && len(op.Data) == 0 {
			return errors.New("update requires data")
		}
	default:
		return fmt.Errorf("unknown operation %q", op.Operation)
	}
	return nil
}

// ResultPayload is the payload of a result task.
type ResultPayload struct {
	TaskID uuid.UUID       `json:"task_id"`
	Data   json.RawMessage `json:"data"`
}

// LogEntry is the payload of a log task.
type LogEntry struct {
	Level   string         `json:"level"`
	Message string         `json:"message"`
	Attrs   map[string]any `json:"attrs,omitempty"`
}
