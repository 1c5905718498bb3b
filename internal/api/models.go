package api

import (
	"github.com/google/uuid"
	"github.com/phrazzld/jobscout-api/internal/task"
)

// SignupRequest holds the text fields of the signup form.
type SignupRequest struct {
	Email    string `validate:"required,email,max=254"`
	Username string `validate:"required,max=64"`
}

// SignupResponse is returned to JSON clients once the signup is queued.
type SignupResponse struct {
	TaskID uuid.UUID `json:"task_id"`
	Status string    `json:"status"`
}

// StatusQueued reports that the signup was accepted for processing.
const StatusQueued = "queued"

// PingResponse is the body of GET /ping.
type PingResponse struct {
	Message string `json:"message"`
}

// UnsubscribeResponse is returned to JSON clients after unsubscribing.
type UnsubscribeResponse struct {
	Email        string `json:"email"`
	Unsubscribed bool   `json:"unsubscribed"`
}

// QueueStatsResponse reports the task queues and the results waiting to be
// claimed.
type QueueStatsResponse struct {
	Queues         []task.QueueStats `json:"queues"`
	PendingResults int               `json:"pending_results"`
}
