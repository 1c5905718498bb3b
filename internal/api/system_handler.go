package api

import (
	"net/http"

	"github.com/phrazzld/jobscout-api/internal/api/shared"
	"github.com/phrazzld/jobscout-api/internal/task"
)

// QueueStatter reports queue counters.
type QueueStatter interface {
	Stats() []task.QueueStats
}

// PendingCounter reports results awaiting their consumer.
type PendingCounter interface {
	Pending() int
}

// SystemHandler serves the liveness and diagnostics endpoints.
type SystemHandler struct {
	queues  QueueStatter
	results PendingCounter
}

// NewSystemHandler creates a SystemHandler.
func NewSystemHandler(queues QueueStatter, results PendingCounter) *SystemHandler {
	return &SystemHandler{queues: queues, results: results}
}

// Ping serves GET /ping, which the self-ping loop also calls.
func (h *SystemHandler) Ping(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, PingResponse{Message: "pong"})
}

// Health serves GET /health.
func (h *SystemHandler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// QueueStats serves GET /health/queues.
func (h *SystemHandler) QueueStats(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, QueueStatsResponse{
		Queues:         h.queues.Stats(),
		PendingResults: h.results.Pending(),
	})
}
