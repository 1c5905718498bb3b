package testutils

import (
	"context"
	"io"
	"log/slog"
	"sync"
)

// DiscardLogger returns a logger that drops every record.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// LogEntry is a captured log record flattened into a map. The level and
// message are stored under "level" and "message".
type LogEntry map[string]any

// TestSlogHandler is a memory-backed slog.Handler for asserting on logs.
type TestSlogHandler struct {
	mu      *sync.Mutex
	entries *[]LogEntry
	attrs   []slog.Attr
}

// NewTestSlogHandler creates an empty capturing handler.
func NewTestSlogHandler() *TestSlogHandler {
	return &TestSlogHandler{mu: &sync.Mutex{}, entries: &[]LogEntry{}}
}

// Logger returns a logger writing to h.
func (h *TestSlogHandler) Logger() *slog.Logger {
	return slog.New(h)
}

// Enabled satisfies slog.Handler interface
func (h *TestSlogHandler) Enabled(context.Context, slog.Level) bool {
	return true
}

// Handle satisfies slog.Handler interface
func (h *TestSlogHandler) Handle(_ context.Context, r slog.Record) error {
	entry := LogEntry{
		"level":   r.Level.String(),
		"message": r.Message,
	}
	for _, a := range h.attrs {
		entry[a.Key] = a.Value.Any()
	}
	r.Attrs(func(a slog.Attr) bool {
		entry[a.Key] = a.Value.Any()
		return true
	})

	h.mu.Lock()
	defer h.mu.Unlock()
	*h.entries = append(*h.entries, entry)
	return nil
}

// WithAttrs satisfies slog.Handler interface. Derived handlers share the
// captured entries.
func (h *TestSlogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append(append([]slog.Attr(nil), h.attrs...), attrs...)
	return &clone
}

// WithGroup satisfies slog.Handler interface. Groups are flattened.
func (h *TestSlogHandler) WithGroup(string) slog.Handler {
	return h
}

// Entries returns all captured log entries
func (h *TestSlogHandler) Entries() []LogEntry {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]LogEntry(nil), *h.entries...)
}

// Find returns the captured entries with message.
func (h *TestSlogHandler) Find(message string) []LogEntry {
	var found []LogEntry
	for _, e := range h.Entries() {
		if e["message"] == message {
			found = append(found, e)
		}
	}
	return found
}
