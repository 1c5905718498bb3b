// Package task implements the in-process work dispatch layer: a task
// envelope, per-purpose queues drained by a single consumer each, a manager
// that routes tasks to queues by type, and a correlator that lets producers
// wait for the result of a task processed elsewhere.
//
// Nothing here is persisted. Tasks still queued when the process stops are lost.
package task
