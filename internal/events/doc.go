// Package events decouples task producers from the queues that consume
// them. The HTTP layer and the scheduled pipelines publish TaskRequestEvents
// through an EventEmitter; the queue manager is registered as the handler
// that turns each event into a task.
package events
