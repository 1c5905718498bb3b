// Package pipeline holds the work done behind the task queues: the handlers
// consuming user, scrape, db and email tasks, and the scheduled runs that
// feed them, the daily job digest and the scholarship check.
//
// Handlers never call each other directly. Follow-up work is published as
// task request events, and results travel back through the result queue to
// the correlator, where producers wait for them.
package pipeline
