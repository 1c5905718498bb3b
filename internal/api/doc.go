// Package api serves the public HTTP surface: the signup form and its
// submission, the unsubscribe link, the static result pages and the
// liveness endpoints. Handlers translate requests into task events and
// service calls; they never run pipeline work inline.
package api
