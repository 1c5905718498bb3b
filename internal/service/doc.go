// Package service contains use cases shared by the HTTP layer and the
// background pipeline. They coordinate the stores in internal/store with the
// token service in internal/service/auth.
package service
