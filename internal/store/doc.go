// Package store defines the persistence interfaces the pipeline writes
// through: subscribers, schemaless documents grouped by collection, and the
// vector index used for semantic job search. Implementations live in
// internal/platform/postgres.
package store
