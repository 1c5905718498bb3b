// Package postgres implements the internal/store interfaces on PostgreSQL
// through database/sql and the pgx driver. Documents are stored as jsonb rows
// keyed by collection, embeddings live in a pgvector column, and the schema
// is created by the embedded goose migrations.
package postgres
