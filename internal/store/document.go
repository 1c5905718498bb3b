package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Document is a schemaless record in a named collection.
type Document struct {
	ID         uuid.UUID       `json:"id"`
	Collection string          `json:"collection"`
	DedupKey   string          `json:"dedup_key,omitempty"`
	Data       json.RawMessage `json:"data"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// DocumentStore persists documents produced by the pipeline.
type DocumentStore interface {
	// Insert stores a new document. A document whose dedup key already
	// exists in the collection is skipped and reported as ErrDedupKeyExists.
	Insert(ctx context.Context, doc *Document) error

	// Update replaces the data of an existing document.
	// Returns ErrDocumentNotFound if it does not exist.
	Update(ctx context.Context, collection string, id uuid.UUID, data json.RawMessage) error

	// Delete removes a document.
	// Returns ErrDocumentNotFound if it does not exist.
	Delete(ctx context.Context, collection string, id uuid.UUID) error

	// ExistsByDedupKey reports whether the collection holds a document with
	// the key.
	ExistsByDedupKey(ctx context.Context, collection, key string) (bool, error)

	// ListRecent returns up to limit documents of the collection created at
	// or after since, newest first.
	ListRecent(ctx context.Context, collection string, since time.Time, limit int) ([]Document, error)

	// WithTx returns a DocumentStore bound to the transaction.
	WithTx(tx *sql.Tx) DocumentStore
}
