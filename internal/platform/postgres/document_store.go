package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/jobscout-api/internal/platform/logger"
	"github.com/phrazzld/jobscout-api/internal/store"
)

// PostgresDocumentStore implements store.DocumentStore on a jsonb table.
type PostgresDocumentStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresDocumentStore creates a document store over db.
func NewPostgresDocumentStore(db store.DBTX, logger *slog.Logger) *PostgresDocumentStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresDocumentStore{
		db:     db,
		logger: logger.With(slog.String("component", "document_store")),
	}
}

var _ store.DocumentStore = (*PostgresDocumentStore)(nil)

func nullableKey(key string) sql.NullString {
	return sql.NullString{String: key, Valid: key != ""}
}

// Insert implements store.DocumentStore.Insert.
func (s *PostgresDocumentStore) Insert(ctx context.Context, doc *store.Document) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if doc.Collection == "" {
		return fmt.Errorf("%w: collection is required", store.ErrInvalidEntity)
	}
	if !json.Valid(doc.Data) {
		return fmt.Errorf("%w: document data is not valid JSON", store.ErrInvalidEntity)
	}
	if doc.ID == uuid.Nil {
		doc.ID = uuid.New()
	}
	now := time.Now().UTC()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now

	query := `
		INSERT INTO documents (id, collection, dedup_key, data, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (collection, dedup_key) WHERE dedup_key IS NOT NULL DO NOTHING
	`
	result, err := s.db.ExecContext(ctx, query,
		doc.ID,
		doc.Collection,
		nullableKey(doc.DedupKey),
		string(doc.Data),
		doc.CreatedAt,
		doc.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to insert document",
			slog.String("collection", doc.Collection),
			slog.String("error", err.Error()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, store.ErrDedupKeyExists); err != nil {
		if errors.Is(err, store.ErrDedupKeyExists) {
			log.Debug("document already stored",
				slog.String("collection", doc.Collection),
				slog.String("dedup_key", doc.DedupKey))
		}
		return err
	}
	return nil
}

// Update implements store.DocumentStore.Update.
func (s *PostgresDocumentStore) Update(ctx context.Context, collection string, id uuid.UUID, data json.RawMessage) error {
	if !json.Valid(data) {
		return fmt.Errorf("%w: document data is not valid JSON", store.ErrInvalidEntity)
	}

	result, err := s.db.ExecContext(ctx,
		`UPDATE documents SET data = $3, updated_at = $4 WHERE collection = $1 AND id = $2`,
		collection, id, string(data), time.Now().UTC())
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to update document",
			slog.String("collection", collection),
			slog.String("document_id", id.String()),
			slog.String("error", err.Error()))
		return MapError(err)
	}
	return CheckRowsAffected(result, store.ErrDocumentNotFound)
}

// Delete implements store.DocumentStore.Delete.
func (s *PostgresDocumentStore) Delete(ctx context.Context, collection string, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM documents WHERE collection = $1 AND id = $2`, collection, id)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to delete document",
			slog.String("collection", collection),
			slog.String("document_id", id.String()),
			slog.String("error", err.Error()))
		return MapError(err)
	}
	return CheckRowsAffected(result, store.ErrDocumentNotFound)
}

// ExistsByDedupKey implements store.DocumentStore.ExistsByDedupKey.
func (s *PostgresDocumentStore) ExistsByDedupKey(ctx context.Context, collection, key string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM documents WHERE collection = $1 AND dedup_key = $2)`,
		collection, key).Scan(&exists)
	if err != nil {
		return false, MapError(err)
	}
	return exists, nil
}

// ListRecent implements store.DocumentStore.ListRecent.
func (s *PostgresDocumentStore) ListRecent(ctx context.Context, collection string, since time.Time, limit int) ([]store.Document, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, collection, COALESCE(dedup_key, ''), data, created_at, updated_at
		FROM documents
		WHERE collection = $1 AND created_at >= $2
		ORDER BY created_at DESC
		LIMIT $3
	`, collection, since, limit)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var docs []store.Document
	for rows.Next() {
		var doc store.Document
		var data []byte
		if err := rows.Scan(&doc.ID, &doc.Collection, &doc.DedupKey, &data, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
			return nil, MapError(err)
		}
		doc.Data = json.RawMessage(data)
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return docs, nil
}

// WithTx implements store.DocumentStore.WithTx.
func (s *PostgresDocumentStore) WithTx(tx *sql.Tx) store.DocumentStore {
	return &PostgresDocumentStore{db: tx, logger: s.logger}
}
