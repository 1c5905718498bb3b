package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/pgvector/pgvector-go"
	"github.com/phrazzld/jobscout-api/internal/store"
)

// PostgresVectorStore implements store.VectorIndex with pgvector.
type PostgresVectorStore struct {
	db         store.DBTX
	dimensions int
	logger     *slog.Logger
}

// NewPostgresVectorStore creates a vector index storing vectors of the given
// dimensionality.
func NewPostgresVectorStore(db store.DBTX, dimensions int, logger *slog.Logger) *PostgresVectorStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresVectorStore{
		db:         db,
		dimensions: dimensions,
		logger:     logger.With(slog.String("component", "vector_store")),
	}
}

var _ store.VectorIndex = (*PostgresVectorStore)(nil)

func (s *PostgresVectorStore) checkDimensions(values []float32) error {
	if s.dimensions > 0 && len(values) != s.dimensions {
		return fmt.Errorf("%w: vector has %d dimensions, index expects %d",
			store.ErrInvalidEntity, len(values), s.dimensions)
	}
	return nil
}

// Upsert implements store.VectorIndex.Upsert.
func (s *PostgresVectorStore) Upsert(ctx context.Context, namespace string, vectors []store.Vector) error {
	query := `
		INSERT INTO embeddings (namespace, id, embedding, metadata, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (namespace, id) DO UPDATE SET
			embedding = EXCLUDED.embedding,
			metadata = EXCLUDED.metadata,
			updated_at = EXCLUDED.updated_at
	`
	for _, v := range vectors {
		if v.ID == "" {
			return fmt.Errorf("%w: vector id is required", store.ErrInvalidEntity)
		}
		if err := s.checkDimensions(v.Values); err != nil {
			return err
		}

		metadata := v.Metadata
		if metadata == nil {
			metadata = map[string]any{}
		}
		raw, err := json.Marshal(metadata)
		if err != nil {
			return fmt.Errorf("%w: metadata for %s: %v", store.ErrInvalidEntity, v.ID, err)
		}

		if _, err := s.db.ExecContext(ctx, query,
			namespace, v.ID, pgvector.NewVector(v.Values), string(raw), time.Now().UTC(),
		); err != nil {
			s.logger.Error("failed to upsert vector",
				slog.String("namespace", namespace),
				slog.String("vector_id", v.ID),
				slog.String("error", err.Error()))
			return MapError(err)
		}
	}

	s.logger.Debug("vectors upserted",
		slog.String("namespace", namespace),
		slog.Int("count", len(vectors)))
	return nil
}

// Query implements store.VectorIndex.Query. Score is cosine similarity.
func (s *PostgresVectorStore) Query(ctx context.Context, namespace string, values []float32, topK int) ([]store.Match, error) {
	if err := s.checkDimensions(values); err != nil {
		return nil, err
	}
	if topK <= 0 {
		topK = 10
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, metadata, 1 - (embedding <=> $2) AS score
		FROM embeddings
		WHERE namespace = $1
		ORDER BY embedding <=> $2
		LIMIT $3
	`, namespace, pgvector.NewVector(values), topK)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var matches []store.Match
	for rows.Next() {
		var m store.Match
		var raw []byte
		if err := rows.Scan(&m.ID, &raw, &m.Score); err != nil {
			return nil, MapError(err)
		}
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &m.Metadata); err != nil {
				return nil, fmt.Errorf("decode metadata for %s: %w", m.ID, err)
			}
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return matches, nil
}
