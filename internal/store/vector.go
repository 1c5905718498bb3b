package store

import "context"

// Vector is an embedding with the metadata returned alongside matches.
type Vector struct {
	ID       string
	Values   []float32
	Metadata map[string]any
}

// Match is a query hit ordered by cosine distance.
type Match struct {
	ID       string
	Score    float64
	Metadata map[string]any
}

// VectorIndex stores embeddings partitioned by namespace.
type VectorIndex interface {
	// Upsert writes the vectors, replacing any with the same namespace and ID.
	Upsert(ctx context.Context, namespace string, vectors []Vector) error

	// Query returns the topK nearest vectors in the namespace.
	Query(ctx context.Context, namespace string, values []float32, topK int) ([]Match, error)
}
