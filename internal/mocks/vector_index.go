package mocks

import (
	"context"
	"sync"

	"github.com/phrazzld/jobscout-api/internal/store"
)

// MockVectorIndex implements store.VectorIndex for testing.
type MockVectorIndex struct {
	UpsertFn func(ctx context.Context, namespace string, vectors []store.Vector) error
	QueryFn  func(ctx context.Context, namespace string, values []float32, topK int) ([]store.Match, error)

	mu      sync.Mutex
	vectors map[string][]store.Vector
}

var _ store.VectorIndex = (*MockVectorIndex)(nil)

// Upsert implements the VectorIndex interface.
func (m *MockVectorIndex) Upsert(ctx context.Context, namespace string, vectors []store.Vector) error {
	if m.UpsertFn != nil {
		return m.UpsertFn(ctx, namespace, vectors)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.vectors == nil {
		m.vectors = make(map[string][]store.Vector)
	}
	m.vectors[namespace] = append(m.vectors[namespace], vectors...)
	return nil
}

// Query implements the VectorIndex interface. The default returns no
// matches.
func (m *MockVectorIndex) Query(
	ctx context.Context,
	namespace string,
	values []float32,
	topK int,
) ([]store.Match, error) {
	if m.QueryFn != nil {
		return m.QueryFn(ctx, namespace, values, topK)
	}
	return nil, nil
}

// Vectors returns the vectors upserted into namespace.
func (m *MockVectorIndex) Vectors(namespace string) []store.Vector {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]store.Vector(nil), m.vectors[namespace]...)
}
