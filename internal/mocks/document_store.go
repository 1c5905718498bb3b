package mocks

import (
	"context"
	"database/sql"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/jobscout-api/internal/store"
)

// MockDocumentStore implements store.DocumentStore for testing. Without
// function fields it keeps documents in memory and enforces dedup keys per
// collection.
type MockDocumentStore struct {
	InsertFn           func(ctx context.Context, doc *store.Document) error
	UpdateFn           func(ctx context.Context, collection string, id uuid.UUID, data json.RawMessage) error
	DeleteFn           func(ctx context.Context, collection string, id uuid.UUID) error
	ExistsByDedupKeyFn func(ctx context.Context, collection, key string) (bool, error)
	ListRecentFn       func(ctx context.Context, collection string, since time.Time, limit int) ([]store.Document, error)

	mu   sync.Mutex
	docs []store.Document
}

var _ store.DocumentStore = (*MockDocumentStore)(nil)

// NewMockDocumentStore creates a mock store holding docs.
func NewMockDocumentStore(docs ...store.Document) *MockDocumentStore {
	return &MockDocumentStore{docs: docs}
}

// Insert implements the DocumentStore interface.
func (m *MockDocumentStore) Insert(ctx context.Context, doc *store.Document) error {
	if m.InsertFn != nil {
		return m.InsertFn(ctx, doc)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if doc.DedupKey != "" {
		for _, d := range m.docs {
			if d.Collection == doc.Collection && d.DedupKey == doc.DedupKey {
				return store.ErrDedupKeyExists
			}
		}
	}
	if doc.ID == uuid.Nil {
		doc.ID = uuid.New()
	}
	now := time.Now().UTC()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now
	m.docs = append(m.docs, *doc)
	return nil
}

// Update implements the DocumentStore interface.
func (m *MockDocumentStore) Update(ctx context.Context, collection string, id uuid.UUID, data json.RawMessage) error {
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, collection, id, data)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.docs {
		if m.docs[i].Collection == collection && m.docs[i].ID == id {
			m.docs[i].Data = data
			m.docs[i].UpdatedAt = time.Now().UTC()
			return nil
		}
	}
	return store.ErrDocumentNotFound
}

// Delete implements the DocumentStore interface.
func (m *MockDocumentStore) Delete(ctx context.Context, collection string, id uuid.UUID) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, collection, id)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.docs {
		if m.docs[i].Collection == collection && m.docs[i].ID == id {
			m.docs = append(m.docs[:i], m.docs[i+1:]...)
			return nil
		}
	}
	return store.ErrDocumentNotFound
}

// ExistsByDedupKey implements the DocumentStore interface.
func (m *MockDocumentStore) ExistsByDedupKey(ctx context.Context, collection, key string) (bool, error) {
	if m.ExistsByDedupKeyFn != nil {
		return m.ExistsByDedupKeyFn(ctx, collection, key)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.docs {
		if d.Collection == collection && d.DedupKey == key {
			return true, nil
		}
	}
	return false, nil
}

// ListRecent implements the DocumentStore interface.
func (m *MockDocumentStore) ListRecent(
	ctx context.Context,
	collection string,
	since time.Time,
	limit int,
) ([]store.Document, error) {
	if m.ListRecentFn != nil {
		return m.ListRecentFn(ctx, collection, since, limit)
	}

	docs := m.Documents(collection)
	recent := docs[:0]
	for _, d := range docs {
		if !d.CreatedAt.Before(since) {
			recent = append(recent, d)
		}
	}
	sort.SliceStable(recent, func(i, j int) bool { return recent[i].CreatedAt.After(recent[j].CreatedAt) })
	if limit > 0 && len(recent) > limit {
		recent = recent[:limit]
	}
	return recent, nil
}

// WithTx implements the DocumentStore interface. The mock ignores
// transactions.
func (m *MockDocumentStore) WithTx(*sql.Tx) store.DocumentStore {
	return m
}

// Documents returns a copy of the stored documents of collection.
func (m *MockDocumentStore) Documents(collection string) []store.Document {
	m.mu.Lock()
	defer m.mu.Unlock()
	var docs []store.Document
	for _, d := range m.docs {
		if d.Collection == collection {
			docs = append(docs, d)
		}
	}
	return docs
}
