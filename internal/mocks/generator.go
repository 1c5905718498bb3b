package mocks

import (
	"context"
	"sync"

	"github.com/phrazzld/jobscout-api/internal/generation"
)

// MockGenerator implements generation.Generator for testing.
type MockGenerator struct {
	// GenerateFn allows test cases to mock the Generate behavior.
	GenerateFn func(ctx context.Context, prompt string, out any) error

	// Replies are decoded into out in call order. The last reply is reused
	// once the list runs out.
	Replies []string
	// Err is returned by every call when set.
	Err error
	// ModelName is returned by Name. Defaults to "mock".
	ModelName string

	mu      sync.Mutex
	prompts []string
}

var _ generation.Generator = (*MockGenerator)(nil)

// Generate implements the generation.Generator interface.
func (m *MockGenerator) Generate(ctx context.Context, prompt string, out any) error {
	m.mu.Lock()
	call := len(m.prompts)
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()

	if m.GenerateFn != nil {
		return m.GenerateFn(ctx, prompt, out)
	}
	if m.Err != nil {
		return m.Err
	}
	if len(m.Replies) == 0 {
		return generation.ErrInvalidResponse
	}
	reply := m.Replies[min(call, len(m.Replies)-1)]
	return generation.DecodeJSON(reply, out)
}

// Name implements the generation.Generator interface.
func (m *MockGenerator) Name() string {
	if m.ModelName == "" {
		return "mock"
	}
	return m.ModelName
}

// Prompts returns the prompts received so far.
func (m *MockGenerator) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.prompts...)
}

// CallCount returns the number of Generate calls.
func (m *MockGenerator) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}

// MockEmbedder implements generation.Embedder for testing. By default every
// text is embedded as a vector of Dimensions values derived from its length.
type MockEmbedder struct {
	EmbedFn func(ctx context.Context, texts []string) ([][]float32, error)

	Dimensions int
	Err        error

	mu    sync.Mutex
	calls [][]string
}

var _ generation.Embedder = (*MockEmbedder)(nil)

// Embed implements the generation.Embedder interface.
func (m *MockEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	m.calls = append(m.calls, append([]string(nil), texts...))
	m.mu.Unlock()

	if m.EmbedFn != nil {
		return m.EmbedFn(ctx, texts)
	}
	if m.Err != nil {
		return nil, m.Err
	}

	dims := m.Dimensions
	if dims <= 0 {
		dims = 3
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec := make([]float32, dims)
		for j := range vec {
			vec[j] = float32(len(text)+j) / 100
		}
		out[i] = vec
	}
	return out, nil
}

// Calls returns the text batches received so far.
func (m *MockEmbedder) Calls() [][]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]string(nil), m.calls...)
}
