package generation

import (
	"context"
)

// Generator produces structured output from a prompt. Implementations ask
// the model for JSON and decode it into out, which must be a pointer.
type Generator interface {
	Generate(ctx context.Context, prompt string, out any) error
	Name() string
}

// Embedder converts texts into embedding vectors, one per text, in order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}
