package groq

import (
	"errors"
	"sync"

	"github.com/phrazzld/jobscout-api/internal/generation"
)

// Pool hands out model names, each at most budget times, in rotation.
type Pool struct {
	models []string
	budget int

	mu      sync.Mutex
	current int
	used    []int
}

// NewPool creates a Pool over models, each allowed budget requests.
func NewPool(models []string, budget int) (*Pool, error) {
	if len(models) == 0 {
		return nil, errors.New("model pool needs at least one model")
	}
	if budget <= 0 {
		return nil, errors.New("model budget must be positive")
	}
	return &Pool{
		models: append([]string(nil), models...),
		budget: budget,
		used:   make([]int, len(models)),
	}, nil
}

// Acquire returns the next model with budget left and charges one request
// to it. When every model is exhausted the usage is reset and
// generation.ErrModelsExhausted is returned, so the caller can fall back
// before the pool starts over.
func (p *Pool) Acquire() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i := 0; i < len(p.models); i++ {
		idx := (p.current + i) % len(p.models)
		if p.used[idx] < p.budget {
			p.current = idx
			p.used[idx]++
			return p.models[idx], nil
		}
	}

	for i := range p.used {
		p.used[i] = 0
	}
	p.current = 0
	return "", generation.ErrModelsExhausted
}

// Remaining returns the number of requests left across all models.
func (p *Pool) Remaining() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	left := 0
	for _, used := range p.used {
		left += p.budget - used
	}
	return left
}
