package gemini

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/jobscout-api/internal/generation"
	"github.com/phrazzld/jobscout-api/internal/platform/logger"
	"github.com/phrazzld/jobscout-api/internal/retry"
	"github.com/phrazzld/jobscout-api/internal/throttle"
	"google.golang.org/genai"
)

// maxEmbedBatch is the largest number of texts sent in one request.
const maxEmbedBatch = 100

const embeddingTaskType = "RETRIEVAL_DOCUMENT"

// Embedder implements generation.Embedder with a Gemini embedding model.
type Embedder struct {
	models     modelsAPI
	model      string
	dimensions int32
	gate       throttle.Gate
	policy     retry.Policy
	logger     *slog.Logger
}

var _ generation.Embedder = (*Embedder)(nil)

// NewEmbedder creates an Embedder producing vectors of the given size. Each
// request, not each text, passes through gate.
func NewEmbedder(
	client *genai.Client,
	model string,
	dimensions int,
	gate throttle.Gate,
	policy retry.Policy,
	log *slog.Logger,
) (*Embedder, error) {
	if client == nil {
		return nil, fmt.Errorf("%w: gemini client cannot be nil", generation.ErrInvalidConfig)
	}
	return newEmbedder(client.Models, model, dimensions, gate, policy, log)
}

func newEmbedder(
	models modelsAPI,
	model string,
	dimensions int,
	gate throttle.Gate,
	policy retry.Policy,
	log *slog.Logger,
) (*Embedder, error) {
	if model == "" {
		return nil, fmt.Errorf("%w: embedding model cannot be empty", generation.ErrInvalidConfig)
	}
	if dimensions <= 0 {
		return nil, fmt.Errorf("%w: embedding dimensions must be positive", generation.ErrInvalidConfig)
	}
	if gate == nil {
		return nil, fmt.Errorf("%w: gate cannot be nil", generation.ErrInvalidConfig)
	}
	if log == nil {
		log = slog.Default()
	}

	return &Embedder{
		models:     models,
		model:      model,
		dimensions: int32(dimensions),
		gate:       gate,
		policy:     policy,
		logger:     log.With(slog.String("component", "gemini_embedder"), slog.String("model", model)),
	}, nil
}

// Embed returns one vector per text, in order.
func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	log := logger.FromContextOrDefault(ctx, e.logger)

	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += maxEmbedBatch {
		end := min(start+maxEmbedBatch, len(texts))
		batch, err := e.embedBatch(ctx, log, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("gemini embed texts %d-%d: %w", start, end-1, err)
		}
		vectors = append(vectors, batch...)
	}

	log.DebugContext(ctx, "embedded texts", "count", len(vectors))
	return vectors, nil
}

func (e *Embedder) embedBatch(ctx context.Context, log *slog.Logger, texts []string) ([][]float32, error) {
	contents := make([]*genai.Content, len(texts))
	for i, text := range texts {
		contents[i] = &genai.Content{Parts: []*genai.Part{{Text: text}}}
	}

	var resp *genai.EmbedContentResponse
	err := retry.Do(ctx, e.policy, log, func(ctx context.Context) error {
		if err := e.gate.Wait(ctx); err != nil {
			return retry.Permanent(err)
		}

		var err error
		resp, err = e.models.EmbedContent(ctx, e.model, contents, &genai.EmbedContentConfig{
			TaskType:             embeddingTaskType,
			OutputDimensionality: genai.Ptr(e.dimensions),
		})
		if err != nil {
			return classify(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if resp == nil || len(resp.Embeddings) != len(texts) {
		got := 0
		if resp != nil {
			got = len(resp.Embeddings)
		}
		return nil, fmt.Errorf("%w: expected %d embeddings, got %d", generation.ErrInvalidResponse, len(texts), got)
	}

	vectors := make([][]float32, len(texts))
	for i, emb := range resp.Embeddings {
		if emb == nil || len(emb.Values) != int(e.dimensions) {
			return nil, fmt.Errorf("%w: embedding %d has wrong dimensions", generation.ErrInvalidResponse, i)
		}
		vectors[i] = emb.Values
	}
	return vectors, nil
}
