package gemini

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/phrazzld/jobscout-api/internal/generation"
	"github.com/phrazzld/jobscout-api/internal/platform/logger"
	"github.com/phrazzld/jobscout-api/internal/retry"
	"github.com/phrazzld/jobscout-api/internal/throttle"
	"google.golang.org/genai"
)

// Generator implements generation.Generator with a Gemini model.
type Generator struct {
	models modelsAPI
	model  string
	gate   throttle.Gate
	policy retry.Policy
	logger *slog.Logger
}

var _ generation.Generator = (*Generator)(nil)

// NewGenerator creates a Generator calling model through client. Every call
// first waits on gate.
func NewGenerator(
	client *genai.Client,
	model string,
	gate throttle.Gate,
	policy retry.Policy,
	log *slog.Logger,
) (*Generator, error) {
	if client == nil {
		return nil, fmt.Errorf("%w: gemini client cannot be nil", generation.ErrInvalidConfig)
	}
	return newGenerator(client.Models, model, gate, policy, log)
}

func newGenerator(
	models modelsAPI,
	model string,
	gate throttle.Gate,
	policy retry.Policy,
	log *slog.Logger,
) (*Generator, error) {
	if model == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", generation.ErrInvalidConfig)
	}
	if gate == nil {
		return nil, fmt.Errorf("%w: gate cannot be nil", generation.ErrInvalidConfig)
	}
	if log == nil {
		log = slog.Default()
	}

	return &Generator{
		models: models,
		model:  model,
		gate:   gate,
		policy: policy,
		logger: log.With(slog.String("component", "gemini_generator"), slog.String("model", model)),
	}, nil
}

// Name identifies the provider and model in logs.
func (g *Generator) Name() string {
	return "gemini:" + g.model
}

// Generate sends prompt to the model and decodes its JSON reply into out.
func (g *Generator) Generate(ctx context.Context, prompt string, out any) error {
	if strings.TrimSpace(prompt) == "" {
		return generation.ErrEmptyPrompt
	}
	log := logger.FromContextOrDefault(ctx, g.logger)

	var reply string
	err := retry.Do(ctx, g.policy, log, func(ctx context.Context) error {
		if err := g.gate.Wait(ctx); err != nil {
			return retry.Permanent(err)
		}

		resp, err := g.models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
			Temperature:      genai.Ptr[float32](0),
			ResponseMIMEType: "application/json",
		})
		if err != nil {
			return classify(err)
		}

		text, err := replyText(resp)
		if err != nil {
			return retry.Permanent(err)
		}
		reply = text
		return nil
	})
	if err != nil {
		log.ErrorContext(ctx, "gemini generation failed", "error", err)
		return fmt.Errorf("gemini generate: %w", err)
	}

	log.DebugContext(ctx, "gemini generation succeeded", "reply_length", len(reply))
	return generation.DecodeJSON(reply, out)
}

// replyText extracts the text of the first candidate, reporting safety
// blocks and empty replies.
func replyText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", fmt.Errorf("%w: nil response", generation.ErrInvalidResponse)
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("%w: prompt blocked: %s", generation.ErrContentBlocked, resp.PromptFeedback.BlockReason)
	}
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("%w: no content generated", generation.ErrInvalidResponse)
	}
	if resp.Candidates[0].FinishReason == genai.FinishReasonSafety {
		return "", fmt.Errorf("%w: content blocked by safety filters", generation.ErrContentBlocked)
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: empty reply", generation.ErrInvalidResponse)
	}
	return text, nil
}
