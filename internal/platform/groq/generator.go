package groq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/phrazzld/jobscout-api/internal/generation"
	"github.com/phrazzld/jobscout-api/internal/platform/logger"
	"github.com/phrazzld/jobscout-api/internal/retry"
	"github.com/phrazzld/jobscout-api/internal/throttle"
	openai "github.com/sashabaranov/go-openai"
)

// chatAPI is the subset of the go-openai client used by the Generator.
type chatAPI interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Generator implements generation.Generator with Groq-hosted models.
type Generator struct {
	chat   chatAPI
	pool   *Pool
	gate   throttle.Gate
	policy retry.Policy
	logger *slog.Logger
}

var _ generation.Generator = (*Generator)(nil)

// NewGenerator creates a Generator talking to the API at baseURL.
func NewGenerator(
	apiKey, baseURL string,
	pool *Pool,
	gate throttle.Gate,
	policy retry.Policy,
	log *slog.Logger,
) (*Generator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: groq API key cannot be empty", generation.ErrInvalidConfig)
	}

	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return newGenerator(openai.NewClientWithConfig(cfg), pool, gate, policy, log)
}

func newGenerator(
	chat chatAPI,
	pool *Pool,
	gate throttle.Gate,
	policy retry.Policy,
	log *slog.Logger,
) (*Generator, error) {
	if pool == nil {
		return nil, fmt.Errorf("%w: model pool cannot be nil", generation.ErrInvalidConfig)
	}
	if gate == nil {
		return nil, fmt.Errorf("%w: gate cannot be nil", generation.ErrInvalidConfig)
	}
	if log == nil {
		log = slog.Default()
	}

	return &Generator{
		chat:   chat,
		pool:   pool,
		gate:   gate,
		policy: policy,
		logger: log.With(slog.String("component", "groq_generator")),
	}, nil
}

// Name identifies the provider in logs.
func (g *Generator) Name() string {
	return "groq"
}

// Generate sends prompt to the next model of the pool and decodes the JSON
// reply into out.
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
		model, err := g.pool.Acquire()
		if err != nil {
			return retry.Permanent(err)
		}

		resp, err := g.chat.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model: model,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleUser, Content: prompt},
			},
			Temperature: 0,
			ResponseFormat: &openai.ChatCompletionResponseFormat{
				Type: openai.ChatCompletionResponseFormatTypeJSONObject,
			},
		})
		if err != nil {
			log.DebugContext(ctx, "groq call failed", "model", model, "error", err)
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
		log.ErrorContext(ctx, "groq generation failed", "error", err)
		return fmt.Errorf("groq generate: %w", err)
	}

	return generation.DecodeJSON(reply, out)
}

func replyText(resp openai.ChatCompletionResponse) (string, error) {
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices returned", generation.ErrInvalidResponse)
	}
	choice := resp.Choices[0]
	if choice.FinishReason == openai.FinishReasonContentFilter {
		return "", fmt.Errorf("%w: content filtered", generation.ErrContentBlocked)
	}
	if strings.TrimSpace(choice.Message.Content) == "" {
		return "", fmt.Errorf("%w: empty reply", generation.ErrInvalidResponse)
	}
	return choice.Message.Content, nil
}

// classify marks API errors for the retry loop.
func classify(err error) error {
	status := 0
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	}

	switch {
	case status == http.StatusTooManyRequests:
		return retry.RateLimited(err)
	case status >= 400 && status < 500 && status != http.StatusRequestTimeout:
		return retry.Permanent(err)
	default:
		return err
	}
}
