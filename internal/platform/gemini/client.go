package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/phrazzld/jobscout-api/internal/config"
	"github.com/phrazzld/jobscout-api/internal/generation"
	"github.com/phrazzld/jobscout-api/internal/retry"
	"google.golang.org/genai"
)

// modelsAPI is the subset of genai.Models used by this package.
type modelsAPI interface {
	GenerateContent(
		ctx context.Context,
		model string,
		contents []*genai.Content,
		config *genai.GenerateContentConfig,
	) (*genai.GenerateContentResponse, error)
	EmbedContent(
		ctx context.Context,
		model string,
		contents []*genai.Content,
		config *genai.EmbedContentConfig,
	) (*genai.EmbedContentResponse, error)
}

// NewClient creates a Gemini API client.
func NewClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", generation.ErrInvalidConfig)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v", generation.ErrInvalidConfig, err)
	}
	return client, nil
}

// PolicyFromConfig builds the retry policy shared by the LLM providers.
func PolicyFromConfig(cfg config.LLMConfig) retry.Policy {
	return retry.Policy{
		MaxRetries:     uint64(max(cfg.MaxRetries, 0)),
		BaseDelay:      time.Duration(cfg.RetryDelaySeconds) * time.Second,
		RateLimitPause: time.Duration(cfg.RateLimitPauseSeconds) * time.Second,
	}
}

// classify marks API errors for the retry loop.
func classify(err error) error {
	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		return err
	}

	switch {
	case apiErr.Code == http.StatusTooManyRequests:
		return retry.RateLimited(err)
	case apiErr.Code >= 400 && apiErr.Code < 500 && apiErr.Code != http.StatusRequestTimeout:
		return retry.Permanent(err)
	default:
		return err
	}
}
