package generation

import "errors"

// Common errors returned by the generation package
var (
	// ErrGenerationFailed is returned when every provider failed.
	ErrGenerationFailed = errors.New("generation failed")

	// ErrInvalidResponse is returned when the LLM response cannot be parsed or is malformed
	ErrInvalidResponse = errors.New("invalid response from language model")

	// ErrContentBlocked is returned when the LLM blocks the content due to safety filters
	ErrContentBlocked = errors.New("content blocked by language model safety filters")

	// ErrInvalidConfig is returned when the generator configuration is invalid
	ErrInvalidConfig = errors.New("invalid generator configuration")

	// ErrEmptyPrompt is returned when a call is made without a prompt.
	ErrEmptyPrompt = errors.New("prompt cannot be empty")

	// ErrModelsExhausted is returned when every model of a pool has used
	// its request budget.
	ErrModelsExhausted = errors.New("all models exhausted their request budget")
)
