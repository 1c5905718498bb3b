package generation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

type fallback struct {
	generators []Generator
	logger     *slog.Logger
}

// Fallback returns a Generator trying each generator in order until one
// succeeds. Each attempt decodes into a fresh value, so out only ever holds
// the reply of the generator that succeeded.
func Fallback(logger *slog.Logger, generators ...Generator) Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &fallback{
		generators: generators,
		logger:     logger.With("component", "llm_fallback"),
	}
}

func (f *fallback) Name() string {
	return "fallback"
}

func (f *fallback) Generate(ctx context.Context, prompt string, out any) error {
	if len(f.generators) == 0 {
		return fmt.Errorf("%w: no generators configured", ErrInvalidConfig)
	}

	var errs []error
	for _, g := range f.generators {
		err := intoFresh(out, func(fresh any) error {
			return g.Generate(ctx, prompt, fresh)
		})
		if err == nil {
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%w: %w", ErrGenerationFailed, ctxErr)
		}

		f.logger.WarnContext(ctx, "generator failed, trying next",
			"generator", g.Name(),
			"error", err)
		errs = append(errs, fmt.Errorf("%s: %w", g.Name(), err))
	}
	return fmt.Errorf("%w: %w", ErrGenerationFailed, errors.Join(errs...))
}
