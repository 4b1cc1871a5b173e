// Package generation wraps the text-generation collaborator with lenient JSON
// extraction and bounded retry-until-valid semantics. Every stage of case
// generation goes through Generate with a stage-specific validator.
package generation

import (
	"context"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/myrjola/whodunit/internal/ai"
	"github.com/myrjola/whodunit/internal/errors"
	"github.com/myrjola/whodunit/internal/genjson"
)

// DefaultMaxAttempts bounds the retries against a misbehaving model backend.
const DefaultMaxAttempts = 3

type Generator struct {
	text        ai.TextGenerator
	logger      *slog.Logger
	maxAttempts int
}

func NewGenerator(text ai.TextGenerator, logger *slog.Logger) *Generator {
	return &Generator{
		text:        text,
		logger:      logger.With("source", "Generator"),
		maxAttempts: DefaultMaxAttempts,
	}
}

// Generate prompts the model until validate accepts the extracted candidate or
// the attempt budget runs out. On budget exhaustion the last parseable
// candidate is returned with ok=false so that callers can decide whether a
// degraded value is tolerable or fatal. An error is returned only when no
// attempt produced a parseable candidate at all.
func Generate[T any](ctx context.Context, g *Generator, prompt string, validate func(T) bool) (T, bool, error) {
	var (
		candidate T
		parsed    bool
		lastErr   error
	)
	for attempt := 1; attempt <= g.maxAttempts; attempt++ {
		text, err := g.text.Generate(ctx, prompt)
		if err != nil {
			lastErr = errors.Wrap(err, "generate text", slog.Int("attempt", attempt))
			g.logger.LogAttrs(ctx, slog.LevelWarn, "generation attempt failed", errors.SlogError(lastErr))
			continue
		}

		var value T
		if err = genjson.Extract(text, &value); err != nil {
			lastErr = errors.Wrap(err, "extract candidate", slog.Int("attempt", attempt))
			g.logger.LogAttrs(ctx, slog.LevelWarn, "candidate extraction failed", errors.SlogError(lastErr))
			continue
		}

		candidate = value
		parsed = true
		if validate(value) {
			return value, true, nil
		}
		g.logger.LogAttrs(ctx, slog.LevelWarn, "candidate failed validation", slog.Int("attempt", attempt))
	}

	if !parsed {
		return candidate, false, errors.Wrap(lastErr, "no parseable candidate within attempt budget")
	}
	// Degrade gracefully: hand back the last candidate even though it never
	// validated. The caller decides whether that is fatal.
	return candidate, false, nil
}

var structValidator = validator.New(validator.WithRequiredStructEnabled())

// ValidStruct reports whether v passes its `validate` struct tags.
func ValidStruct(v any) bool {
	return structValidator.Struct(v) == nil
}

// ValidEach reports whether every item passes its `validate` struct tags and
// the slice is non-empty.
func ValidEach[T any](items []T) bool {
	if len(items) == 0 {
		return false
	}
	for _, item := range items {
		if !ValidStruct(item) {
			return false
		}
	}
	return true
}
