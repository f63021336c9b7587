package llm

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/datapilot-labs/datapilot-engine/pkg/apperrors"
)

// MaxAttempts bounds total provider calls per generation, including the
// re-selection retry after a model-unavailable error.
const MaxAttempts = 2

// Generator turns prompts into raw model output, handling model selection
// and the bounded retry on model-unavailable errors.
type Generator struct {
	client   Client
	override string // Configured model pin; empty means auto-select
	logger   *zap.Logger
}

// NewGenerator creates a Generator over the given provider client.
func NewGenerator(client Client, modelOverride string, logger *zap.Logger) *Generator {
	return &Generator{
		client:   client,
		override: modelOverride,
		logger:   logger.Named("generator"),
	}
}

// Generate produces raw model output for the prompt and reports which
// model served it. On a classified model-unavailable error it re-runs
// model selection and retries, up to MaxAttempts calls in total; any
// other error class fails immediately. An empty completion after all
// attempts is a hard failure.
func (g *Generator) Generate(ctx context.Context, prompt string) (string, string, error) {
	model := SelectModel(ctx, g.client, g.override, g.logger)

	var lastErr error
	for attempt := 1; attempt <= MaxAttempts; attempt++ {
		output, err := g.client.GenerateCode(ctx, model, prompt)
		if err == nil {
			if strings.TrimSpace(output) == "" {
				return "", model, fmt.Errorf("model %s: %w", model, apperrors.ErrEmptyCompletion)
			}
			return output, model, nil
		}

		lastErr = err
		if !IsModelNotFound(err) {
			return "", model, fmt.Errorf("generate code: %w", err)
		}

		g.logger.Warn("Model unavailable, re-selecting",
			zap.String("model", model),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", MaxAttempts))

		// Re-selection is stateless; the override is deliberately dropped
		// here since it just failed.
		model = SelectModel(ctx, g.client, "", g.logger)
	}

	return "", model, fmt.Errorf("model selection failed after %d attempts: %w", MaxAttempts, lastErr)
}
