package llm

import (
	"context"

	"go.uber.org/zap"
)

// DefaultModel is the last-resort model when the provider listing fails
// and no override is configured.
const DefaultModel = "gpt-4o-mini"

// preferredModels is the priority order for automatic selection,
// fastest first.
var preferredModels = []string{
	"gpt-4o-mini",
	"gpt-4o",
	"gpt-4.1-mini",
	"gpt-4.1",
	"claude-sonnet-4-5-20250929",
	"claude-3-7-sonnet-latest",
	"claude-3-5-haiku-latest",
}

// SelectModel picks a model identifier. Selection is stateless:
// an explicit override always wins; otherwise the provider listing is
// consulted and the first preferred model present is chosen, falling
// back to the first listed model, falling back to DefaultModel when the
// listing itself fails or is empty.
func SelectModel(ctx context.Context, client Client, override string, logger *zap.Logger) string {
	if override != "" {
		logger.Debug("Using configured model override", zap.String("model", override))
		return override
	}

	available, err := client.ListModels(ctx)
	if err != nil || len(available) == 0 {
		logger.Warn("Model listing unavailable, using default",
			zap.String("model", DefaultModel),
			zap.Error(err))
		return DefaultModel
	}

	byID := make(map[string]struct{}, len(available))
	for _, m := range available {
		byID[m.ID] = struct{}{}
	}

	for _, candidate := range preferredModels {
		if _, ok := byID[candidate]; ok {
			logger.Info("Selected model", zap.String("model", candidate))
			return candidate
		}
	}

	selected := available[0].ID
	logger.Info("No preferred model available, using first listed",
		zap.String("model", selected))
	return selected
}
