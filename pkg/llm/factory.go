package llm

import (
	"fmt"

	"go.uber.org/zap"
)

// ProviderConfig holds what the factory needs to build a provider client.
type ProviderConfig struct {
	Provider string // "openai" or "anthropic"
	BaseURL  string
	APIKey   string
}

// NewClient creates a provider client for the configured backend.
// Returns the Client interface to enable dependency injection of mocks.
func NewClient(cfg *ProviderConfig, logger *zap.Logger) (Client, error) {
	switch cfg.Provider {
	case "openai":
		return NewOpenAIClient(&OpenAIConfig{
			BaseURL: cfg.BaseURL,
			APIKey:  cfg.APIKey,
		}, logger), nil
	case "anthropic":
		return NewAnthropicClient(cfg.APIKey, logger), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}
