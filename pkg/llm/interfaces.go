// Package llm provides model provider clients for analysis code generation.
package llm

import "context"

// Client defines the interface for model provider operations.
// Use this interface for dependency injection to enable mocking in tests.
type Client interface {
	// GenerateCode requests a completion for the prompt from the given model.
	GenerateCode(ctx context.Context, model string, prompt string) (string, error)

	// ListModels returns the provider's models that support content
	// generation, as typed descriptors.
	ListModels(ctx context.Context) ([]ModelInfo, error)
}

// ModelInfo is a validated descriptor for a provider model.
type ModelInfo struct {
	ID string
}

// systemMessage frames every generation request.
const systemMessage = "You generate complete, runnable Python data-analysis code. Respond with code only."
