package llm

import "context"

// MockClient is a configurable mock for testing generation flows.
// Set the function fields to control behavior in tests.
type MockClient struct {
	// GenerateCodeFunc is called when GenerateCode is invoked.
	// If nil, returns empty output and nil error.
	GenerateCodeFunc func(ctx context.Context, model string, prompt string) (string, error)

	// ListModelsFunc is called when ListModels is invoked.
	// If nil, returns a single "mock-model" descriptor.
	ListModelsFunc func(ctx context.Context) ([]ModelInfo, error)

	// Call tracking for verification
	GenerateCodeCalls int
	ListModelsCalls   int
}

// GenerateCode implements Client.
func (m *MockClient) GenerateCode(ctx context.Context, model string, prompt string) (string, error) {
	m.GenerateCodeCalls++
	if m.GenerateCodeFunc != nil {
		return m.GenerateCodeFunc(ctx, model, prompt)
	}
	return "", nil
}

// ListModels implements Client.
func (m *MockClient) ListModels(ctx context.Context) ([]ModelInfo, error) {
	m.ListModelsCalls++
	if m.ListModelsFunc != nil {
		return m.ListModelsFunc(ctx)
	}
	return []ModelInfo{{ID: "mock-model"}}, nil
}

var _ Client = (*MockClient)(nil)
