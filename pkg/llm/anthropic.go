package llm

import (
	"context"
	"time"

	"github.com/liushuangls/go-anthropic/v2"
	"go.uber.org/zap"
)

// maxCompletionTokens bounds generated script length.
const maxCompletionTokens = 4000

// AnthropicClient provides access to the Anthropic Messages API.
type AnthropicClient struct {
	client *anthropic.Client
	logger *zap.Logger
}

// NewAnthropicClient creates a new Anthropic client.
func NewAnthropicClient(apiKey string, logger *zap.Logger) *AnthropicClient {
	return &AnthropicClient{
		client: anthropic.NewClient(apiKey),
		logger: logger.Named("llm"),
	}
}

// GenerateCode requests a completion for the analysis prompt.
func (c *AnthropicClient) GenerateCode(ctx context.Context, model string, prompt string) (string, error) {
	c.logger.Debug("LLM request",
		zap.String("model", model),
		zap.Int("prompt_len", len(prompt)))

	start := time.Now()

	resp, err := c.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:     anthropic.Model(model),
		MaxTokens: maxCompletionTokens,
		System:    systemMessage,
		Messages: []anthropic.Message{
			anthropic.NewUserTextMessage(prompt),
		},
	})
	if err != nil {
		c.logger.Error("LLM request failed",
			zap.String("model", model),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return "", classifyWithModel(err, model)
	}

	var text string
	for _, block := range resp.Content {
		if block.Type == "text" && block.Text != nil {
			text = *block.Text
			break
		}
	}

	c.logger.Info("LLM request completed",
		zap.String("model", model),
		zap.Duration("elapsed", time.Since(start)))

	return text, nil
}

// ListModels returns a fixed descriptor list. The Messages API has no
// generation-capable listing endpoint, so selection falls back to the
// priority order over these.
func (c *AnthropicClient) ListModels(ctx context.Context) ([]ModelInfo, error) {
	return []ModelInfo{
		{ID: "claude-sonnet-4-5-20250929"},
		{ID: "claude-3-7-sonnet-latest"},
		{ID: "claude-3-5-haiku-latest"},
	}, nil
}

var _ Client = (*AnthropicClient)(nil)
