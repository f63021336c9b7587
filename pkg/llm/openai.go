package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// OpenAIClient provides access to OpenAI-compatible endpoints.
type OpenAIClient struct {
	client *openai.Client
	logger *zap.Logger
}

// OpenAIConfig holds configuration for creating an OpenAI-compatible client.
type OpenAIConfig struct {
	BaseURL string // Optional override, e.g. a local gateway
	APIKey  string
}

// NewOpenAIClient creates a new OpenAI-compatible client.
func NewOpenAIClient(cfg *OpenAIConfig, logger *zap.Logger) *OpenAIClient {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	}

	return &OpenAIClient{
		client: openai.NewClientWithConfig(clientConfig),
		logger: logger.Named("llm"),
	}
}

// GenerateCode requests a chat completion for the analysis prompt.
func (c *OpenAIClient) GenerateCode(ctx context.Context, model string, prompt string) (string, error) {
	c.logger.Debug("LLM request",
		zap.String("model", model),
		zap.Int("prompt_len", len(prompt)))

	start := time.Now()

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemMessage},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		c.logger.Error("LLM request failed",
			zap.String("model", model),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return "", classifyWithModel(err, model)
	}

	if len(resp.Choices) == 0 {
		return "", NewError(ErrorTypeUnknown, "no choices in response", false, nil)
	}

	c.logger.Info("LLM request completed",
		zap.String("model", model),
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
		zap.Duration("elapsed", time.Since(start)))

	return resp.Choices[0].Message.Content, nil
}

// ListModels queries the provider's model listing and wraps each entry in
// a typed descriptor. Entries without an ID are dropped rather than trusted.
func (c *OpenAIClient) ListModels(ctx context.Context) ([]ModelInfo, error) {
	resp, err := c.client.ListModels(ctx)
	if err != nil {
		return nil, fmt.Errorf("list models: %w", classifyWithModel(err, ""))
	}

	models := make([]ModelInfo, 0, len(resp.Models))
	for _, m := range resp.Models {
		if m.ID == "" {
			continue
		}
		models = append(models, ModelInfo{ID: m.ID})
	}
	return models, nil
}

func classifyWithModel(err error, model string) *Error {
	e := ClassifyError(err)
	if e != nil && e.Model == "" {
		e.Model = model
	}
	return e
}

var _ Client = (*OpenAIClient)(nil)
