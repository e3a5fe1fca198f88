package llm

import (
	"context"
	"log/slog"

	"github.com/oraportal/claude-api/internal/config"
	"github.com/oraportal/claude-api/internal/errors"
	"github.com/sashabaranov/go-openai"
)

const defaultOpenAIModel = "gpt-4o"

type openAIClient struct {
	client *openai.Client
	model  string
	logger *slog.Logger
}

func newOpenAIClient(cfg Config, logger *slog.Logger) *openAIClient {
	model := cfg.Model
	if model == "" || model == config.DefaultModel {
		model = defaultOpenAIModel
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	clientConfig.HTTPClient = retryingHTTPClient(cfg, logger)

	return &openAIClient{
		client: openai.NewClientWithConfig(clientConfig),
		model:  model,
		logger: logger.With("model", model),
	}
}

func (c *openAIClient) Complete(ctx context.Context, req Request) (*Response, error) {
	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if req.SystemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.SystemPrompt,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.Prompt,
	})

	chatReq := openai.ChatCompletionRequest{
		Model:     c.model,
		Messages:  messages,
		MaxTokens: req.MaxTokens,
	}
	if req.Temperature != nil {
		chatReq.Temperature = float32(*req.Temperature)
	}

	resp, err := c.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return nil, errors.ServiceError(err, "openai completion failed")
	}

	if len(resp.Choices) == 0 {
		return nil, errors.New(errors.KindService, "openai returned no choices")
	}

	text := resp.Choices[0].Message.Content
	c.logger.Debug("openai completion",
		"prompt_length", len(req.Prompt),
		"response_length", len(text),
		"tokens_used", resp.Usage.TotalTokens,
	)

	return &Response{
		Text:         text,
		InputTokens:  resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
	}, nil
}

func (c *openAIClient) Model() string {
	return c.model
}
