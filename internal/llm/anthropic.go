package llm

import (
	"context"
	"log/slog"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/oraportal/claude-api/internal/errors"
)

type anthropicClient struct {
	client anthropic.Client
	model  string
	logger *slog.Logger
}

func newAnthropicClient(cfg Config, logger *slog.Logger) *anthropicClient {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		// The SDK retries twice by default; honor the configured count instead
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}

	return &anthropicClient{
		client: anthropic.NewClient(opts...),
		model:  cfg.Model,
		logger: logger.With("model", cfg.Model),
	}
}

func (c *anthropicClient) Complete(ctx context.Context, req Request) (*Response, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: int64(req.MaxTokens),
		Messages: []anthropic.MessageParam{{
			Role:    anthropic.MessageParamRoleUser,
			Content: []anthropic.ContentBlockParamUnion{anthropic.NewTextBlock(req.Prompt)},
		}},
	}
	if req.SystemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Type: "text", Text: req.SystemPrompt}}
	}
	if req.Temperature != nil {
		params.Temperature = anthropic.Float(*req.Temperature)
	}

	start := time.Now()
	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return nil, errors.ServiceError(err, "anthropic completion failed")
	}

	result := &Response{
		InputTokens:  int(resp.Usage.InputTokens),
		OutputTokens: int(resp.Usage.OutputTokens),
	}
	textBlocks := 0
	for _, block := range resp.Content {
		if block.Type == "text" {
			result.Text += block.Text
			textBlocks++
		}
	}
	if textBlocks == 0 {
		return nil, errors.New(errors.KindService, "anthropic returned no text content").
			WithContext("stop_reason", string(resp.StopReason))
	}

	c.logger.Debug("anthropic completion",
		"duration_ms", time.Since(start).Milliseconds(),
		"prompt_length", len(req.Prompt),
		"response_length", len(result.Text),
		"input_tokens", result.InputTokens,
		"output_tokens", result.OutputTokens,
		"stop_reason", resp.StopReason,
	)

	return result, nil
}

func (c *anthropicClient) Model() string {
	return c.model
}
