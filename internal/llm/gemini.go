package llm

import (
	"context"
	"log/slog"

	"github.com/oraportal/claude-api/internal/config"
	"github.com/oraportal/claude-api/internal/errors"
	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-2.0-flash"

// geminiClient wraps Google's Generative AI SDK
type geminiClient struct {
	client *genai.Client
	model  string
	logger *slog.Logger
}

func newGeminiClient(ctx context.Context, cfg Config, logger *slog.Logger) (*geminiClient, error) {
	model := cfg.Model
	if model == "" || model == config.DefaultModel {
		model = defaultGeminiModel
	}

	clientConfig := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: retryingHTTPClient(cfg, logger),
	}
	if cfg.BaseURL != "" {
		clientConfig.HTTPOptions.BaseURL = cfg.BaseURL
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, errors.Wrap(err, errors.KindConfiguration, "failed to create gemini client")
	}

	return &geminiClient{
		client: client,
		model:  model,
		logger: logger.With("model", model),
	}, nil
}

func (c *geminiClient) Complete(ctx context.Context, req Request) (*Response, error) {
	genConfig := &genai.GenerateContentConfig{
		MaxOutputTokens: int32(req.MaxTokens),
		Temperature:     float32Ptr(req.Temperature),
	}
	if req.SystemPrompt != "" {
		genConfig.SystemInstruction = genai.Text(req.SystemPrompt)[0]
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(req.Prompt), genConfig)
	if err != nil {
		return nil, errors.ServiceError(err, "gemini completion failed")
	}

	if len(resp.Candidates) == 0 {
		return nil, errors.New(errors.KindService, "gemini returned no candidates")
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return nil, errors.New(errors.KindService, "gemini returned no content parts")
	}

	var text string
	for _, part := range candidate.Content.Parts {
		text += part.Text
	}

	result := &Response{Text: text}
	if resp.UsageMetadata != nil {
		result.InputTokens = int(resp.UsageMetadata.PromptTokenCount)
		result.OutputTokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}

	c.logger.Debug("gemini completion",
		"prompt_length", len(req.Prompt),
		"response_length", len(text),
		"input_tokens", result.InputTokens,
		"output_tokens", result.OutputTokens,
	)

	return result, nil
}

func (c *geminiClient) Model() string {
	return c.model
}
