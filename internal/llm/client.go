package llm

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/oraportal/claude-api/internal/config"
	"github.com/oraportal/claude-api/internal/errors"
)

// Completer sends a single prompt to a text-generation service
type Completer interface {
	Complete(ctx context.Context, req Request) (*Response, error)
	Model() string
}

// Request is one user prompt plus generation limits
type Request struct {
	Prompt       string
	SystemPrompt string
	MaxTokens    int
	// nil leaves the provider default
	Temperature *float64
}

// Response is the generated text and token usage
type Response struct {
	Text         string
	InputTokens  int
	OutputTokens int
}

// Config selects and configures a provider client
type Config struct {
	Provider string
	APIKey   string
	BaseURL  string
	Model    string
	// Zero keeps the provider's default timeout
	Timeout time.Duration
	// Zero means a single attempt
	MaxRetries int

	retryWaitMin time.Duration
}

// New builds a Completer for cfg.Provider. No network traffic happens here.
func New(ctx context.Context, cfg Config) (Completer, error) {
	if cfg.APIKey == "" {
		return nil, errors.ConfigErrorf("no API key configured for provider %q", cfg.Provider)
	}

	logger := slog.Default().With("component", "llm", "provider", cfg.Provider)

	switch cfg.Provider {
	case "", config.ProviderAnthropic:
		if cfg.Model == "" {
			cfg.Model = config.DefaultModel
		}
		return newAnthropicClient(cfg, logger), nil
	case config.ProviderOpenAI:
		return newOpenAIClient(cfg, logger), nil
	case config.ProviderGemini:
		return newGeminiClient(ctx, cfg, logger)
	default:
		return nil, errors.ConfigErrorf("unsupported provider %q", cfg.Provider)
	}
}

// retryingHTTPClient gives the OpenAI and Gemini SDKs the same retry and
// timeout behavior the Anthropic SDK exposes natively.
func retryingHTTPClient(cfg Config, logger *slog.Logger) *http.Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = cfg.MaxRetries
	if cfg.retryWaitMin > 0 {
		rc.RetryWaitMin = cfg.retryWaitMin
		rc.RetryWaitMax = cfg.retryWaitMin
	}
	// Hand the final response back so the SDK can decode the API error body
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	rc.Logger = logger

	client := rc.StandardClient()
	client.Timeout = cfg.Timeout
	return client
}

func float32Ptr(v *float64) *float32 {
	if v == nil {
		return nil
	}
	f := float32(*v)
	return &f
}
