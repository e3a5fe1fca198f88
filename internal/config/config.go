package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/oraportal/claude-api/internal/errors"
	"github.com/spf13/viper"
)

// Provider names accepted in api.provider
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderGemini    = "gemini"
)

// DefaultModel is the model used when none is configured
const DefaultModel = "claude-3-5-sonnet-20241022"

// Config holds all configuration settings
type Config struct {
	// Text-generation service
	API APIConfig `mapstructure:"api" yaml:"api"`

	// Max output tokens per command
	Tokens TokenConfig `mapstructure:"tokens" yaml:"tokens"`

	// Optional GitHub source for issue and PR inputs
	GitHub GitHubConfig `mapstructure:"github" yaml:"github"`

	// Log output
	Log LogConfig `mapstructure:"log" yaml:"log"`
}

type APIConfig struct {
	Provider string `mapstructure:"provider" yaml:"provider"` // "anthropic", "openai", "gemini"
	Model    string `mapstructure:"model" yaml:"model"`
	BaseURL  string `mapstructure:"base_url" yaml:"base_url"`
	// Zero keeps the client's default timeout
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
	// Zero means a single attempt
	MaxRetries int `mapstructure:"max_retries" yaml:"max_retries"`
	// Consult the OS keychain and the credentials file after flags and env
	UseStoredCredentials bool `mapstructure:"use_stored_credentials" yaml:"use_stored_credentials"`
}

type TokenConfig struct {
	Spec         int `mapstructure:"spec" yaml:"spec"`
	TestAnalysis int `mapstructure:"test_analysis" yaml:"test_analysis"`
	PRReview     int `mapstructure:"pr_review" yaml:"pr_review"`
}

type GitHubConfig struct {
	Token     string `mapstructure:"token" yaml:"token"`
	RateLimit int    `mapstructure:"rate_limit" yaml:"rate_limit"` // Requests per second
	BaseURL   string `mapstructure:"base_url" yaml:"base_url"`     // GitHub Enterprise API root
}

type LogConfig struct {
	File string `mapstructure:"file" yaml:"file"`
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		API: APIConfig{
			Provider: ProviderAnthropic,
			Model:    DefaultModel,
		},
		Tokens: TokenConfig{
			Spec:         4096,
			TestAnalysis: 2048,
			PRReview:     2048,
		},
		GitHub: GitHubConfig{
			RateLimit: 10,
		},
	}
}

// Load loads configuration from file, .env files and the environment.
// A missing config file is not an error.
func Load(path string) (*Config, error) {
	loadEnvFiles()

	v := viper.New()
	v.SetConfigType("yaml")

	cfg := Default()
	v.SetDefault("api.provider", cfg.API.Provider)
	v.SetDefault("api.model", cfg.API.Model)
	v.SetDefault("api.base_url", cfg.API.BaseURL)
	v.SetDefault("api.timeout", cfg.API.Timeout)
	v.SetDefault("api.max_retries", cfg.API.MaxRetries)
	v.SetDefault("api.use_stored_credentials", cfg.API.UseStoredCredentials)
	v.SetDefault("tokens.spec", cfg.Tokens.Spec)
	v.SetDefault("tokens.test_analysis", cfg.Tokens.TestAnalysis)
	v.SetDefault("tokens.pr_review", cfg.Tokens.PRReview)
	v.SetDefault("github.token", cfg.GitHub.Token)
	v.SetDefault("github.rate_limit", cfg.GitHub.RateLimit)
	v.SetDefault("github.base_url", cfg.GitHub.BaseURL)
	v.SetDefault("log.file", cfg.Log.File)

	// CLAUDE_API_API_MODEL, CLAUDE_API_TOKENS_SPEC, ...
	v.SetEnvPrefix("CLAUDE_API")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".claude-api")
		v.AddConfigPath(".")
		if homeDir, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(homeDir, ".claude-api"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate rejects values no command could run with
func (c *Config) Validate() error {
	switch c.API.Provider {
	case ProviderAnthropic, ProviderOpenAI, ProviderGemini:
	default:
		return errors.ConfigErrorf("unsupported provider %q (expected anthropic, openai or gemini)", c.API.Provider)
	}
	if c.API.MaxRetries < 0 {
		return errors.ConfigErrorf("api.max_retries must be >= 0, got %d", c.API.MaxRetries)
	}
	if c.API.Timeout < 0 {
		return errors.ConfigErrorf("api.timeout must be >= 0, got %s", c.API.Timeout)
	}
	if c.Tokens.Spec <= 0 || c.Tokens.TestAnalysis <= 0 || c.Tokens.PRReview <= 0 {
		return errors.ConfigErrorf("token limits must be positive")
	}
	return nil
}

// loadEnvFiles loads .env files; values already in the environment win
func loadEnvFiles() {
	for _, file := range []string{".env.local", ".env"} {
		if _, err := os.Stat(file); err == nil {
			_ = godotenv.Load(file)
		}
	}

	if homeDir, err := os.UserHomeDir(); err == nil {
		homeEnvFile := filepath.Join(homeDir, ".claude-api", ".env")
		if _, err := os.Stat(homeEnvFile); err == nil {
			_ = godotenv.Load(homeEnvFile)
		}
	}
}

// applyEnvOverrides applies the unprefixed variables CI workflows commonly export
func applyEnvOverrides(cfg *Config) {
	if provider := os.Getenv("LLM_PROVIDER"); provider != "" {
		cfg.API.Provider = strings.ToLower(provider)
	}
	if model := os.Getenv("CLAUDE_MODEL"); model != "" {
		cfg.API.Model = model
	}

	for _, envVar := range []string{"GITHUB_TOKEN", "GH_TOKEN"} {
		if token := os.Getenv(envVar); token != "" {
			cfg.GitHub.Token = token
			break
		}
	}
	if rateLimit := os.Getenv("GITHUB_RATE_LIMIT"); rateLimit != "" {
		if rate, err := strconv.Atoi(rateLimit); err == nil {
			cfg.GitHub.RateLimit = rate
		}
	}
	if url := os.Getenv("GITHUB_API_URL"); url != "" && cfg.GitHub.BaseURL == "" {
		cfg.GitHub.BaseURL = url
	}

	if path := os.Getenv("CLAUDE_API_LOG_FILE"); path != "" {
		cfg.Log.File = expandPath(path)
	}
}

// ModelFor returns the configured model, or the provider's default when the
// configured model belongs to another provider's family
func (c *Config) ModelFor(provider string) string {
	model := c.API.Model
	switch provider {
	case ProviderOpenAI:
		if model == "" || model == DefaultModel {
			return "gpt-4o"
		}
	case ProviderGemini:
		if model == "" || model == DefaultModel {
			return "gemini-2.0-flash"
		}
	default:
		if model == "" {
			return DefaultModel
		}
	}
	return model
}

// expandPath expands ~ to home directory
func expandPath(path string) string {
	if path == "" {
		return path
	}
	if path[0] == '~' {
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, path[1:])
	}
	return path
}

// Save writes the configuration as YAML
func (c *Config) Save(path string) error {
	v := viper.New()
	v.SetConfigType("yaml")

	v.Set("api", map[string]any{
		"provider":               c.API.Provider,
		"model":                  c.API.Model,
		"base_url":               c.API.BaseURL,
		"timeout":                c.API.Timeout.String(),
		"max_retries":            c.API.MaxRetries,
		"use_stored_credentials": c.API.UseStoredCredentials,
	})
	v.Set("tokens", map[string]any{
		"spec":          c.Tokens.Spec,
		"test_analysis": c.Tokens.TestAnalysis,
		"pr_review":     c.Tokens.PRReview,
	})
	v.Set("github", map[string]any{
		"rate_limit": c.GitHub.RateLimit,
		"base_url":   c.GitHub.BaseURL,
	})
	v.Set("log", map[string]any{
		"file": c.Log.File,
	})

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}
