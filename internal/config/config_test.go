package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func clearOverrides(t *testing.T) {
	t.Helper()
	for _, key := range []string{"LLM_PROVIDER", "CLAUDE_MODEL", "GITHUB_TOKEN", "GH_TOKEN", "GITHUB_RATE_LIMIT", "GITHUB_API_URL", "CLAUDE_API_LOG_FILE", "CLAUDE_API_API_MODEL"} {
		t.Setenv(key, "")
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, ProviderAnthropic, cfg.API.Provider)
	assert.Equal(t, "claude-3-5-sonnet-20241022", cfg.API.Model)
	assert.Equal(t, 4096, cfg.Tokens.Spec)
	assert.Equal(t, 2048, cfg.Tokens.TestAnalysis)
	assert.Equal(t, 2048, cfg.Tokens.PRReview)
	assert.Zero(t, cfg.API.MaxRetries, "no retry unless configured")
	assert.Zero(t, cfg.API.Timeout, "client default timeout unless configured")
	assert.False(t, cfg.API.UseStoredCredentials)
	require.NoError(t, cfg.Validate())
}

func TestLoad_FromFile(t *testing.T) {
	clearOverrides(t)
	path := writeConfig(t, `
api:
  model: claude-3-5-haiku-20241022
  timeout: 45s
  max_retries: 2
  use_stored_credentials: true
tokens:
  pr_review: 1024
github:
  rate_limit: 3
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ProviderAnthropic, cfg.API.Provider)
	assert.Equal(t, "claude-3-5-haiku-20241022", cfg.API.Model)
	assert.Equal(t, 45*time.Second, cfg.API.Timeout)
	assert.Equal(t, 2, cfg.API.MaxRetries)
	assert.True(t, cfg.API.UseStoredCredentials)
	assert.Equal(t, 4096, cfg.Tokens.Spec)
	assert.Equal(t, 1024, cfg.Tokens.PRReview)
	assert.Equal(t, 3, cfg.GitHub.RateLimit)
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearOverrides(t)
	t.Setenv("LLM_PROVIDER", "OpenAI")
	t.Setenv("CLAUDE_MODEL", "gpt-4o-mini")
	t.Setenv("GITHUB_TOKEN", "ghp_test")
	t.Setenv("GITHUB_RATE_LIMIT", "5")

	cfg, err := Load(writeConfig(t, "api:\n  provider: anthropic\n"))
	require.NoError(t, err)

	assert.Equal(t, ProviderOpenAI, cfg.API.Provider)
	assert.Equal(t, "gpt-4o-mini", cfg.API.Model)
	assert.Equal(t, "ghp_test", cfg.GitHub.Token)
	assert.Equal(t, 5, cfg.GitHub.RateLimit)
}

func TestLoad_PrefixedEnv(t *testing.T) {
	clearOverrides(t)
	t.Setenv("CLAUDE_API_API_MODEL", "claude-3-opus-20240229")

	cfg, err := Load(writeConfig(t, "api:\n  model: ignored\n"))
	require.NoError(t, err)
	assert.Equal(t, "claude-3-opus-20240229", cfg.API.Model)
}

func TestLoad_InvalidFile(t *testing.T) {
	clearOverrides(t)
	_, err := Load(writeConfig(t, "api: [unterminated"))
	assert.Error(t, err)
}

func TestLoad_UnsupportedProvider(t *testing.T) {
	clearOverrides(t)
	_, err := Load(writeConfig(t, "api:\n  provider: ollama\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported provider")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"gemini", func(c *Config) { c.API.Provider = ProviderGemini }, false},
		{"negative retries", func(c *Config) { c.API.MaxRetries = -1 }, true},
		{"negative timeout", func(c *Config) { c.API.Timeout = -time.Second }, true},
		{"zero tokens", func(c *Config) { c.Tokens.Spec = 0 }, true},
		{"unknown provider", func(c *Config) { c.API.Provider = "" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestModelFor(t *testing.T) {
	cfg := Default()
	assert.Equal(t, DefaultModel, cfg.ModelFor(ProviderAnthropic))
	assert.Equal(t, "gpt-4o", cfg.ModelFor(ProviderOpenAI))
	assert.Equal(t, "gemini-2.0-flash", cfg.ModelFor(ProviderGemini))

	cfg.API.Model = "gemini-1.5-pro"
	assert.Equal(t, "gemini-1.5-pro", cfg.ModelFor(ProviderGemini))
}

func TestSave_RoundTrip(t *testing.T) {
	clearOverrides(t)
	cfg := Default()
	cfg.API.Timeout = 2 * time.Minute
	cfg.API.MaxRetries = 1
	cfg.Tokens.Spec = 3000

	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2*time.Minute, loaded.API.Timeout)
	assert.Equal(t, 1, loaded.API.MaxRetries)
	assert.Equal(t, 3000, loaded.Tokens.Spec)
}
