package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/oraportal/claude-api/internal/errors"
	"gopkg.in/yaml.v3"
)

// Key sources reported by ResolveAPIKey
const (
	SourceFlag     = "flag"
	SourceEnv      = "env"
	SourceKeychain = "keychain"
	SourceFile     = "credentials_file"
)

// EnvVarFor returns the environment variable holding a provider's API key
func EnvVarFor(provider string) string {
	switch provider {
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	case ProviderGemini:
		return "GEMINI_API_KEY"
	default:
		return "CLAUDE_API_KEY"
	}
}

// Credentials is the fallback on-disk store used when no keychain is available
type Credentials struct {
	AnthropicAPIKey string `yaml:"anthropic_api_key,omitempty"`
	OpenAIAPIKey    string `yaml:"openai_api_key,omitempty"`
	GeminiAPIKey    string `yaml:"gemini_api_key,omitempty"`
}

func (c *Credentials) get(provider string) string {
	switch provider {
	case ProviderOpenAI:
		return c.OpenAIAPIKey
	case ProviderGemini:
		return c.GeminiAPIKey
	default:
		return c.AnthropicAPIKey
	}
}

func (c *Credentials) set(provider, key string) {
	switch provider {
	case ProviderOpenAI:
		c.OpenAIAPIKey = key
	case ProviderGemini:
		c.GeminiAPIKey = key
	default:
		c.AnthropicAPIKey = key
	}
}

// CredentialManager resolves API keys with a fixed priority chain:
// explicit override → environment → (opt-in) keychain → (opt-in) credentials file
type CredentialManager struct {
	keyring    *KeyringManager
	configPath string
	useStored  bool
	lookupEnv  func(string) string
}

// NewCredentialManager creates a credential manager; useStored enables the
// keychain and credentials-file lookups
func NewCredentialManager(useStored bool) *CredentialManager {
	homeDir, _ := os.UserHomeDir()
	return &CredentialManager{
		keyring:    NewKeyringManager(),
		configPath: filepath.Join(homeDir, ".config", "claude-api", "credentials.yaml"),
		useStored:  useStored,
		lookupEnv:  os.Getenv,
	}
}

// WithConfigPath overrides the credentials file location
func (cm *CredentialManager) WithConfigPath(path string) *CredentialManager {
	cm.configPath = path
	return cm
}

// ResolveAPIKey returns the key and where it came from, or a configuration
// error naming the environment variable to set
func (cm *CredentialManager) ResolveAPIKey(provider, override string) (string, string, error) {
	if override != "" {
		return override, SourceFlag, nil
	}

	envVar := EnvVarFor(provider)
	if key := cm.lookupEnv(envVar); key != "" {
		return key, SourceEnv, nil
	}

	if cm.useStored {
		if cm.keyring.IsAvailable() {
			if key, err := cm.keyring.GetAPIKey(provider); err == nil && key != "" {
				return key, SourceKeychain, nil
			}
		}
		if creds, err := cm.loadConfigFile(); err == nil {
			if key := creds.get(provider); key != "" {
				return key, SourceFile, nil
			}
		}
	}

	return "", "", errors.ConfigErrorf("%s environment variable not set", envVar).
		WithContext("provider", provider)
}

// SaveAPIKey stores the key in the keychain when available, else in the
// credentials file with 0600 permissions. Returns the store used.
func (cm *CredentialManager) SaveAPIKey(provider, key string) (string, error) {
	if key == "" {
		return "", errors.MissingInput("api key cannot be empty")
	}

	if cm.keyring.IsAvailable() {
		if err := cm.keyring.SaveAPIKey(provider, key); err == nil {
			return SourceKeychain, nil
		}
	}

	creds, err := cm.loadConfigFile()
	if err != nil {
		creds = &Credentials{}
	}
	creds.set(provider, key)
	if err := cm.saveConfigFile(creds); err != nil {
		return "", errors.FileIOError(err, cm.configPath)
	}
	return SourceFile, nil
}

// ConfigPath returns the credentials file location
func (cm *CredentialManager) ConfigPath() string {
	return cm.configPath
}

func (cm *CredentialManager) loadConfigFile() (*Credentials, error) {
	data, err := os.ReadFile(cm.configPath)
	if err != nil {
		return nil, err
	}

	var creds Credentials
	if err := yaml.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("parse %s: %w", cm.configPath, err)
	}

	return &creds, nil
}

func (cm *CredentialManager) saveConfigFile(creds *Credentials) error {
	if err := os.MkdirAll(filepath.Dir(cm.configPath), 0700); err != nil {
		return err
	}

	data, err := yaml.Marshal(creds)
	if err != nil {
		return err
	}

	return os.WriteFile(cm.configPath, data, 0600)
}
