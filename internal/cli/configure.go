package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/oraportal/claude-api/internal/config"
	"github.com/oraportal/claude-api/internal/errors"
	"github.com/pkg/browser"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// Console pages where each provider issues API keys
var keyConsoleURLs = map[string]string{
	config.ProviderAnthropic: "https://console.anthropic.com/settings/keys",
	config.ProviderOpenAI:    "https://platform.openai.com/api-keys",
	config.ProviderGemini:    "https://aistudio.google.com/app/apikey",
}

func (a *app) configureCommand() *cobra.Command {
	var openConsole bool

	cmd := &cobra.Command{
		Use:   "configure",
		Short: "Store an API key in the OS keychain (or a 0600 credentials file)",
		Long: `Store the provider API key for workstation use.

The key is saved to the OS keychain when one is available, otherwise to
~/.config/claude-api/credentials.yaml with 0600 permissions. The config file
is updated with api.use_stored_credentials: true so later runs find it.

CI runs should keep using the CLAUDE_API_KEY environment variable.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runConfigure(cmd, openConsole)
		},
	}
	cmd.Flags().BoolVar(&openConsole, "open", false, "open the provider's API key page in a browser")

	return cmd
}

func (a *app) runConfigure(cmd *cobra.Command, openConsole bool) error {
	w := cmd.OutOrStdout()
	provider := a.cfg.API.Provider

	key := a.flags.apiKey
	if key == "" {
		if !a.mode.AllowsInteractivePrompts() {
			return errors.ConfigError("configure cannot prompt in CI; pass --api-key or set " + config.EnvVarFor(provider))
		}

		if openConsole {
			if url, ok := keyConsoleURLs[provider]; ok {
				fmt.Fprintf(w, "🔐 Opening %s\n", url)
				if err := browser.OpenURL(url); err != nil {
					fmt.Fprintf(w, "⚠️  Could not open browser automatically. Please visit the URL above.\n")
				}
			}
		}

		fmt.Fprintf(w, "Enter %s API key: ", provider)
		var err error
		key, err = readSecret(a.opts.Stdin)
		fmt.Fprintln(w)
		if err != nil {
			return errors.Wrap(err, errors.KindMissingInput, "failed to read API key")
		}
	}

	creds := config.NewCredentialManager(true)
	store, err := creds.SaveAPIKey(provider, key)
	if err != nil {
		return err
	}

	switch store {
	case config.SourceKeychain:
		fmt.Fprintf(w, "✅ API key %s saved to OS keychain\n", config.MaskAPIKey(key))
	default:
		fmt.Fprintf(w, "✅ API key %s saved to %s\n", config.MaskAPIKey(key), creds.ConfigPath())
	}

	configPath := a.flags.configFile
	if configPath == "" {
		homeDir, _ := os.UserHomeDir()
		configPath = filepath.Join(homeDir, ".claude-api", "config.yaml")
	}
	a.cfg.API.UseStoredCredentials = true
	if err := a.cfg.Save(configPath); err != nil {
		return errors.FileIOError(err, configPath)
	}
	fmt.Fprintf(w, "✅ Configuration saved to %s\n", configPath)

	return nil
}

// readSecret reads a line without echo when r is a terminal
func readSecret(r io.Reader) (string, error) {
	if f, ok := r.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		secret, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(secret)), nil
	}

	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
