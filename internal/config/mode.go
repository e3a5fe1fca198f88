package config

import (
	"os"
	"strings"
)

// DeploymentMode represents the context the helper runs in
type DeploymentMode string

const (
	// ModeDevelopment - running from a checkout with a .env file or go.mod
	ModeDevelopment DeploymentMode = "development"

	// ModePackaged - installed binary on a workstation; interactive prompts allowed
	ModePackaged DeploymentMode = "packaged"

	// ModeCI - workflow runner: credentials from env only, JSON logs, no prompts
	ModeCI DeploymentMode = "ci"
)

// DetectMode determines the deployment context based on environment
func DetectMode() DeploymentMode {
	if mode := os.Getenv("CLAUDE_API_MODE"); mode != "" {
		switch strings.ToLower(mode) {
		case "development", "dev":
			return ModeDevelopment
		case "packaged", "pkg", "production", "prod":
			return ModePackaged
		case "ci", "cicd":
			return ModeCI
		}
	}

	if isCI() {
		return ModeCI
	}

	if _, err := os.Stat(".env"); err == nil {
		return ModeDevelopment
	}
	if _, err := os.Stat("go.mod"); err == nil {
		return ModeDevelopment
	}

	return ModePackaged
}

// isCI detects if running in a CI/CD environment
func isCI() bool {
	ciEnvVars := []string{
		"CI",
		"CONTINUOUS_INTEGRATION",
		"GITHUB_ACTIONS",
		"GITLAB_CI",
		"CIRCLECI",
		"BUILDKITE",
		"JENKINS_URL",
		"TF_BUILD",
	}

	for _, envVar := range ciEnvVars {
		if os.Getenv(envVar) != "" {
			return true
		}
	}

	return false
}

// AllowsInteractivePrompts reports whether the helper may read from a terminal
func (m DeploymentMode) AllowsInteractivePrompts() bool {
	return m != ModeCI
}

// String returns the string representation of the mode
func (m DeploymentMode) String() string {
	return string(m)
}
