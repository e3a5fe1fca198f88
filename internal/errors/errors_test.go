package errors

import (
	stderrors "errors"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindMatching(t *testing.T) {
	err := MissingInput("--issue-title and --issue-body required for spec generation")
	wrapped := fmt.Errorf("spec: %w", err)

	assert.True(t, stderrors.Is(wrapped, MissingInputKind))
	assert.False(t, stderrors.Is(wrapped, ConfigurationKind))
	assert.True(t, IsMissingInput(wrapped))
	assert.Equal(t, KindMissingInput, GetKind(wrapped))
}

func TestWrapKeepsCause(t *testing.T) {
	err := FileIOError(os.ErrNotExist, "diff.txt")

	assert.True(t, stderrors.Is(err, os.ErrNotExist))
	assert.True(t, stderrors.Is(err, FileIOKind))
	assert.Equal(t, "failed to access diff.txt: file does not exist", err.Error())
	assert.Equal(t, "diff.txt", err.Context["path"])
}

func TestWrapNil(t *testing.T) {
	assert.Nil(t, Wrap(nil, KindService, "ignored"))
}

func TestGetKindPlainError(t *testing.T) {
	assert.Equal(t, KindInternal, GetKind(stderrors.New("boom")))
}

func TestKindString(t *testing.T) {
	tests := []struct {
		kind     Kind
		expected string
	}{
		{KindConfiguration, "ConfigurationError"},
		{KindMissingInput, "MissingInput"},
		{KindFileIO, "FileIOError"},
		{KindMalformedReport, "MalformedReport"},
		{KindService, "ServiceError"},
		{KindInternal, "InternalError"},
		{Kind(99), "UnknownError"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.kind.String())
		})
	}
}

func TestDetailedString(t *testing.T) {
	err := ServiceError(stderrors.New("503"), "anthropic request failed").
		WithContext("model", "claude-3-5-sonnet-20241022").
		WithContext("attempt", 1)

	got := err.DetailedString()
	assert.Contains(t, got, "[ServiceError] anthropic request failed")
	assert.Contains(t, got, "Caused by: 503")
	assert.Contains(t, got, "  attempt: 1\n  model: claude-3-5-sonnet-20241022\n")
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, ExitCode(nil))
	assert.Equal(t, 1, ExitCode(ConfigError("CLAUDE_API_KEY environment variable not set")))
	assert.Equal(t, 1, ExitCode(stderrors.New("anything")))
}
