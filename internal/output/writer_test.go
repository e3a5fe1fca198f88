package output

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/oraportal/claude-api/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWriter() (*Writer, *bytes.Buffer, *bytes.Buffer) {
	var out, errOut bytes.Buffer
	return &Writer{Out: &out, Err: &errOut}, &out, &errOut
}

func TestResult_Stdout(t *testing.T) {
	w, out, errOut := newTestWriter()

	require.NoError(t, w.Result("# Spec\n\nbody", ""))
	assert.Equal(t, "# Spec\n\nbody\n", out.String())
	assert.Empty(t, errOut.String())
}

func TestResult_File(t *testing.T) {
	w, out, _ := newTestWriter()
	path := filepath.Join(t.TempDir(), "spec.md")

	require.NoError(t, w.Result("OK", path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "OK", string(data))
	assert.Equal(t, fmt.Sprintf("✅ Output written to %s\n", path), out.String())
}

func TestResult_FileOverwrites(t *testing.T) {
	w, _, _ := newTestWriter()
	path := filepath.Join(t.TempDir(), "review.md")
	require.NoError(t, os.WriteFile(path, []byte("previous contents that are longer"), 0644))

	require.NoError(t, w.Result("new", path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))
}

func TestResult_FileError(t *testing.T) {
	w, out, _ := newTestWriter()
	path := filepath.Join(t.TempDir(), "missing-dir", "out.md")

	err := w.Result("OK", path)
	require.Error(t, err)
	assert.Equal(t, errors.KindFileIO, errors.GetKind(err))
	assert.Empty(t, out.String())
}

func TestError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"missing input", errors.MissingInput("--test-report required for test analysis"), "Error: --test-report required for test analysis\n"},
		{"configuration", errors.ConfigError("CLAUDE_API_KEY environment variable not set"), "❌ Error: CLAUDE_API_KEY environment variable not set\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, out, errOut := newTestWriter()
			w.Error(tt.err)
			assert.Equal(t, tt.want, errOut.String())
			assert.Empty(t, out.String())
		})
	}
}
