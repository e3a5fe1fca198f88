// Package output delivers generated text to stdout or a file and renders
// failures for the terminal.
package output

import (
	"fmt"
	"io"
	"os"

	"github.com/oraportal/claude-api/internal/errors"
)

// Writer routes results to Out and diagnostics to Err
type Writer struct {
	Out io.Writer
	Err io.Writer
}

// Result prints text followed by a newline, or writes it verbatim to path and
// prints a confirmation line instead.
func (w *Writer) Result(text, path string) error {
	if path == "" {
		_, err := fmt.Fprintln(w.Out, text)
		return err
	}

	if err := os.WriteFile(path, []byte(text), 0644); err != nil {
		return errors.FileIOError(err, path)
	}
	_, err := fmt.Fprintf(w.Out, "✅ Output written to %s\n", path)
	return err
}

// Error prints err on Err. Missing inputs use the plain usage form; every
// other failure gets the ❌ marker.
func (w *Writer) Error(err error) {
	if err == nil {
		return
	}

	if errors.IsMissingInput(err) {
		fmt.Fprintf(w.Err, "Error: %s\n", err)
		return
	}
	fmt.Fprintf(w.Err, "❌ Error: %s\n", err)
}
