package diffstat

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sourcegraph/go-diff/diff"
)

// ErrNoFiles is returned when the input contains no file diffs
var ErrNoFiles = errors.New("no file diffs found")

// FileStat is the line delta for a single file
type FileStat struct {
	Path    string
	Added   int
	Deleted int
}

// Summary is the per-file overview of a unified diff
type Summary struct {
	Files []FileStat
}

// Summarize parses a multi-file unified diff (git diff output)
func Summarize(raw string) (Summary, error) {
	fileDiffs, err := diff.ParseMultiFileDiff([]byte(raw))
	if err != nil {
		return Summary{}, fmt.Errorf("parse diff: %w", err)
	}
	if len(fileDiffs) == 0 {
		return Summary{}, ErrNoFiles
	}

	summary := Summary{Files: make([]FileStat, 0, len(fileDiffs))}
	for _, fd := range fileDiffs {
		stat := fd.Stat()
		// go-diff folds adjacent -/+ pairs into Changed
		summary.Files = append(summary.Files, FileStat{
			Path:    filePath(fd),
			Added:   int(stat.Added + stat.Changed),
			Deleted: int(stat.Deleted + stat.Changed),
		})
	}

	return summary, nil
}

func filePath(fd *diff.FileDiff) string {
	name := fd.NewName
	if name == "" || name == "/dev/null" {
		name = fd.OrigName
	}
	for _, prefix := range []string{"a/", "b/"} {
		if strings.HasPrefix(name, prefix) {
			return strings.TrimPrefix(name, prefix)
		}
	}
	return name
}

// Totals returns the summed added and deleted line counts
func (s Summary) Totals() (added, deleted int) {
	for _, f := range s.Files {
		added += f.Added
		deleted += f.Deleted
	}
	return added, deleted
}

// Markdown renders a bullet list followed by a totals line
func (s Summary) Markdown() string {
	var sb strings.Builder
	for _, f := range s.Files {
		fmt.Fprintf(&sb, "- `%s` (+%d -%d)\n", f.Path, f.Added, f.Deleted)
	}

	added, deleted := s.Totals()
	noun := "files"
	if len(s.Files) == 1 {
		noun = "file"
	}
	fmt.Fprintf(&sb, "\n%d %s changed, +%d -%d\n", len(s.Files), noun, added, deleted)
	return sb.String()
}
