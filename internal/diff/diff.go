// Package diff compares a freshly generated report with the copy already
// on disk, so that dataset or filter changes can be reviewed before the
// report is overwritten.
package diff

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// Result is a unified diff between two report versions.
type Result struct {
	Unified  string
	Changed  bool
	Hunks    []string
	OldLabel string
	NewLabel string
	// Added and Removed count changed lines, headers excluded.
	Added   int
	Removed int
}

// Options configures the diff.
type Options struct {
	OldLabel string
	NewLabel string
	Context  int
}

// DefaultOptions labels the sides "current" and "generated" with three
// lines of context.
func DefaultOptions() Options {
	return Options{
		OldLabel: "current",
		NewLabel: "generated",
		Context:  3,
	}
}

// Compute returns the unified diff of two documents.
func Compute(oldDoc, newDoc string, opts Options) (*Result, error) {
	ud := difflib.UnifiedDiff{
		A:        splitLines(oldDoc),
		B:        splitLines(newDoc),
		FromFile: opts.OldLabel,
		ToFile:   opts.NewLabel,
		Context:  opts.Context,
	}

	unified, err := difflib.GetUnifiedDiffString(ud)
	if err != nil {
		return nil, fmt.Errorf("computing diff: %w", err)
	}

	r := &Result{
		Unified:  unified,
		Changed:  unified != "",
		OldLabel: opts.OldLabel,
		NewLabel: opts.NewLabel,
	}

	if r.Changed {
		r.Hunks = hunks(unified)
		r.Added, r.Removed = count(unified)
	}

	return r, nil
}

// Against diffs generated against the file at path. A missing file counts
// as empty, so every generated line shows as added. When opts has no
// OldLabel the path is used.
func Against(path string, generated []byte, opts Options) (*Result, error) {
	current, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	if opts.OldLabel == "" {
		opts.OldLabel = path
	}

	return Compute(string(current), string(generated), opts)
}

// Summary returns a one-line change count.
func (r *Result) Summary() string {
	if !r.Changed {
		return "no changes"
	}

	return fmt.Sprintf("+%d -%d in %d hunk(s)", r.Added, r.Removed, len(r.Hunks))
}

func hunks(unified string) []string {
	var (
		out     []string
		current strings.Builder
	)

	inHunk := false

	for _, line := range strings.Split(strings.TrimSuffix(unified, "\n"), "\n") {
		if strings.HasPrefix(line, "@@") {
			if current.Len() > 0 {
				out = append(out, current.String())
				current.Reset()
			}

			inHunk = true
		}

		if !inHunk {
			continue
		}

		current.WriteString(line)
		current.WriteString("\n")
	}

	if current.Len() > 0 {
		out = append(out, current.String())
	}

	return out
}

func count(unified string) (added, removed int) {
	for _, line := range strings.Split(unified, "\n") {
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
		case strings.HasPrefix(line, "+"):
			added++
		case strings.HasPrefix(line, "-"):
			removed++
		}
	}

	return added, removed
}

// Write prints r, colored with ANSI escapes when color is set.
func Write(w io.Writer, r *Result, color bool) {
	if !r.Changed {
		_, _ = fmt.Fprintf(w, "%s is up to date.\n", r.OldLabel)
		return
	}

	for _, line := range strings.Split(strings.TrimSuffix(r.Unified, "\n"), "\n") {
		if !color {
			_, _ = fmt.Fprintln(w, line)
			continue
		}

		_, _ = fmt.Fprintln(w, colorize(line))
	}
}

func colorize(line string) string {
	const (
		red   = "\033[31m"
		green = "\033[32m"
		cyan  = "\033[36m"
		bold  = "\033[1m"
		reset = "\033[0m"
	)

	switch {
	case strings.HasPrefix(line, "---"), strings.HasPrefix(line, "+++"):
		return bold + line + reset
	case strings.HasPrefix(line, "@@"):
		return cyan + line + reset
	case strings.HasPrefix(line, "-"):
		return red + line + reset
	case strings.HasPrefix(line, "+"):
		return green + line + reset
	default:
		return line
	}
}

// splitLines keeps line endings, as difflib expects.
func splitLines(s string) []string {
	lines := strings.SplitAfter(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}

	return lines
}
