package watch

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
)

// RunFunc generates the report once.
type RunFunc func(ctx context.Context) (*RunResult, error)

// RunResult summarizes one generation.
type RunResult struct {
	// Entries is the number of top-level report entries.
	Entries int

	// OutputPath is where the report was written; empty for stdout.
	OutputPath string

	// Changes summarizes the difference to the previous generation, for
	// example "+3 -1 in 2 hunk(s)". Empty on the first run.
	Changes string
}

// Options configures a watch session.
type Options struct {
	// Files are watched individually, typically the filter file and the
	// files it imports.
	Files []string

	// Dirs are watched recursively, typically the dataset directories.
	Dirs []string

	// Debounce is the quiet period before a regeneration.
	Debounce time.Duration

	// Logger receives watcher errors.
	Logger *slog.Logger

	// Out receives one status line per generation.
	Out io.Writer
}

// DefaultOptions returns the options of the watch command.
func DefaultOptions() Options {
	return Options{
		Debounce: 500 * time.Millisecond,
		Logger:   slog.Default(),
		Out:      os.Stderr,
	}
}

// Run generates the report once, then again after every relevant change,
// until ctx is cancelled or SIGINT/SIGTERM arrives.
func Run(ctx context.Context, opts Options, runFn RunFunc) error {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	if opts.Out == nil {
		opts.Out = io.Discard
	}

	if len(opts.Files) == 0 && len(opts.Dirs) == 0 {
		return fmt.Errorf("nothing to watch")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	for _, dir := range opts.Dirs {
		if err := addRecursive(watcher, dir); err != nil {
			return fmt.Errorf("watching directory %q: %w", dir, err)
		}
	}

	for _, f := range opts.Files {
		abs, err := filepath.Abs(f)
		if err != nil {
			return fmt.Errorf("resolving %q: %w", f, err)
		}

		if err := watcher.Add(abs); err != nil {
			return fmt.Errorf("watching file %q: %w", abs, err)
		}
	}

	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	_, _ = fmt.Fprintf(opts.Out, "watching %d file(s) and %d directory(ies) (debounce=%s)\n",
		len(opts.Files), len(opts.Dirs), opts.Debounce)

	generate(sigCtx, opts, runFn, []string{"(initial)"})

	debouncer := NewDebouncer(opts.Debounce, func(paths []string) {
		generate(sigCtx, opts, runFn, paths)
	})
	defer debouncer.Stop()

	for {
		select {
		case <-sigCtx.Done():
			_, _ = fmt.Fprintln(opts.Out, "stopping watcher")
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			if !isRelevant(event) {
				continue
			}

			if event.Has(fsnotify.Create) {
				if info, statErr := os.Stat(event.Name); statErr == nil && info.IsDir() {
					_ = addRecursive(watcher, event.Name)
				}
			}

			debouncer.Trigger(event.Name)

		case watchErr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}

			opts.Logger.Error("watcher error", slog.String("error", watchErr.Error()))
		}
	}
}

func generate(ctx context.Context, opts Options, runFn RunFunc, trigger []string) {
	now := time.Now().Format("15:04:05")
	cause := strings.Join(trigger, ", ")

	result, err := runFn(ctx)
	if err != nil {
		_, _ = fmt.Fprintf(opts.Out, "[%s] %s: ERROR: %v\n", now, cause, err)
		return
	}

	dest := result.OutputPath
	if dest == "" {
		dest = "stdout"
	}

	_, _ = fmt.Fprintf(opts.Out, "[%s] %s: OK (%d entries -> %s)\n", now, cause, result.Entries, dest)

	if result.Changes != "" {
		_, _ = fmt.Fprintf(opts.Out, "  changes: %s\n", result.Changes)
	}
}

func addRecursive(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if !d.IsDir() {
			return nil
		}

		if strings.HasPrefix(d.Name(), ".") && path != root {
			return filepath.SkipDir
		}

		return watcher.Add(path)
	})
}

// relevantExt are the extensions of filter, dataset and line-list files.
var relevantExt = map[string]bool{
	".json": true,
	".yml":  true,
	".yaml": true,
	".txt":  true,
}

func isRelevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}

	name := filepath.Base(event.Name)

	if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "#") ||
		strings.HasSuffix(name, "~") || strings.HasSuffix(name, ".swp") {
		return false
	}

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			return true
		}
	}

	return relevantExt[strings.ToLower(filepath.Ext(name))]
}
