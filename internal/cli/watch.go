package cli

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/hupe1980/dinofilter/internal/config"
	"github.com/hupe1980/dinofilter/internal/diff"
	"github.com/hupe1980/dinofilter/internal/logging"
	"github.com/hupe1980/dinofilter/internal/species"
	"github.com/hupe1980/dinofilter/internal/watch"
)

type watchOptions struct {
	reportOptions

	debounce time.Duration
}

func newWatchCommand() *cobra.Command {
	opts := &watchOptions{}

	cmd := &cobra.Command{
		Use:   "watch <report>",
		Short: "Regenerate a report when its filter or dataset changes",
		Long: `Watch generates a report, then watches the filter files (including
imported ones) and the dataset directories and generates the report again
after every change. Bursts of changes are debounced.

Each generation prints one status line with the number of entries and,
from the second generation on, how much the output changed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.captureChanged(cmd)
			return exitError(runWatch(cmd.Context(), cmd, args[0], opts))
		},
	}

	registerReportFlags(cmd, &opts.reportOptions)
	cmd.Flags().DurationVar(&opts.debounce, "debounce", 500*time.Millisecond, "quiet period before regenerating")

	return cmd
}

func runWatch(ctx context.Context, cmd *cobra.Command, name string, opts *watchOptions) error {
	kind, err := findReport(name)
	if err != nil {
		return err
	}

	filters, _, _ := resolve(ctx, kind, &opts.reportOptions)

	flt, err := loadFilter(ctx, filters)
	if err != nil {
		return err
	}

	dataDir := config.FromContext(ctx).DataDir

	var dirs []string

	for _, d := range []string{species.ASBDir, species.WikiDir} {
		p := filepath.Join(dataDir, d)
		if info, statErr := os.Stat(p); statErr == nil && info.IsDir() {
			dirs = append(dirs, p)
		}
	}

	var (
		mu   sync.Mutex
		prev []byte
	)

	runFn := func(runCtx context.Context) (*watch.RunResult, error) {
		mu.Lock()
		defer mu.Unlock()

		g, err := generate(runCtx, kind, &opts.reportOptions)
		if err != nil {
			return nil, err
		}

		if err := g.write(runCtx, cmd.OutOrStdout()); err != nil {
			return nil, err
		}

		res := &watch.RunResult{Entries: g.entries}
		if !g.stdout() {
			res.OutputPath = g.dest
		}

		if prev != nil {
			if d, diffErr := diff.Compute(string(prev), string(g.data), diff.DefaultOptions()); diffErr == nil {
				res.Changes = d.Summary()
			}
		}

		prev = g.data

		return res, nil
	}

	wopts := watch.DefaultOptions()
	wopts.Files = flt.Sources
	wopts.Dirs = dirs
	wopts.Debounce = opts.debounce
	wopts.Logger = logging.FromContext(ctx)
	wopts.Out = cmd.ErrOrStderr()

	return watch.Run(ctx, wopts, runFn)
}
