package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hupe1980/dinofilter/internal/config"
	"github.com/hupe1980/dinofilter/internal/diff"
)

type diffOptions struct {
	reportOptions

	exitCode bool
}

func newDiffCommand() *cobra.Command {
	opts := &diffOptions{}

	cmd := &cobra.Command{
		Use:   "diff <report>",
		Short: "Compare a freshly generated report with the file on disk",
		Long: `Diff generates a report exactly like the report command would and
prints a unified diff against the report file currently on disk, without
overwriting it. A missing file shows every line as added.

Exit codes:
  0  Report generated (or unchanged with --exit-code)
  1  Error, or differences found with --exit-code
  2  Configuration error
  3  Class list names classes missing from the dataset`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.captureChanged(cmd)
			return exitError(runDiff(cmd.Context(), cmd, args[0], opts))
		},
	}

	registerReportFlags(cmd, &opts.reportOptions)
	cmd.Flags().BoolVar(&opts.exitCode, "exit-code", false, "exit with 1 when the report changed")

	return cmd
}

func runDiff(ctx context.Context, cmd *cobra.Command, name string, opts *diffOptions) error {
	kind, err := findReport(name)
	if err != nil {
		return err
	}

	g, err := generate(ctx, kind, &opts.reportOptions)
	if err != nil {
		return err
	}

	if g.stdout() {
		return &ExitError{
			Code: ExitConfig,
			Err:  fmt.Errorf("report %s has no output file to compare against: set --output", name),
		}
	}

	dopts := diff.DefaultOptions()
	dopts.OldLabel = g.dest
	dopts.NewLabel = name + " (generated)"

	result, err := diff.Against(g.dest, g.data, dopts)
	if err != nil {
		return err
	}

	diff.Write(cmd.OutOrStdout(), result, !config.FromContext(ctx).NoColor)

	if result.Changed && opts.exitCode {
		return &ExitError{Code: ExitFailure, Err: fmt.Errorf("%s differs from the generated report: %s", g.dest, result.Summary())}
	}

	return nil
}
