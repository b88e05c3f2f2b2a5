package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hupe1980/dinofilter/internal/config"
	"github.com/hupe1980/dinofilter/internal/report"
	"github.com/hupe1980/dinofilter/internal/selector"
	"github.com/hupe1980/dinofilter/internal/species"
)

func newMatchCommand() *cobra.Command {
	var wantedFile string

	opts := &reportOptions{}

	cmd := &cobra.Command{
		Use:   "match [name...]",
		Short: "Find creatures whose names resemble the given names",
		Long: `Match proposes dataset creatures for free-form names, for example
the entries of a hand-written spawn list. Names come from the arguments
and from --wanted, a newline separated list where "#" starts a comment.

For every name the similarity threshold starts at 90% and drops in steps
of 5% until some creature scores above it; names that reach no creature
above 49% get an empty candidate list.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.captureChanged(cmd)

			wanted := append([]string(nil), args...)

			if wantedFile != "" {
				list, err := species.LoadLineList(wantedFile)
				if err != nil {
					return &ExitError{Code: ExitConfig, Err: err}
				}

				wanted = append(wanted, list...)
			}

			if len(wanted) == 0 {
				return &ExitError{Code: ExitConfig, Err: fmt.Errorf("no names given: pass names as arguments or use --wanted")}
			}

			return runReport(cmd.Context(), cmd, matchReport(wanted), opts)
		},
	}

	registerFilterFlags(cmd, opts)
	registerOutputFlags(cmd, opts)
	cmd.Flags().StringVar(&wantedFile, "wanted", "", "file with one wanted name per line")

	return cmd
}

func matchReport(wanted []string) *reportKind {
	return &reportKind{
		name:   config.ReportMatch,
		source: sourceWiki,
		build: func(ctx context.Context, eng *selector.Engine, ds *species.Dataset) (interface{}, int, error) {
			r, err := report.Match(ctx, eng, ds, wanted)
			if err != nil {
				return nil, 0, err
			}

			return r, r.Entries.Len(), nil
		},
	}
}
