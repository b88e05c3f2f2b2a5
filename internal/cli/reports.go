package cli

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hupe1980/dinofilter/internal/config"
	"github.com/hupe1980/dinofilter/internal/logging"
	"github.com/hupe1980/dinofilter/internal/report"
	"github.com/hupe1980/dinofilter/internal/selector"
	"github.com/hupe1980/dinofilter/internal/species"
)

func cloningReport() *reportKind {
	return &reportKind{
		name:  config.ReportCloning,
		short: "Build the cloning cost table",
		long: `Cloning maps every selected creature to its cloning costs
[costBase, costLevel, timeBase, timeLevel]. The times are dropped unless the
filter sets includeCloningTimes. When the filter lists dinoClasses, those
classes are checked against the dataset and used as the selection.`,
		source: sourceWiki,
		build: func(ctx context.Context, eng *selector.Engine, ds *species.Dataset) (interface{}, int, error) {
			r, err := report.Cloning(ctx, eng, ds)
			if err != nil {
				return nil, 0, err
			}

			return r, r.Entries.Len(), nil
		},
	}
}

func wildStatsReport() *reportKind {
	return &reportKind{
		name:  config.ReportWildStats,
		short: "Build the wild creature stat table",
		long: `Wildstats reads the stats dataset of the selected mod plus the
data files of the filter's linkMods and maps every selected creature to its
base stats and per-level increments.`,
		source: sourceStats,
		build: func(ctx context.Context, eng *selector.Engine, ds *species.Dataset) (interface{}, int, error) {
			r, err := report.WildStats(ctx, eng, ds)
			if err != nil {
				return nil, 0, err
			}

			return r, r.Entries.Len(), nil
		},
	}
}

func dataValuesReport() *reportKind {
	return &reportKind{
		name:  config.ReportDataValues,
		short: "Build the data value document",
		long: `Dvjson joins the stats dataset with the extended dataset and writes
the configured output fields of every selected creature, keyed by its
look-up id. Creatures whose id is already taken are dropped and logged.`,
		source: sourceJoined,
		build: func(ctx context.Context, eng *selector.Engine, ds *species.Dataset) (interface{}, int, error) {
			doc, err := report.DataValues(ctx, eng, ds)
			if err != nil {
				return nil, 0, err
			}

			return doc, doc.Species.Len(), nil
		},
	}
}

func selectorTestReport() *reportKind {
	return &reportKind{
		name:  config.ReportSelectorTest,
		short: "List what a filter includes and skips",
		long: `Selectortest runs the filter over the whole dataset and lists the
included creatures, name and look-up id conflicts, and every skipped
creature with the rule that skipped it.`,
		source: sourceWiki,
		build: func(ctx context.Context, eng *selector.Engine, ds *species.Dataset) (interface{}, int, error) {
			r, err := report.SelectorTest(ctx, eng, ds)
			if err != nil {
				return nil, 0, err
			}

			return r, len(r.Included), nil
		},
	}
}

// reportKinds lists the file-producing reports.
func reportKinds() []*reportKind {
	return []*reportKind{cloningReport(), wildStatsReport(), dataValuesReport(), selectorTestReport()}
}

func findReport(name string) (*reportKind, error) {
	names := make([]string, 0, 4)

	for _, k := range reportKinds() {
		if k.name == name {
			return k, nil
		}

		names = append(names, k.name)
	}

	return nil, &ExitError{
		Code: ExitConfig,
		Err:  fmt.Errorf("unknown report %q (available: %s)", name, strings.Join(names, ", ")),
	}
}

func newReportCommand(kind *reportKind) *cobra.Command {
	opts := &reportOptions{}

	cmd := &cobra.Command{
		Use:   kind.name,
		Short: kind.short,
		Long:  kind.long,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts.captureChanged(cmd)
			return runReport(cmd.Context(), cmd, kind, opts)
		},
	}

	registerFilterFlags(cmd, opts)
	registerOutputFlags(cmd, opts)

	if kind.source != sourceWiki {
		registerDatasetFlags(cmd, opts)
	}

	return cmd
}

func runReport(ctx context.Context, cmd *cobra.Command, kind *reportKind, opts *reportOptions) error {
	ctx = logging.With(ctx, slog.String("report", kind.name))

	g, err := generate(ctx, kind, opts)
	if err != nil {
		return exitError(err)
	}

	if err := g.write(ctx, cmd.OutOrStdout()); err != nil {
		return exitError(err)
	}

	dest := g.dest
	if g.stdout() {
		dest = "stdout"
	}

	logging.FromContext(ctx).Info("report written",
		slog.Int("entries", g.entries),
		slog.String("output", dest),
	)

	return nil
}
