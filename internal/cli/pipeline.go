package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/hupe1980/dinofilter/internal/config"
	"github.com/hupe1980/dinofilter/internal/filter"
	"github.com/hupe1980/dinofilter/internal/logging"
	"github.com/hupe1980/dinofilter/internal/output"
	"github.com/hupe1980/dinofilter/internal/selector"
	"github.com/hupe1980/dinofilter/internal/species"
)

// dataSource selects the dataset a report reads.
type dataSource int

const (
	// sourceWiki is the extended dataset (data/wiki/species.json).
	sourceWiki dataSource = iota
	// sourceStats is the stats dataset of a mod plus the filter's linkMods.
	sourceStats
	// sourceJoined is the stats dataset with extended records attached.
	sourceJoined
)

func (s dataSource) String() string {
	switch s {
	case sourceWiki:
		return "wiki"
	case sourceStats:
		return "stats"
	case sourceJoined:
		return "joined"
	default:
		return fmt.Sprintf("dataSource(%d)", int(s))
	}
}

func parseDataSource(name string) (dataSource, error) {
	for _, s := range []dataSource{sourceWiki, sourceStats, sourceJoined} {
		if s.String() == name {
			return s, nil
		}
	}

	return 0, fmt.Errorf("unknown dataset %q (available: wiki, stats, joined)", name)
}

// buildFunc produces a report value and its entry count.
type buildFunc func(ctx context.Context, eng *selector.Engine, ds *species.Dataset) (interface{}, int, error)

// reportKind describes one report command.
type reportKind struct {
	name   string
	short  string
	long   string
	source dataSource
	build  buildFunc
}

// generated is one serialized report.
type generated struct {
	kind    *reportKind
	filter  *filter.Filter
	dataset *species.Dataset
	value   interface{}
	entries int
	data    []byte
	dest    string
}

// stdout reports whether the report goes to standard output.
func (g *generated) stdout() bool {
	return g.dest == "" || g.dest == "-"
}

// write sends the report to its destination.
func (g *generated) write(ctx context.Context, stdout io.Writer) error {
	w := output.NewWriter(g.dest, stdout, output.WithLogger(logging.FromContext(ctx)))

	if err := w.Write(g.data); err != nil {
		return fmt.Errorf("writing %s report: %w", g.kind.name, err)
	}

	return nil
}

// resolve fills unset options from the project config.
func resolve(ctx context.Context, kind *reportKind, opts *reportOptions) (filters []string, dest, format string) {
	defaults := config.ProjectFromContext(ctx).Report(kind.name)

	filters = opts.filters
	if len(filters) == 0 && defaults.Filter != "" {
		filters = []string{defaults.Filter}
	}

	dest = opts.output
	if dest == "" {
		dest = defaults.Output
	}

	format = opts.format
	if format == "" {
		format = defaults.Format
	}

	if format == "" {
		format = output.FormatJSON
	}

	return filters, dest, strings.ToLower(format)
}

// generate runs the whole pipeline of a report: load the filter and the
// dataset, select and name creatures, build and serialize the report.
func generate(ctx context.Context, kind *reportKind, opts *reportOptions) (*generated, error) {
	logger := logging.FromContext(ctx)
	filters, dest, format := resolve(ctx, kind, opts)

	serialize, err := output.DefaultRegistry().Serializer(format)
	if err != nil {
		return nil, &ExitError{Code: ExitConfig, Err: err}
	}

	flt, err := loadFilter(ctx, filters)
	if err != nil {
		return nil, err
	}

	eng, err := selector.NewEngine(flt, nil)
	if err != nil {
		return nil, err
	}

	ds, err := loadDataset(ctx, kind.source, eng, opts.mod)
	if err != nil {
		return nil, err
	}

	logger.Info("building report",
		slog.String("report", kind.name),
		slog.String("namespace", flt.Namespace),
		slog.Int("records", ds.Len()),
		slog.String("version", ds.Version),
	)

	value, entries, err := kind.build(ctx, eng, ds)
	if err != nil {
		return nil, err
	}

	serOpts := output.Options{
		Pretty:  flt.Output.Pretty,
		Header:  flt.Output.Header,
		Version: ds.Version,
	}

	if opts.prettySet {
		serOpts.Pretty = opts.pretty
	}

	if opts.headerSet {
		serOpts.Header = opts.header
	}

	data, err := serialize(value, serOpts)
	if err != nil {
		if errors.Is(err, output.ErrNotTabular) {
			return nil, &ExitError{Code: ExitConfig, Err: fmt.Errorf("report %s has no %s format", kind.name, format)}
		}

		return nil, err
	}

	return &generated{
		kind:    kind,
		filter:  flt,
		dataset: ds,
		value:   value,
		entries: entries,
		data:    data,
		dest:    dest,
	}, nil
}

// loadFilter layers the filter files in order. Without files the result is
// an empty filter of the default namespace.
func loadFilter(ctx context.Context, paths []string) (*filter.Filter, error) {
	logger := logging.FromContext(ctx)
	registry := filter.DefaultRegistry()

	if len(paths) == 0 {
		ns, err := registry.Lookup(filter.DefaultNamespace)
		if err != nil {
			return nil, err
		}

		return ns.New(), nil
	}

	flt, err := filter.NewLoader(registry, filter.WithLogger(logger)).LoadAll(paths...)
	if err != nil {
		return nil, err
	}

	logger.Debug("filter loaded",
		slog.String("namespace", flt.Namespace),
		slog.Any("sources", flt.Sources),
	)

	return flt, nil
}

// loadDataset reads the dataset a report needs below the data directory.
func loadDataset(ctx context.Context, src dataSource, eng *selector.Engine, modID string) (*species.Dataset, error) {
	dataDir := config.FromContext(ctx).DataDir
	flt := eng.Filter()

	switch src {
	case sourceStats:
		return loadStats(dataDir, modID, flt)
	case sourceJoined:
		stats, err := loadStats(dataDir, modID, flt)
		if err != nil {
			return nil, err
		}

		wiki, err := species.LoadWiki(dataDir)
		if err != nil {
			return nil, err
		}

		// Among extended records sharing a path, the first by descriptive
		// name is attached.
		ordered, err := eng.SortByName(wiki.Species)
		if err != nil {
			return nil, err
		}

		joined := species.Join(stats, &species.Dataset{Version: wiki.Version, Species: ordered})
		if n := len(joined.Unmatched); n > 0 {
			logging.FromContext(ctx).Warn("stats records without extended record",
				slog.Int("count", n),
				slog.Any("paths", joined.Unmatched),
			)
		}

		return joined.Dataset, nil
	default:
		return species.LoadWiki(dataDir)
	}
}

func loadStats(dataDir, modID string, flt *filter.Filter) (*species.Dataset, error) {
	var mod *species.Mod

	if modID != "" && modID != species.CoreGame {
		manifest, err := species.LoadManifest(dataDir)
		if err != nil {
			return nil, err
		}

		if mod, err = manifest.FindMod(modID); err != nil {
			return nil, &ExitError{Code: ExitConfig, Err: err}
		}
	}

	return species.LoadASB(dataDir, mod, flt.WildStats.LinkMods...)
}
