// Package dinofilter provides a public Go API for selecting and naming
// creatures of a dataset with layered filters and building the derived
// report tables.
//
// This package exposes the dinofilter pipeline as a library, allowing
// programmatic use without the CLI.
//
// Basic usage:
//
//	res, err := dinofilter.Generate(ctx, "data/obelisk", dinofilter.Cloning,
//	    dinofilter.WithFilterFiles("filters/cloning_filter.yml"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(string(res.Data))
//
// Listing what a filter selects:
//
//	sel, err := dinofilter.Select(ctx, "data/obelisk",
//	    dinofilter.WithFilterData("inline.yml", []byte("filter:\n  ignoreDinosWithVariants: [Alpha]\n")),
//	)
package dinofilter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hupe1980/dinofilter/internal/blueprint"
	"github.com/hupe1980/dinofilter/internal/filter"
	"github.com/hupe1980/dinofilter/internal/logging"
	"github.com/hupe1980/dinofilter/internal/output"
	"github.com/hupe1980/dinofilter/internal/report"
	"github.com/hupe1980/dinofilter/internal/selector"
	"github.com/hupe1980/dinofilter/internal/species"
)

// Report names a derived table.
type Report string

// Available reports.
const (
	Cloning      Report = "cloning"
	WildStats    Report = "wildstats"
	DataValues   Report = "dvjson"
	SelectorTest Report = "selectortest"
	Match        Report = "match"
)

// Option configures the pipeline.
// Use the With* functions to create Options.
type Option func(*options)

type options struct {
	filterFiles []string
	filterName  string
	filterData  []byte
	mod         string
	wanted      []string
	format      string
	pretty      *bool
	header      *bool
	logger      *slog.Logger
}

// --- Filters ---

// WithFilterFiles layers the given filter files in order.
func WithFilterFiles(paths ...string) Option {
	return func(o *options) { o.filterFiles = append(o.filterFiles, paths...) }
}

// WithFilterData uses an in-memory filter document. Relative imports are
// resolved against name. It replaces WithFilterFiles.
func WithFilterData(name string, data []byte) Option {
	return func(o *options) { o.filterName, o.filterData = name, data }
}

// --- Dataset ---

// WithMod selects the stats data file of a mod (default: the base game).
func WithMod(id string) Option { return func(o *options) { o.mod = id } }

// WithWanted sets the names the Match report looks up.
func WithWanted(names ...string) Option {
	return func(o *options) { o.wanted = append(o.wanted, names...) }
}

// --- Output ---

// WithFormat sets the serialization format: json (default), yaml or text.
func WithFormat(format string) Option { return func(o *options) { o.format = format } }

// WithPretty overrides the pretty setting of the filter.
func WithPretty(pretty bool) Option { return func(o *options) { o.pretty = &pretty } }

// WithHeader overrides the version header setting of the filter.
func WithHeader(header bool) Option { return func(o *options) { o.header = &header } }

// WithLogger sets the logger of the pipeline (default: discard).
func WithLogger(logger *slog.Logger) Option { return func(o *options) { o.logger = logger } }

func newOptions(opts []Option) *options {
	o := &options{mod: species.CoreGame, format: output.FormatJSON}
	for _, opt := range opts {
		opt(o)
	}

	if o.logger == nil {
		o.logger = logging.Discard()
	}

	o.format = strings.ToLower(o.format)

	return o
}

// Result holds the output of a successful report run.
type Result struct {
	// Data is the serialized report.
	Data []byte

	// Value is the structured report before serialization.
	Value interface{}

	// Version is the dataset version.
	Version string

	// Namespace is the namespace of the effective filter.
	Namespace string

	// Entries is the number of report entries.
	Entries int
}

// Generate builds and serializes report from the datasets below dataDir.
func Generate(ctx context.Context, dataDir string, rep Report, opts ...Option) (*Result, error) {
	if dataDir == "" {
		return nil, errors.New("data directory must not be empty")
	}

	o := newOptions(opts)
	ctx = logging.NewContext(ctx, o.logger.With(slog.String("report", string(rep))))

	serialize, err := output.DefaultRegistry().Serializer(o.format)
	if err != nil {
		return nil, err
	}

	eng, err := o.engine()
	if err != nil {
		return nil, err
	}

	var (
		value   interface{}
		entries int
		version string
	)

	switch rep {
	case Cloning, SelectorTest, Match:
		ds, err := species.LoadWiki(dataDir)
		if err != nil {
			return nil, err
		}

		value, entries, err = buildWiki(ctx, rep, eng, ds, o.wanted)
		if err != nil {
			return nil, err
		}

		version = ds.Version
	case WildStats:
		ds, err := loadStats(dataDir, o.mod, eng.Filter())
		if err != nil {
			return nil, err
		}

		r, err := report.WildStats(ctx, eng, ds)
		if err != nil {
			return nil, err
		}

		value, entries, version = r, r.Entries.Len(), ds.Version
	case DataValues:
		stats, err := loadStats(dataDir, o.mod, eng.Filter())
		if err != nil {
			return nil, err
		}

		wiki, err := species.LoadWiki(dataDir)
		if err != nil {
			return nil, err
		}

		ordered, err := eng.SortByName(wiki.Species)
		if err != nil {
			return nil, err
		}

		ds := species.Join(stats, &species.Dataset{Version: wiki.Version, Species: ordered}).Dataset

		doc, err := report.DataValues(ctx, eng, ds)
		if err != nil {
			return nil, err
		}

		value, entries, version = doc, doc.Species.Len(), ds.Version
	default:
		return nil, fmt.Errorf("unknown report %q (available: %s, %s, %s, %s, %s)",
			rep, Cloning, WildStats, DataValues, SelectorTest, Match)
	}

	flt := eng.Filter()

	serOpts := output.Options{Pretty: flt.Output.Pretty, Header: flt.Output.Header, Version: version}
	if o.pretty != nil {
		serOpts.Pretty = *o.pretty
	}

	if o.header != nil {
		serOpts.Header = *o.header
	}

	data, err := serialize(value, serOpts)
	if err != nil {
		return nil, fmt.Errorf("serializing %s report: %w", rep, err)
	}

	return &Result{
		Data:      data,
		Value:     value,
		Version:   version,
		Namespace: flt.Namespace,
		Entries:   entries,
	}, nil
}

func buildWiki(ctx context.Context, rep Report, eng *selector.Engine, ds *species.Dataset, wanted []string) (interface{}, int, error) {
	switch rep {
	case Cloning:
		r, err := report.Cloning(ctx, eng, ds)
		if err != nil {
			return nil, 0, err
		}

		return r, r.Entries.Len(), nil
	case SelectorTest:
		r, err := report.SelectorTest(ctx, eng, ds)
		if err != nil {
			return nil, 0, err
		}

		return r, len(r.Included), nil
	default:
		if len(wanted) == 0 {
			return nil, 0, errors.New("match report needs wanted names: use WithWanted")
		}

		r, err := report.Match(ctx, eng, ds, wanted)
		if err != nil {
			return nil, 0, err
		}

		return r, r.Entries.Len(), nil
	}
}

// Creature is one record of a selection.
type Creature struct {
	// Name is the descriptive name.
	Name string

	// ClassID is the class id, e.g. "Raptor_Character_BP_C".
	ClassID string

	// Path is the blueprint path.
	Path string

	// Included reports whether the filter selects the creature.
	Included bool

	// Rule is the selection step that decided.
	Rule string

	// Reason explains the decision.
	Reason string
}

// Selection is the outcome of [Select], ordered by descriptive name.
type Selection struct {
	Version   string
	Namespace string
	Creatures []Creature
}

// Included returns the selected creatures.
func (s *Selection) Included() []Creature {
	var out []Creature

	for _, c := range s.Creatures {
		if c.Included {
			out = append(out, c)
		}
	}

	return out
}

// Select decides every creature of the extended dataset below dataDir.
func Select(ctx context.Context, dataDir string, opts ...Option) (*Selection, error) {
	if dataDir == "" {
		return nil, errors.New("data directory must not be empty")
	}

	o := newOptions(opts)

	eng, err := o.engine()
	if err != nil {
		return nil, err
	}

	ds, err := species.LoadWiki(dataDir)
	if err != nil {
		return nil, err
	}

	if err := eng.Resolver().Precompute(ds.Species); err != nil {
		return nil, err
	}

	ents, err := eng.SortByName(ds.Species)
	if err != nil {
		return nil, err
	}

	sel := &Selection{Version: ds.Version, Namespace: eng.Filter().Namespace}

	for _, ent := range ents {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		d, err := eng.Decide(ent)
		if err != nil {
			return nil, err
		}

		name, err := eng.DescriptiveName(ent)
		if err != nil {
			return nil, err
		}

		id, _ := eng.Resolver().Cached(ent)
		path, _ := blueprint.Path(ent, false)

		sel.Creatures = append(sel.Creatures, Creature{
			Name:     name,
			ClassID:  id,
			Path:     path,
			Included: !d.Skip,
			Rule:     d.Rule.String(),
			Reason:   d.Reason,
		})
	}

	o.logger.Debug("selection finished",
		slog.Int("creatures", len(sel.Creatures)),
		slog.Int("included", len(sel.Included())),
	)

	return sel, nil
}

// engine loads the effective filter and prepares it for evaluation.
func (o *options) engine() (*selector.Engine, error) {
	registry := filter.DefaultRegistry()
	loader := filter.NewLoader(registry, filter.WithLogger(o.logger))

	var (
		flt *filter.Filter
		err error
	)

	switch {
	case o.filterData != nil:
		flt, err = loader.Parse(o.filterName, o.filterData)
	case len(o.filterFiles) > 0:
		flt, err = loader.LoadAll(o.filterFiles...)
	default:
		var ns *filter.Namespace

		ns, err = registry.Lookup(filter.DefaultNamespace)
		if err == nil {
			flt = ns.New()
		}
	}

	if err != nil {
		return nil, err
	}

	return selector.NewEngine(flt, nil)
}

func loadStats(dataDir, modID string, flt *filter.Filter) (*species.Dataset, error) {
	var mod *species.Mod

	if modID != species.CoreGame {
		manifest, err := species.LoadManifest(dataDir)
		if err != nil {
			return nil, err
		}

		if mod, err = manifest.FindMod(modID); err != nil {
			return nil, err
		}
	}

	return species.LoadASB(dataDir, mod, flt.WildStats.LinkMods...)
}
