package report

import (
	"context"
	"fmt"

	"github.com/mitchellh/mapstructure"

	"github.com/hupe1980/dinofilter/internal/blueprint"
	"github.com/hupe1980/dinofilter/internal/logging"
	"github.com/hupe1980/dinofilter/internal/query"
	"github.com/hupe1980/dinofilter/internal/selector"
	"github.com/hupe1980/dinofilter/internal/species"
)

// Stat table fields of stats records.
const (
	FullStatsRaw     = "fullStatsRaw"
	DoesNotUseOxygen = "doesNotUseOxygen"
)

// Rows of the raw stat table.
const (
	statHealth  = 0
	statStamina = 1
	statOxygen  = 3
	statFood    = 4
	statWeight  = 7
	statDamage  = 8
)

// damageScale converts the melee multiplier into a percentage.
const damageScale = 100

// Conflict records two creatures that ended up under the same key.
type Conflict struct {
	Key   string `json:"key"`
	PathA string `json:"pathA"`
	PathB string `json:"pathB"`
}

// WildStatsReport is the wild creature stat table.
type WildStatsReport struct {
	Report[*Keyed[float64]]
	// Conflicts lists descriptive names shared by several creatures; the
	// later creature wins.
	Conflicts []Conflict
}

// WildStats builds the base stat table from the stats dataset: health,
// stamina, oxygen (only for creatures that use it), food, weight and melee
// damage, each as base value and per-level increment. A non-empty
// includeDinoClasses list is validated against the dataset.
func WildStats(ctx context.Context, eng *selector.Engine, ds *species.Dataset) (*WildStatsReport, error) {
	flt := eng.Filter()
	log := logging.FromContext(ctx)

	ents, err := sorted(eng, ds.Species)
	if err != nil {
		return nil, err
	}

	if len(flt.IncludeDinoClasses) > 0 {
		if err := query.Validate(ents, flt.IncludeDinoClasses, eng.ClassID); err != nil {
			return nil, err
		}
	}

	ents, err = selectByEngine(ctx, eng, ents)
	if err != nil {
		return nil, err
	}

	out := &WildStatsReport{
		Report: Report[*Keyed[float64]]{Version: ds.Version, Entries: NewKeyed[*Keyed[float64]]()},
	}
	paths := make(map[string]string)

	for ent := range query.Query(ents, query.Field[*species.Entity](FullStatsRaw).Truthy()) {
		name, err := eng.DescriptiveName(ent)
		if err != nil {
			return nil, err
		}

		stats, err := wildStats(ent)
		if err != nil {
			return nil, err
		}

		path, _ := blueprint.Path(ent, false)

		if prev, ok := paths[name]; ok {
			out.Conflicts = append(out.Conflicts, Conflict{Key: name, PathA: prev, PathB: path})
			log.Warn("name conflict between two creatures", "name", name, "first", prev, "second", path)
		}

		paths[name] = path
		out.Entries.Set(name, stats)
	}

	log.Info("wild stats report built", "entries", out.Entries.Len(), "conflicts", len(out.Conflicts))

	return out, nil
}

func wildStats(ent *species.Entity) (*Keyed[float64], error) {
	raw, _ := ent.Get(FullStatsRaw)

	var rows [][]float64
	if err := mapstructure.Decode(raw, &rows); err != nil {
		return nil, fmt.Errorf("%s of %s: %w", FullStatsRaw, ent.Label(), err)
	}

	out := NewKeyed[float64]()

	add := func(prefix string, row int, scale float64) error {
		if row >= len(rows) || len(rows[row]) < 2 {
			return fmt.Errorf("%s of %s: stat %d missing", FullStatsRaw, ent.Label(), row)
		}

		out.Set(prefix+"1", rows[row][0]*scale)
		out.Set(prefix+"Inc", rows[row][1])

		return nil
	}

	steps := []struct {
		prefix string
		row    int
		scale  float64
		skip   bool
	}{
		{"health", statHealth, 1, false},
		{"stamina", statStamina, 1, false},
		{"oxygen", statOxygen, 1, ent.Bool(DoesNotUseOxygen)},
		{"food", statFood, 1, false},
		{"weight", statWeight, 1, false},
		{"damage", statDamage, damageScale, false},
	}

	for _, s := range steps {
		if s.skip {
			continue
		}

		if err := add(s.prefix, s.row, s.scale); err != nil {
			return nil, err
		}
	}

	return out, nil
}
