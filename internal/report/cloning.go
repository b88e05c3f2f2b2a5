package report

import (
	"context"
	"fmt"

	"github.com/mitchellh/mapstructure"

	"github.com/hupe1980/dinofilter/internal/logging"
	"github.com/hupe1980/dinofilter/internal/query"
	"github.com/hupe1980/dinofilter/internal/selector"
	"github.com/hupe1980/dinofilter/internal/species"
)

// CloningSection is the field holding cloning costs on extended records.
const CloningSection = "cloning"

// cloningCosts mirrors the cloning section of an extended record.
type cloningCosts struct {
	CostBase  float64 `mapstructure:"costBase"`
	CostLevel float64 `mapstructure:"costLevel"`
	TimeBase  float64 `mapstructure:"timeBase"`
	TimeLevel float64 `mapstructure:"timeLevel"`
}

// Cloning builds the cloning cost table: descriptive name to
// [costBase, costLevel, timeBase, timeLevel], with the times dropped unless
// includeCloningTimes is set. A non-empty dinoClasses list is validated
// against the dataset and replaces the filter's selection rules.
func Cloning(ctx context.Context, eng *selector.Engine, ds *species.Dataset) (*Report[[]float64], error) {
	flt := eng.Filter()
	log := logging.FromContext(ctx)

	ents, err := sorted(eng, ds.Species)
	if err != nil {
		return nil, err
	}

	if len(flt.DinoClasses) > 0 {
		ents, err = selectByClasses(eng, ents, flt.DinoClasses)
	} else {
		ents, err = selectByEngine(ctx, eng, ents)
	}

	if err != nil {
		return nil, err
	}

	costs := func(ent *species.Entity) ([]float64, error) {
		raw, _ := ent.Get(CloningSection)

		var c cloningCosts
		if err := mapstructure.Decode(raw, &c); err != nil {
			return nil, fmt.Errorf("cloning section of %s: %w", ent.Label(), err)
		}

		row := []float64{c.CostBase, c.CostLevel, c.TimeBase, c.TimeLevel}
		if !flt.Cloning.IncludeCloningTimes {
			row = row[:2]
		}

		return row, nil
	}

	entries, err := BuildKeyed(
		query.Query(ents, query.Field[*species.Entity](CloningSection).Truthy()),
		eng.DescriptiveName,
		costs,
	)
	if err != nil {
		return nil, err
	}

	out := &Report[[]float64]{Version: ds.Version, Entries: entries}

	log.Info("cloning report built", "entries", out.Entries.Len())

	return out, nil
}
