// Package report builds the derived tables of a run: cloning costs, wild
// creature stats, data value records, selector test listings and fuzzy name
// matches. Every report selects and names creatures through a
// [selector.Engine] and returns structured results; serialization is left to
// the output package.
package report

import (
	"context"
	"slices"

	"github.com/hupe1980/dinofilter/internal/query"
	"github.com/hupe1980/dinofilter/internal/selector"
	"github.com/hupe1980/dinofilter/internal/species"
)

// Report is a version-tagged mapping from descriptive name to payload.
type Report[V any] struct {
	Version string
	Entries *Keyed[V]
}

// MarshalJSON encodes the entries only; the version travels in the header.
func (r *Report[V]) MarshalJSON() ([]byte, error) {
	return r.Entries.MarshalJSON()
}

// MarshalYAML encodes the entries only.
func (r *Report[V]) MarshalYAML() (interface{}, error) {
	return r.Entries.MarshalYAML()
}

// sorted returns ents ordered by descriptive name with every class id
// resolved, so accessors below can read the resolver cache without errors.
func sorted(eng *selector.Engine, ents []*species.Entity) ([]*species.Entity, error) {
	if err := eng.Resolver().Precompute(ents); err != nil {
		return nil, err
	}

	return eng.SortByName(ents)
}

// selectByEngine returns the records the filter includes.
func selectByEngine(ctx context.Context, eng *selector.Engine, ents []*species.Entity) ([]*species.Entity, error) {
	res, err := eng.Apply(ctx, ents)
	if err != nil {
		return nil, err
	}

	return res.Included, nil
}

// selectByClasses validates allow against the dataset and returns the records
// whose class id it lists.
func selectByClasses(eng *selector.Engine, ents []*species.Entity, allow []string) ([]*species.Entity, error) {
	if err := query.Validate(ents, allow, eng.ClassID); err != nil {
		return nil, err
	}

	values := make([]interface{}, len(allow))
	for i, a := range allow {
		values[i] = a
	}

	return slices.Collect(query.Query(ents, classID(eng).In(values...))), nil
}

// classID selects the cached class id of a record.
func classID(eng *selector.Engine) query.Selector[*species.Entity] {
	return query.Where(func(e *species.Entity) interface{} {
		id, _ := eng.Resolver().Cached(e)
		return id
	})
}
