package report

import (
	"context"

	"github.com/hupe1980/dinofilter/internal/blueprint"
	"github.com/hupe1980/dinofilter/internal/filter"
	"github.com/hupe1980/dinofilter/internal/logging"
	"github.com/hupe1980/dinofilter/internal/output"
	"github.com/hupe1980/dinofilter/internal/selector"
	"github.com/hupe1980/dinofilter/internal/species"
)

// NoDataValueID is shown for filters outside the DataValues namespace.
const NoDataValueID = "N/A"

// IncludedCreature is a selected creature of a selector test.
type IncludedCreature struct {
	AssetPath   string `json:"assetPath"`
	Name        string `json:"name"`
	DataValueID string `json:"dvId"`
}

// SkippedCreature is an excluded creature of a selector test.
type SkippedCreature struct {
	AssetPath string `json:"assetPath"`
	Name      string `json:"name"`
	Rule      string `json:"rule"`
	Reason    string `json:"reason"`
}

// SelectorTestReport lists what a filter selects and where names or lookup
// ids collide.
type SelectorTestReport struct {
	Version            string             `json:"version"`
	Included           []IncludedCreature `json:"included"`
	NameConflicts      []Conflict         `json:"nameConflicts"`
	DataValueConflicts []Conflict         `json:"dvConflicts"`
	Skipped            []SkippedCreature  `json:"skipped"`
}

// SelectorTest runs the filter over the whole dataset and records every
// decision. Lookup ids are only computed for DataValues filters.
func SelectorTest(ctx context.Context, eng *selector.Engine, ds *species.Dataset) (*SelectorTestReport, error) {
	log := logging.FromContext(ctx)
	withIDs := eng.Filter().Namespace == filter.NamespaceDataValues

	ents, err := sorted(eng, ds.Species)
	if err != nil {
		return nil, err
	}

	out := &SelectorTestReport{Version: ds.Version}
	names := make(map[string]string)
	ids := make(map[string]string)

	for _, ent := range ents {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		name, err := eng.DescriptiveName(ent)
		if err != nil {
			return nil, err
		}

		path, err := blueprint.Path(ent, false)
		if err != nil {
			return nil, err
		}

		asset := blueprint.AssetPath(path)

		d, err := eng.Decide(ent)
		if err != nil {
			return nil, err
		}

		if d.Skip {
			out.Skipped = append(out.Skipped, SkippedCreature{
				AssetPath: asset, Name: name, Rule: d.Rule.String(), Reason: d.Reason,
			})

			continue
		}

		id := NoDataValueID
		if withIDs {
			id = DataValueID(eng, name)
		}

		out.Included = append(out.Included, IncludedCreature{AssetPath: asset, Name: name, DataValueID: id})

		if prev, ok := names[name]; ok {
			out.NameConflicts = append(out.NameConflicts, Conflict{Key: name, PathA: prev, PathB: asset})
			continue
		}

		if prev, ok := ids[id]; ok && withIDs {
			out.DataValueConflicts = append(out.DataValueConflicts, Conflict{Key: id, PathA: prev, PathB: asset})
			continue
		}

		names[name] = asset
		ids[id] = asset
	}

	log.Info("selector test finished",
		"included", len(out.Included),
		"skipped", len(out.Skipped),
		"nameConflicts", len(out.NameConflicts),
		"dvConflicts", len(out.DataValueConflicts),
	)

	return out, nil
}

// Tables renders the report as text tables.
func (r *SelectorTestReport) Tables() []output.Table {
	included := make([][]string, 0, len(r.Included))
	for _, c := range r.Included {
		included = append(included, []string{c.AssetPath, c.Name, c.DataValueID})
	}

	skipped := make([][]string, 0, len(r.Skipped))
	for _, c := range r.Skipped {
		skipped = append(skipped, []string{c.AssetPath, c.Name, c.Reason})
	}

	return []output.Table{
		{Title: "Included creatures", Columns: []string{"Blueprint Path", "Name", "Dv ID"}, Rows: included},
		{Title: "Name conflicts", Columns: []string{"Blueprint Path A", "Blueprint Path B", "Name"}, Rows: conflictRows(r.NameConflicts)},
		{Title: "Dv conflicts", Columns: []string{"Blueprint Path A", "Blueprint Path B", "Dv ID"}, Rows: conflictRows(r.DataValueConflicts)},
		{Title: "Skipped creatures", Columns: []string{"Blueprint Path", "Name", "Reason"}, Rows: skipped},
	}
}

func conflictRows(cs []Conflict) [][]string {
	rows := make([][]string, 0, len(cs))
	for _, c := range cs {
		rows = append(rows, []string{c.PathA, c.PathB, c.Key})
	}

	return rows
}
