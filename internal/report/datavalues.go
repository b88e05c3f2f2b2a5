package report

import (
	"context"
	"regexp"
	"strings"

	"github.com/hupe1980/dinofilter/internal/blueprint"
	"github.com/hupe1980/dinofilter/internal/logging"
	"github.com/hupe1980/dinofilter/internal/selector"
	"github.com/hupe1980/dinofilter/internal/species"
)

var nonWord = regexp.MustCompile(`[^\p{L}\p{N}_]`)

// DataValueID returns the lookup id of a descriptive name: the idOverrides
// entry for the name, or the lowercased name without non-word characters.
func DataValueID(eng *selector.Engine, name string) string {
	if id, ok := eng.Filter().DataValues.IDOverrides.Get(name); ok {
		return id
	}

	return strings.ToLower(nonWord.ReplaceAllString(name, ""))
}

// DataValuesDocument is the data value file: version plus records keyed by
// lookup id.
type DataValuesDocument struct {
	Version string                      `json:"version" yaml:"version"`
	Species *Keyed[*Keyed[interface{}]] `json:"species" yaml:"species"`

	// Collisions lists lookup ids claimed by several creatures; the first
	// creature keeps the id.
	Collisions []Conflict `json:"-" yaml:"-"`
}

// MarshalYAML keeps the record key order.
func (d *DataValuesDocument) MarshalYAML() (interface{}, error) {
	return struct {
		Version string                      `yaml:"version"`
		Species *Keyed[*Keyed[interface{}]] `yaml:"species"`
	}{d.Version, d.Species}, nil
}

// DataValues builds the data value document from a joined dataset. Each
// selected record contributes the configured output fields, read from the
// record or its extended record. Records whose lookup id is already taken
// are dropped and reported as collisions.
func DataValues(ctx context.Context, eng *selector.Engine, ds *species.Dataset) (*DataValuesDocument, error) {
	flt := eng.Filter()
	log := logging.FromContext(ctx)

	ents, err := sorted(eng, ds.Species)
	if err != nil {
		return nil, err
	}

	ents, err = selectByEngine(ctx, eng, ents)
	if err != nil {
		return nil, err
	}

	doc := &DataValuesDocument{
		Version: ds.Version,
		Species: NewKeyed[*Keyed[interface{}]](),
	}
	paths := make(map[string]string)

	for _, ent := range ents {
		name, err := eng.DescriptiveName(ent)
		if err != nil {
			return nil, err
		}

		id := DataValueID(eng, name)
		path, _ := blueprint.Path(ent, false)

		if prev, taken := paths[id]; taken {
			doc.Collisions = append(doc.Collisions, Conflict{Key: id, PathA: prev, PathB: path})
			log.Warn("look-up key collision", "id", id, "first", prev, "second", path)

			continue
		}

		rec := NewKeyed[interface{}]()

		for _, field := range flt.Output.Fields {
			if v, ok := ent.Lookup(field); ok {
				rec.Set(field, v)
			}
		}

		paths[id] = path
		doc.Species.Set(id, rec)
	}

	log.Info("data values built", "entries", doc.Species.Len(), "collisions", len(doc.Collisions))

	return doc, nil
}
