package query

import (
	"encoding/json"
	"errors"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/dinofilter/internal/blueprint"
	"github.com/hupe1980/dinofilter/internal/species"
)

func records() []*species.Entity {
	return []*species.Entity{
		species.NewEntity(map[string]interface{}{"name": "Rex", "bp": "a.Rex_C", "cloning": map[string]interface{}{"costBase": 1.0}, "level": 10.0}),
		species.NewEntity(map[string]interface{}{"name": "Dodo", "bp": "a.Dodo_C", "cloning": nil, "level": 2.0}),
		species.NewEntity(map[string]interface{}{"name": "Spino", "bp": "a.Spino_C", "level": json.Number("30")}),
	}
}

func names(seq []*species.Entity) []string {
	out := make([]string, len(seq))
	for i, e := range seq {
		out[i] = e.Name()
	}

	return out
}

// ---------------------------------------------------------------------------
// Query
// ---------------------------------------------------------------------------

func TestQuery_Modes(t *testing.T) {
	recs := records()

	tests := []struct {
		name  string
		group Group[*species.Entity]
		want  []string
	}{
		{"in", Field[*species.Entity]("name").In("Rex", "Spino"), []string{"Rex", "Spino"}},
		{"equals", Field[*species.Entity]("name").Equals("Dodo"), []string{"Dodo"}},
		{"equals numeric", Field[*species.Entity]("level").Equals(2), []string{"Dodo"}},
		{"truthy", Field[*species.Entity]("cloning").Truthy(), []string{"Rex"}},
		{"greater than", Field[*species.Entity]("level").GreaterThan(5), []string{"Rex", "Spino"}},
		{"equals false", Where(func(e *species.Entity) interface{} { return e.Name() == "Rex" }).Equals(false), []string{"Dodo", "Spino"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := slices.Collect(Query(recs, tt.group))
			assert.Equal(t, tt.want, names(got))
		})
	}
}

func TestQuery_AndAcrossGroups(t *testing.T) {
	got := slices.Collect(Query(records(),
		Field[*species.Entity]("level").GreaterThan(5),
		Field[*species.Entity]("cloning").Truthy(),
	))

	assert.Equal(t, []string{"Rex"}, names(got))
}

func TestQuery_NoGroups(t *testing.T) {
	assert.Len(t, slices.Collect(Query(records())), 3)
}

func TestQuery_Lazy(t *testing.T) {
	calls := 0
	g := Where(func(e *species.Entity) interface{} {
		calls++
		return true
	}).Truthy()

	for range Query(records(), g) {
		break
	}

	assert.Equal(t, 1, calls)
}

func TestQuery_SingleUse(t *testing.T) {
	seq := Query(records())

	assert.Len(t, slices.Collect(seq), 3)
	assert.Empty(t, slices.Collect(seq))
}

func TestTruthy(t *testing.T) {
	assert.False(t, truthy(nil))
	assert.False(t, truthy(""))
	assert.False(t, truthy(0.0))
	assert.False(t, truthy(false))
	assert.False(t, truthy([]interface{}{}))
	assert.False(t, truthy(map[string]interface{}{}))
	assert.True(t, truthy("x"))
	assert.True(t, truthy(1))
	assert.True(t, truthy([]interface{}{nil}))
}

func TestGroup_String(t *testing.T) {
	s := Field[*species.Entity]("name")
	assert.Equal(t, "in [a b]", s.In("a", "b").String())
	assert.Equal(t, "truthy", s.Truthy().String())
	assert.Equal(t, "greater than 0.5", s.GreaterThan(0.5).String())
}

// ---------------------------------------------------------------------------
// Validate
// ---------------------------------------------------------------------------

func TestValidate_ReportsMissing(t *testing.T) {
	recs := []*species.Entity{
		species.NewEntity(map[string]interface{}{"name": "Rex", "bp": "Dinosaur.Rex_C"}),
	}

	r := blueprint.NewResolver()

	err := Validate(recs, []string{"Rex_C", "Spino_C"}, r.ClassID)
	require.Error(t, err)

	var ce *CoverageError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, []string{"Spino_C"}, ce.Missing)
	assert.Contains(t, err.Error(), "Spino_C")
}

func TestValidate_Covered(t *testing.T) {
	r := blueprint.NewResolver()
	assert.NoError(t, Validate(records(), []string{"Rex_C", "Dodo_C"}, r.ClassID))
	assert.NoError(t, Validate(records(), nil, r.ClassID))
}

func TestValidate_Suggestions(t *testing.T) {
	r := blueprint.NewResolver()

	err := Validate(records(), []string{"Spinoo_C", "Spinoo_C", "Zzzzzzzz"}, r.ClassID)

	var ce *CoverageError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, []string{"Spinoo_C", "Zzzzzzzz"}, ce.Missing)
	assert.Equal(t, map[string]string{"Spinoo_C": "Spino_C"}, ce.Suggestions)
	assert.Equal(t,
		"2 configured value(s) not found in dataset: Spinoo_C (did you mean Spino_C?), Zzzzzzzz",
		err.Error())
}

func TestValidate_AccessorError(t *testing.T) {
	r := blueprint.NewResolver()
	recs := []*species.Entity{species.NewEntity(map[string]interface{}{"name": "Ghost"})}

	err := Validate(recs, []string{"Rex_C"}, r.ClassID)

	var le *blueprint.LookupError
	assert.True(t, errors.As(err, &le))
}
