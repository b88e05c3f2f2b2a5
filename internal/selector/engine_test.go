package selector

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/dinofilter/internal/blueprint"
	"github.com/hupe1980/dinofilter/internal/filter"
	"github.com/hupe1980/dinofilter/internal/species"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func creature(name, bp string, variants ...string) *species.Entity {
	rec := map[string]interface{}{
		"name": name,
		"bp":   bp,
	}

	if len(variants) > 0 {
		vs := make([]interface{}, len(variants))
		for i, v := range variants {
			vs[i] = v
		}

		rec["variants"] = vs
	}

	return species.NewEntity(rec)
}

func newEngine(t *testing.T, mutate func(f *filter.Filter)) *Engine {
	t.Helper()

	f := filter.New()
	if mutate != nil {
		mutate(f)
	}

	e, err := NewEngine(f, nil)
	require.NoError(t, err)

	return e
}

func dataset() []*species.Entity {
	return []*species.Entity{
		creature("Rex", "Dinosaurs/Carnivores/Rex.Rex_C", "Alpha"),
		creature("Spino", "Dinosaurs/Carnivores/Spino.Spino_C"),
		creature("Stego", "Dinosaurs/Herbivores/Stego.Stego_C", "Event"),
		creature("Dodo", "Birds/Dodo.Dodo_C"),
	}
}

// ---------------------------------------------------------------------------
// ShouldSkip
// ---------------------------------------------------------------------------

func TestShouldSkip_DefaultAllow(t *testing.T) {
	e := newEngine(t, nil)

	for _, ent := range dataset() {
		skip, err := e.ShouldSkip(ent)
		require.NoError(t, err)
		assert.False(t, skip, ent.Name())
	}
}

func TestShouldSkip_ForceIncludeBeatsIgnore(t *testing.T) {
	e := newEngine(t, func(f *filter.Filter) {
		f.IncludeDinoClasses = []string{"Rex_C"}
		f.IgnoreDinoClasses = []string{"Rex_C", "Spino_C"}
		f.IgnoreDinosWithVariants = []string{"Alpha"}
	})

	ents := dataset()

	d, err := e.Decide(ents[0])
	require.NoError(t, err)
	assert.False(t, d.Skip)
	assert.Equal(t, RuleForceInclude, d.Rule)

	d, err = e.Decide(ents[1])
	require.NoError(t, err)
	assert.True(t, d.Skip)
	assert.Equal(t, RuleIgnoreClass, d.Rule)

	d, err = e.Decide(ents[3])
	require.NoError(t, err)
	assert.False(t, d.Skip)
	assert.Equal(t, RuleSelectorDefault, d.Rule)
}

func TestShouldSkip_IgnoreVariant(t *testing.T) {
	e := newEngine(t, func(f *filter.Filter) {
		f.IgnoreDinosWithVariants = []string{"Event"}
	})

	d, err := e.Decide(dataset()[2])
	require.NoError(t, err)
	assert.True(t, d.Skip)
	assert.Equal(t, RuleIgnoreVariant, d.Rule)
	assert.Equal(t, "variant Event is ignored", d.Reason)
}

func TestShouldSkip_PathPrefixClosure(t *testing.T) {
	e := newEngine(t, func(f *filter.Filter) {
		f.IncludePaths = []string{"Dinosaurs/Carnivores"}
	})

	rex := creature("Rex", "Dinosaurs/Carnivores/Rex.Rex_C")
	stego := creature("Stego", "Dinosaurs/Herbivores/Stego.Stego_C")

	skip, err := e.ShouldSkip(rex)
	require.NoError(t, err)
	assert.False(t, skip)

	d, err := e.Decide(stego)
	require.NoError(t, err)
	assert.True(t, d.Skip)
	assert.Equal(t, RuleIncludePath, d.Rule)
}

func TestShouldSkip_IgnorePathBeatsSelector(t *testing.T) {
	e := newEngine(t, func(f *filter.Filter) {
		f.IgnorePaths = []string{"/Dinosaurs/Carnivores/"}
		f.IncludeDinoClasses = []string{"Rex_C"}
	})

	d, err := e.Decide(dataset()[0])
	require.NoError(t, err)
	assert.True(t, d.Skip)
	assert.Equal(t, RuleIgnorePath, d.Rule)
}

func TestShouldSkip_IncludePathsIgnoredInSelectorMode(t *testing.T) {
	e := newEngine(t, func(f *filter.Filter) {
		f.IncludePaths = []string{"Birds"}
		f.DinoClasses = []string{"Dodo_C"}
		f.IgnoreDinoClasses = []string{"Spino_C"}
	})

	skip, err := e.ShouldSkip(dataset()[0])
	require.NoError(t, err)
	assert.False(t, skip)
}

func TestShouldSkip_DinoClasses(t *testing.T) {
	e := newEngine(t, func(f *filter.Filter) {
		f.DinoClasses = []string{"Dodo_C"}
	})

	ents := dataset()

	d, err := e.Decide(ents[0])
	require.NoError(t, err)
	assert.True(t, d.Skip)
	assert.Equal(t, RuleDinoClasses, d.Rule)

	d, err = e.Decide(ents[3])
	require.NoError(t, err)
	assert.False(t, d.Skip)
	assert.Equal(t, RuleDefault, d.Rule)
}

func TestShouldSkip_NameMatchSeesResolvedName(t *testing.T) {
	e := newEngine(t, func(f *filter.Filter) {
		f.NameMatch = `\(Hard\)$`
		f.DisplayVariants = filter.NewOrderedMap("Alpha", "Hard")
		// Would force-include, but the name rule runs first.
		f.IncludeDinoClasses = []string{"Spino_C"}
	})

	ents := dataset()

	skip, err := e.ShouldSkip(ents[0])
	require.NoError(t, err)
	assert.False(t, skip)

	d, err := e.Decide(ents[1])
	require.NoError(t, err)
	assert.True(t, d.Skip)
	assert.Equal(t, RuleNameMatch, d.Rule)
}

func TestShouldSkip_MissingPath(t *testing.T) {
	e := newEngine(t, nil)

	_, err := e.ShouldSkip(species.NewEntity(map[string]interface{}{"name": "Ghost"}))

	var le *blueprint.LookupError
	assert.True(t, errors.As(err, &le))
}

func TestNewEngine_InvalidRegex(t *testing.T) {
	f := filter.New()
	f.NameMatch = "("

	_, err := NewEngine(f, nil)

	var ce *filter.ConfigurationError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "nameMatch", ce.Field)
	assert.ErrorIs(t, err, filter.ErrMalformedField)
}

func TestApply(t *testing.T) {
	e := newEngine(t, func(f *filter.Filter) {
		f.IgnoreDinoClasses = []string{"Spino_C", "Dodo_C"}
	})

	res, err := e.Apply(context.Background(), dataset())
	require.NoError(t, err)

	require.Len(t, res.Included, 2)
	assert.Equal(t, "Rex", res.Included[0].Name())
	assert.Equal(t, "Stego", res.Included[1].Name())

	require.Len(t, res.Excluded, 2)
	assert.Equal(t, "class Spino_C is ignored", res.Excluded[0].Decision.Reason)
}

func TestApply_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newEngine(t, nil).Apply(ctx, dataset())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRule_String(t *testing.T) {
	assert.Equal(t, "includeDinoClasses", RuleForceInclude.String())
	assert.Equal(t, "default", RuleDefault.String())
	assert.Equal(t, "Rule(42)", Rule(42).String())
}

// ---------------------------------------------------------------------------
// DescriptiveName
// ---------------------------------------------------------------------------

func TestDescriptiveName_VariantSuffix(t *testing.T) {
	e := newEngine(t, func(f *filter.Filter) {
		f.DisplayVariants = filter.NewOrderedMap("Alpha", "Hard")
	})

	name, err := e.DescriptiveName(creature("Rex", "Dinosaur.Rex_C", "Alpha"))
	require.NoError(t, err)
	assert.Equal(t, "Rex (Hard)", name)
}

func TestDescriptiveName_FirstDeclaredVariantWins(t *testing.T) {
	e := newEngine(t, func(f *filter.Filter) {
		f.DisplayVariants = filter.NewOrderedMap("Tek", "", "Alpha", "Hard")
	})

	name, err := e.DescriptiveName(creature("Rex", "Dinosaur.Rex_C", "Alpha", "Tek"))
	require.NoError(t, err)
	assert.Equal(t, "Rex (Tek)", name)
}

func TestDescriptiveName_OverridePrecedence(t *testing.T) {
	e := newEngine(t, func(f *filter.Filter) {
		f.NameOverrides = filter.NewOrderedMap("Rex", "By Name", "Rex_C", "By Class")
		f.DisplayVariants = filter.NewOrderedMap("Alpha", "Hard")
	})

	name, err := e.DescriptiveName(creature("Rex", "Dinosaur.Rex_C", "Alpha"))
	require.NoError(t, err)
	assert.Equal(t, "By Class", name)

	name, err = e.DescriptiveName(creature("Rex", "Other.Other_C"))
	require.NoError(t, err)
	assert.Equal(t, "By Name", name)

	name, err = e.DescriptiveName(creature("Spino", "Other.Spino_C", "Alpha"))
	require.NoError(t, err)
	assert.Equal(t, "Spino (Hard)", name)
}

func TestDescriptiveName_EmptyOverrideFallsThrough(t *testing.T) {
	e := newEngine(t, func(f *filter.Filter) {
		f.NameOverrides = filter.NewOrderedMap("Rex_C", "", "Rex", "By Name")
		f.DisplayVariants = filter.NewOrderedMap("Alpha", "Hard")
	})

	name, err := e.DescriptiveName(creature("Rex", "Dinosaur.Rex_C"))
	require.NoError(t, err)
	assert.Equal(t, "By Name", name)

	e = newEngine(t, func(f *filter.Filter) {
		f.NameOverrides = filter.NewOrderedMap("Rex_C", "")
		f.DisplayVariants = filter.NewOrderedMap("Alpha", "Hard")
	})

	name, err = e.DescriptiveName(creature("Rex", "Dinosaur.Rex_C", "Alpha"))
	require.NoError(t, err)
	assert.Equal(t, "Rex (Hard)", name)
}

func TestDescriptiveName_DebugNames(t *testing.T) {
	e := newEngine(t, func(f *filter.Filter) {
		f.DebugNames = true
		f.NameOverrides = filter.NewOrderedMap("Rex_C", "Tyrannosaurus")
	})

	name, err := e.DescriptiveName(creature("Rex", "Dinosaur.Rex_C"))
	require.NoError(t, err)
	assert.Equal(t, "Tyrannosaurus (Rex_C)", name)
}

func TestDescriptiveName_NoClassIDNeeded(t *testing.T) {
	e := newEngine(t, nil)

	name, err := e.DescriptiveName(species.NewEntity(map[string]interface{}{"name": "Ghost"}))
	require.NoError(t, err)
	assert.Equal(t, "Ghost", name)
	assert.Zero(t, e.Resolver().Len())
}

func TestDescriptiveName_Deterministic(t *testing.T) {
	e := newEngine(t, func(f *filter.Filter) {
		f.DebugNames = true
		f.DisplayVariants = filter.NewOrderedMap("Alpha", "")
	})

	ent := creature("Rex", "Dinosaur.Rex_C", "Alpha")

	a, err := e.DescriptiveName(ent)
	require.NoError(t, err)
	b, err := e.DescriptiveName(ent)
	require.NoError(t, err)

	assert.Equal(t, "Rex (Alpha) (Rex_C)", a)
	assert.Equal(t, a, b)
}

func TestSortByName(t *testing.T) {
	e := newEngine(t, func(f *filter.Filter) {
		f.NameOverrides = filter.NewOrderedMap("Dodo_C", "Aardvark")
	})

	ents := dataset()

	sorted, err := e.SortByName(ents)
	require.NoError(t, err)

	names := make([]string, len(sorted))
	for i, s := range sorted {
		names[i] = s.Name()
	}

	assert.Equal(t, []string{"Dodo", "Rex", "Spino", "Stego"}, names)
	assert.Equal(t, "Rex", ents[0].Name())
}
