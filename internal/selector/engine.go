// Package selector decides which creatures a filter selects and under which
// descriptive name they appear in reports.
package selector

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/hupe1980/dinofilter/internal/blueprint"
	"github.com/hupe1980/dinofilter/internal/filter"
	"github.com/hupe1980/dinofilter/internal/species"
)

// Rule identifies the step of the selection procedure that decided.
type Rule int

// Selection rules in evaluation order.
const (
	RuleNameMatch Rule = iota
	RuleIgnorePath
	RuleForceInclude
	RuleIgnoreClass
	RuleIgnoreVariant
	RuleSelectorDefault
	RuleIncludePath
	RuleDinoClasses
	RuleDefault
)

var ruleNames = [...]string{
	RuleNameMatch:       "nameMatch",
	RuleIgnorePath:      "ignorePaths",
	RuleForceInclude:    "includeDinoClasses",
	RuleIgnoreClass:     "ignoreDinoClasses",
	RuleIgnoreVariant:   "ignoreDinosWithVariants",
	RuleSelectorDefault: "selector",
	RuleIncludePath:     "includePaths",
	RuleDinoClasses:     "dinoClasses",
	RuleDefault:         "default",
}

func (r Rule) String() string {
	if r >= 0 && int(r) < len(ruleNames) {
		return ruleNames[r]
	}

	return fmt.Sprintf("Rule(%d)", int(r))
}

// Decision is the outcome of [Engine.Decide].
type Decision struct {
	Skip   bool
	Rule   Rule
	Reason string
}

// Engine evaluates one filter against creature records. It is safe for
// concurrent use once built; the filter must not be modified afterwards.
type Engine struct {
	filter   *filter.Filter
	resolver *blueprint.Resolver

	pattern      *regexp.Regexp
	ignorePaths  *PathSet
	includePaths *PathSet

	includeClasses map[string]struct{}
	ignoreClasses  map[string]struct{}
	ignoreVariants map[string]struct{}
	dinoClasses    map[string]struct{}
}

// NewEngine prepares flt for evaluation. A nil resolver gets a private one.
func NewEngine(flt *filter.Filter, resolver *blueprint.Resolver) (*Engine, error) {
	if resolver == nil {
		resolver = blueprint.NewResolver()
	}

	e := &Engine{
		filter:         flt,
		resolver:       resolver,
		ignorePaths:    NewPathSet(flt.IgnorePaths...),
		includePaths:   NewPathSet(flt.IncludePaths...),
		includeClasses: toSet(flt.IncludeDinoClasses),
		ignoreClasses:  toSet(flt.IgnoreDinoClasses),
		ignoreVariants: toSet(flt.IgnoreDinosWithVariants),
		dinoClasses:    toSet(flt.DinoClasses),
	}

	if flt.NameMatch != "" {
		re, err := regexp.Compile(flt.NameMatch)
		if err != nil {
			return nil, &filter.ConfigurationError{
				Path:  flt.Source(),
				Field: "nameMatch",
				Err:   fmt.Errorf("%w: %w", filter.ErrMalformedField, err),
			}
		}

		e.pattern = re
	}

	return e, nil
}

// Filter returns the filter the engine evaluates.
func (e *Engine) Filter() *filter.Filter { return e.filter }

// Resolver returns the class id resolver shared by the engine.
func (e *Engine) Resolver() *blueprint.Resolver { return e.resolver }

// ClassID returns the memoized class id of ent.
func (e *Engine) ClassID(ent *species.Entity) (string, error) {
	return e.resolver.ClassID(ent)
}

// ShouldSkip reports whether ent is excluded by the filter.
func (e *Engine) ShouldSkip(ent *species.Entity) (bool, error) {
	d, err := e.Decide(ent)
	if err != nil {
		return false, err
	}

	return d.Skip, nil
}

// Decide runs the selection procedure on ent. The first matching rule
// decides:
//
//  1. nameMatch set and the descriptive name does not match: skip
//  2. class-stripped path below an ignored path: skip
//  3. selector mode (any of the include/ignore class or variant lists set):
//     force-include, then ignored class, then ignored variant, else include
//  4. includePaths set and the path is not below one of them: skip
//  5. dinoClasses set and the class id is not listed: skip
//  6. include
//
// A record without a blueprint path yields a [*blueprint.LookupError].
func (e *Engine) Decide(ent *species.Entity) (Decision, error) {
	id, err := e.resolver.ClassID(ent)
	if err != nil {
		return Decision{}, err
	}

	if e.pattern != nil {
		name, err := e.DescriptiveName(ent)
		if err != nil {
			return Decision{}, err
		}

		if !e.pattern.MatchString(name) {
			return skip(RuleNameMatch, "name %q does not match %q", name, e.pattern.String()), nil
		}
	}

	var logical string

	if e.ignorePaths.Len() > 0 || e.includePaths.Len() > 0 {
		path, err := blueprint.Path(ent, true)
		if err != nil {
			return Decision{}, err
		}

		logical = blueprint.LogicalPath(path)
	}

	if e.ignorePaths.Contains(logical) {
		return skip(RuleIgnorePath, "path %s is ignored", logical), nil
	}

	if e.filter.SelectorMode() {
		if _, ok := e.includeClasses[id]; ok {
			return include(RuleForceInclude, "class %s is force-included", id), nil
		}

		if _, ok := e.ignoreClasses[id]; ok {
			return skip(RuleIgnoreClass, "class %s is ignored", id), nil
		}

		for _, v := range ent.Variants() {
			if _, ok := e.ignoreVariants[v]; ok {
				return skip(RuleIgnoreVariant, "variant %s is ignored", v), nil
			}
		}

		return include(RuleSelectorDefault, "not excluded by selector"), nil
	}

	if e.includePaths.Len() > 0 && !e.includePaths.Contains(logical) {
		return skip(RuleIncludePath, "path %s is not included", logical), nil
	}

	if len(e.dinoClasses) > 0 {
		if _, ok := e.dinoClasses[id]; !ok {
			return skip(RuleDinoClasses, "class %s is not listed", id), nil
		}
	}

	return include(RuleDefault, "no restricting rule"), nil
}

// DescriptiveName returns the display name of ent:
//
//   - a non-empty override keyed by class id, then by raw name
//   - otherwise the raw name, suffixed with " (<suffix>)" for the first
//     displayVariants entry, in declaration order, the record carries
//   - with debugNames, " (<class id>)" appended
func (e *Engine) DescriptiveName(ent *species.Entity) (string, error) {
	raw := ent.Name()
	name := raw
	overridden := false

	if e.filter.NameOverrides.Len() > 0 {
		id, err := e.resolver.ClassID(ent)
		if err != nil {
			return "", err
		}

		if v, ok := e.filter.NameOverrides.Get(id); ok && v != "" {
			name, overridden = v, true
		} else if v, ok := e.filter.NameOverrides.Get(raw); ok && v != "" {
			name, overridden = v, true
		}
	}

	if !overridden && e.filter.DisplayVariants.Len() > 0 {
		if variants := ent.Variants(); len(variants) > 0 {
			for _, entry := range e.filter.DisplayVariants.Entries() {
				if !ent.HasVariant(entry.Key) {
					continue
				}

				suffix := entry.Value
				if suffix == "" {
					suffix = entry.Key
				}

				name = raw + " (" + suffix + ")"

				break
			}
		}
	}

	if e.filter.DebugNames {
		id, err := e.resolver.ClassID(ent)
		if err != nil {
			return "", err
		}

		name += " (" + id + ")"
	}

	return name, nil
}

// SortByName returns a copy of ents stably sorted by descriptive name.
func (e *Engine) SortByName(ents []*species.Entity) ([]*species.Entity, error) {
	type named struct {
		name string
		ent  *species.Entity
	}

	items := make([]named, len(ents))

	for i, ent := range ents {
		name, err := e.DescriptiveName(ent)
		if err != nil {
			return nil, err
		}

		items[i] = named{name: name, ent: ent}
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].name < items[j].name
	})

	out := make([]*species.Entity, len(items))
	for i, it := range items {
		out[i] = it.ent
	}

	return out, nil
}

// ExcludedEntity records a creature removed by the filter.
type ExcludedEntity struct {
	Entity   *species.Entity
	Decision Decision
}

// Result partitions a dataset by selection outcome. Both lists keep input
// order.
type Result struct {
	Included []*species.Entity
	Excluded []ExcludedEntity
}

// Apply decides every record of ents.
func (e *Engine) Apply(ctx context.Context, ents []*species.Entity) (*Result, error) {
	r := &Result{}

	for _, ent := range ents {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		d, err := e.Decide(ent)
		if err != nil {
			return nil, err
		}

		if d.Skip {
			r.Excluded = append(r.Excluded, ExcludedEntity{Entity: ent, Decision: d})
		} else {
			r.Included = append(r.Included, ent)
		}
	}

	return r, nil
}

func skip(rule Rule, format string, args ...interface{}) Decision {
	return Decision{Skip: true, Rule: rule, Reason: fmt.Sprintf(format, args...)}
}

func include(rule Rule, format string, args ...interface{}) Decision {
	return Decision{Rule: rule, Reason: fmt.Sprintf(format, args...)}
}

func toSet(values []string) map[string]struct{} {
	m := make(map[string]struct{}, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			m[v] = struct{}{}
		}
	}

	return m
}
