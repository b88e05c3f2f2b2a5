package audit

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/hupe1980/dinofilter/internal/blueprint"
	"github.com/hupe1980/dinofilter/internal/filter"
	"github.com/hupe1980/dinofilter/internal/query"
	"github.com/hupe1980/dinofilter/internal/selector"
	"github.com/hupe1980/dinofilter/internal/species"
)

// classLists returns the class list fields of f in evaluation order.
func classLists(f *filter.Filter) []struct {
	field  string
	values []string
} {
	return []struct {
		field  string
		values []string
	}{
		{"includeDinoClasses", f.IncludeDinoClasses},
		{"ignoreDinoClasses", f.IgnoreDinoClasses},
		{"dinoClasses", f.DinoClasses},
	}
}

func classIDs(in *Input) map[string]struct{} {
	ids := make(map[string]struct{}, in.Dataset.Len())

	for _, ent := range in.Dataset.Species {
		if id, ok := in.Engine.Resolver().Cached(ent); ok {
			ids[id] = struct{}{}
		}
	}

	return ids
}

// ---------------------------------------------------------------------------
// FLT-001: class list entries missing from the dataset
// ---------------------------------------------------------------------------

// MissingClassCheck reports class list entries no record carries.
type MissingClassCheck struct{}

func (c *MissingClassCheck) ID() string { return "FLT-001" }

func (c *MissingClassCheck) Run(_ context.Context, in *Input) ([]Finding, error) {
	var findings []Finding

	for _, l := range classLists(in.Engine.Filter()) {
		err := query.Validate(in.Dataset.Species, l.values, in.Engine.ClassID)
		if err == nil {
			continue
		}

		var cov *query.CoverageError
		if !errors.As(err, &cov) {
			return nil, err
		}

		for _, missing := range cov.Missing {
			fix := "remove the entry or correct the class name"
			if s, ok := cov.Suggestions[missing]; ok {
				fix = fmt.Sprintf("did you mean %s?", s)
			}

			findings = append(findings, Finding{
				RuleID:      c.ID(),
				Severity:    SeverityHigh,
				Field:       l.field,
				Value:       missing,
				Message:     fmt.Sprintf("class %s is not in the dataset", missing),
				Remediation: fix,
			})
		}
	}

	return findings, nil
}

// ---------------------------------------------------------------------------
// FLT-002: classes listed as both included and ignored
// ---------------------------------------------------------------------------

// ConflictingClassCheck reports classes that are force-included and ignored
// at the same time. Force-include wins.
type ConflictingClassCheck struct{}

func (c *ConflictingClassCheck) ID() string { return "FLT-002" }

func (c *ConflictingClassCheck) Run(_ context.Context, in *Input) ([]Finding, error) {
	f := in.Engine.Filter()

	ignored := make(map[string]struct{}, len(f.IgnoreDinoClasses))
	for _, id := range f.IgnoreDinoClasses {
		ignored[id] = struct{}{}
	}

	var findings []Finding

	seen := make(map[string]struct{})

	for _, id := range f.IncludeDinoClasses {
		if _, ok := ignored[id]; !ok {
			continue
		}

		if _, dup := seen[id]; dup {
			continue
		}

		seen[id] = struct{}{}

		findings = append(findings, Finding{
			RuleID:      c.ID(),
			Severity:    SeverityMedium,
			Field:       "ignoreDinoClasses",
			Value:       id,
			Message:     fmt.Sprintf("class %s is both force-included and ignored; it is included", id),
			Remediation: "remove the class from one of the lists",
		})
	}

	return findings, nil
}

// ---------------------------------------------------------------------------
// FLT-003: path prefixes matching no record
// ---------------------------------------------------------------------------

// DeadPathCheck reports ignorePaths and includePaths entries below which no
// record lives.
type DeadPathCheck struct{}

func (c *DeadPathCheck) ID() string { return "FLT-003" }

func (c *DeadPathCheck) Run(_ context.Context, in *Input) ([]Finding, error) {
	f := in.Engine.Filter()
	if len(f.IgnorePaths) == 0 && len(f.IncludePaths) == 0 {
		return nil, nil
	}

	paths := make([]string, 0, in.Dataset.Len())

	for _, ent := range in.Dataset.Species {
		p, err := blueprint.Path(ent, true)
		if err != nil {
			return nil, err
		}

		paths = append(paths, blueprint.LogicalPath(p))
	}

	var findings []Finding

	for _, l := range []struct {
		field  string
		values []string
	}{
		{"ignorePaths", f.IgnorePaths},
		{"includePaths", f.IncludePaths},
	} {
		for _, prefix := range l.values {
			set := selector.NewPathSet(prefix)
			if set.Len() == 0 {
				continue
			}

			used := false

			for _, p := range paths {
				if set.Contains(p) {
					used = true
					break
				}
			}

			if !used {
				findings = append(findings, Finding{
					RuleID:      c.ID(),
					Severity:    SeverityLow,
					Field:       l.field,
					Value:       prefix,
					Message:     fmt.Sprintf("no creature lives below %s", prefix),
					Remediation: "check the spelling; prefixes match whole path segments",
				})
			}
		}
	}

	return findings, nil
}

// ---------------------------------------------------------------------------
// FLT-004: name overrides matching no record
// ---------------------------------------------------------------------------

// UnusedOverrideCheck reports nameOverrides and idOverrides keys that match
// no record.
type UnusedOverrideCheck struct{}

func (c *UnusedOverrideCheck) ID() string { return "FLT-004" }

func (c *UnusedOverrideCheck) Run(_ context.Context, in *Input) ([]Finding, error) {
	f := in.Engine.Filter()
	ids := classIDs(in)

	names := make(map[string]struct{}, in.Dataset.Len())
	for _, ent := range in.Dataset.Species {
		names[ent.Name()] = struct{}{}
	}

	var findings []Finding

	for _, key := range f.NameOverrides.Keys() {
		_, byID := ids[key]
		_, byName := names[key]

		if byID || byName {
			continue
		}

		findings = append(findings, Finding{
			RuleID:      c.ID(),
			Severity:    SeverityMedium,
			Field:       "nameOverrides",
			Value:       key,
			Message:     fmt.Sprintf("override %s matches neither a class id nor a creature name", key),
			Remediation: "key overrides by class id (e.g. Rex_Character_BP_C) or raw name",
		})
	}

	if f.DataValues.IDOverrides.Len() == 0 {
		return findings, nil
	}

	descriptive := make(map[string]struct{}, len(in.Selection.Included))

	for _, ent := range in.Selection.Included {
		name, err := in.Engine.DescriptiveName(ent)
		if err != nil {
			return nil, err
		}

		descriptive[name] = struct{}{}
	}

	for _, key := range f.DataValues.IDOverrides.Keys() {
		if _, ok := descriptive[key]; ok {
			continue
		}

		findings = append(findings, Finding{
			RuleID:      c.ID(),
			Severity:    SeverityMedium,
			Field:       "idOverrides",
			Value:       key,
			Message:     fmt.Sprintf("id override %s matches no selected creature", key),
			Remediation: "key id overrides by descriptive name",
		})
	}

	return findings, nil
}

// ---------------------------------------------------------------------------
// FLT-005: variant tags carried by no record
// ---------------------------------------------------------------------------

// UnusedVariantCheck reports displayVariants and ignoreDinosWithVariants
// entries that no record carries.
type UnusedVariantCheck struct{}

func (c *UnusedVariantCheck) ID() string { return "FLT-005" }

func (c *UnusedVariantCheck) Run(_ context.Context, in *Input) ([]Finding, error) {
	f := in.Engine.Filter()

	carried := make(map[string]struct{})

	for _, ent := range in.Dataset.Species {
		for _, v := range ent.Variants() {
			carried[v] = struct{}{}
		}
	}

	var findings []Finding

	report := func(field, tag string) {
		if _, ok := carried[tag]; ok {
			return
		}

		findings = append(findings, Finding{
			RuleID:      c.ID(),
			Severity:    SeverityLow,
			Field:       field,
			Value:       tag,
			Message:     fmt.Sprintf("no creature carries variant %s", tag),
			Remediation: "remove the entry or correct the variant tag",
		})
	}

	for _, tag := range f.DisplayVariants.Keys() {
		report("displayVariants", tag)
	}

	for _, tag := range f.IgnoreDinosWithVariants {
		report("ignoreDinosWithVariants", tag)
	}

	return findings, nil
}

// ---------------------------------------------------------------------------
// FLT-006: rules that selector mode never consults
// ---------------------------------------------------------------------------

// ShadowedRuleCheck reports includePaths and dinoClasses on filters in
// selector mode: selection stops at the class and variant lists, so the
// path allow list and the class allow list are never consulted.
type ShadowedRuleCheck struct{}

func (c *ShadowedRuleCheck) ID() string { return "FLT-006" }

func (c *ShadowedRuleCheck) Run(_ context.Context, in *Input) ([]Finding, error) {
	f := in.Engine.Filter()
	if !f.SelectorMode() {
		return nil, nil
	}

	var findings []Finding

	if len(f.IncludePaths) > 0 {
		findings = append(findings, Finding{
			RuleID:      c.ID(),
			Severity:    SeverityInfo,
			Field:       "includePaths",
			Message:     "includePaths has no effect while class or variant selector lists are set",
			Remediation: "use ignorePaths, or move the path restriction into a separate filter",
		})
	}

	if len(f.DinoClasses) > 0 && f.Namespace != filter.NamespaceCloning {
		findings = append(findings, Finding{
			RuleID:      c.ID(),
			Severity:    SeverityInfo,
			Field:       "dinoClasses",
			Message:     "dinoClasses has no effect while class or variant selector lists are set",
			Remediation: "use includeDinoClasses instead",
		})
	}

	return findings, nil
}

// ---------------------------------------------------------------------------
// FLT-007: selected creatures sharing a descriptive name
// ---------------------------------------------------------------------------

// DuplicateNameCheck reports selected creatures that end up under the same
// descriptive name; reports keep only one of them.
type DuplicateNameCheck struct{}

func (c *DuplicateNameCheck) ID() string { return "FLT-007" }

func (c *DuplicateNameCheck) Run(_ context.Context, in *Input) ([]Finding, error) {
	byName := make(map[string][]*species.Entity)

	for _, ent := range in.Selection.Included {
		name, err := in.Engine.DescriptiveName(ent)
		if err != nil {
			return nil, err
		}

		byName[name] = append(byName[name], ent)
	}

	names := make([]string, 0, len(byName))
	for name, ents := range byName {
		if len(ents) > 1 {
			names = append(names, name)
		}
	}

	sort.Strings(names)

	findings := make([]Finding, 0, len(names))

	for _, name := range names {
		findings = append(findings, Finding{
			RuleID:      c.ID(),
			Severity:    SeverityMedium,
			Value:       name,
			Message:     fmt.Sprintf("%d selected creatures are named %q", len(byName[name]), name),
			Remediation: "add displayVariants or nameOverrides to tell them apart",
		})
	}

	return findings, nil
}

// ---------------------------------------------------------------------------
// FLT-008: repeated list entries
// ---------------------------------------------------------------------------

// DuplicateEntryCheck reports values listed more than once in a list field,
// typically the result of layering files that repeat each other.
type DuplicateEntryCheck struct{}

func (c *DuplicateEntryCheck) ID() string { return "FLT-008" }

func (c *DuplicateEntryCheck) Run(_ context.Context, in *Input) ([]Finding, error) {
	f := in.Engine.Filter()

	lists := append(classLists(f), []struct {
		field  string
		values []string
	}{
		{"ignorePaths", f.IgnorePaths},
		{"includePaths", f.IncludePaths},
		{"ignoreDinosWithVariants", f.IgnoreDinosWithVariants},
	}...)

	var findings []Finding

	for _, l := range lists {
		counts := make(map[string]int, len(l.values))

		for _, v := range l.values {
			counts[v]++

			if counts[v] == 2 {
				findings = append(findings, Finding{
					RuleID:      c.ID(),
					Severity:    SeverityInfo,
					Field:       l.field,
					Value:       v,
					Message:     fmt.Sprintf("%s is listed more than once", v),
					Remediation: "list fields append across layered files; remove the repeat",
				})
			}
		}
	}

	return findings, nil
}
