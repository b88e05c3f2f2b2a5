// Package audit provides quality checks for filters. A filter is run against
// a dataset and the checks report settings that select nothing, contradict
// each other or never take effect. It supports built-in rules, custom policy
// files, and multiple output formats (table, JSON, SARIF).
package audit

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/hupe1980/dinofilter/internal/selector"
	"github.com/hupe1980/dinofilter/internal/species"
)

// Severity ranks the impact of a finding.
type Severity int

const (
	// SeverityInfo is purely informational.
	SeverityInfo Severity = iota
	// SeverityLow indicates a setting without effect.
	SeverityLow
	// SeverityMedium indicates a setting that likely does not do what was meant.
	SeverityMedium
	// SeverityHigh indicates a filter that produces wrong or failing reports.
	SeverityHigh
)

// String returns the lowercase label for the severity.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityLow:
		return "low"
	case SeverityMedium:
		return "medium"
	case SeverityHigh:
		return "high"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// ParseSeverity parses a severity string (case-insensitive).
// Returns an error for unrecognised values.
func ParseSeverity(s string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "high":
		return SeverityHigh, nil
	case "medium":
		return SeverityMedium, nil
	case "low":
		return SeverityLow, nil
	case "info":
		return SeverityInfo, nil
	default:
		return SeverityInfo, fmt.Errorf("unknown severity %q, valid values: high, medium, low, info", s)
	}
}

// Finding represents a single audit result.
type Finding struct {
	RuleID      string   `json:"ruleId"`
	Severity    Severity `json:"severity"`
	Field       string   `json:"field"`
	Value       string   `json:"value"`
	Message     string   `json:"message"`
	Remediation string   `json:"remediation"`
}

// Input is what every check inspects: the engine of the filter, the dataset
// and the selection the engine made on it.
type Input struct {
	Engine    *selector.Engine
	Dataset   *species.Dataset
	Selection *selector.Result
}

// Check is the interface every audit rule must implement.
type Check interface {
	// ID returns the unique rule identifier (e.g. "FLT-001").
	ID() string
	// Run evaluates the input and returns any findings.
	Run(ctx context.Context, in *Input) ([]Finding, error)
}

// Result aggregates findings from all checks.
type Result struct {
	Findings []Finding      `json:"findings"`
	Summary  map[string]int `json:"summary"`
}

// Passed returns true when no finding meets or exceeds the threshold severity.
func (r *Result) Passed(threshold Severity) bool {
	for _, f := range r.Findings {
		if f.Severity >= threshold {
			return false
		}
	}

	return true
}

// Auditor orchestrates a set of checks against a filter and a dataset.
type Auditor struct {
	checks []Check
}

// New creates an Auditor with the given checks.
func New(checks ...Check) *Auditor {
	return &Auditor{checks: checks}
}

// Run selects the dataset with eng once and executes every registered check.
func (a *Auditor) Run(ctx context.Context, eng *selector.Engine, ds *species.Dataset) (*Result, error) {
	if err := eng.Resolver().Precompute(ds.Species); err != nil {
		return nil, err
	}

	sel, err := eng.Apply(ctx, ds.Species)
	if err != nil {
		return nil, err
	}

	in := &Input{Engine: eng, Dataset: ds, Selection: sel}

	var all []Finding

	for _, chk := range a.checks {
		found, err := chk.Run(ctx, in)
		if err != nil {
			return nil, fmt.Errorf("check %s: %w", chk.ID(), err)
		}

		all = append(all, found...)
	}

	// Sort: severity descending, then rule ID ascending.
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].Severity != all[j].Severity {
			return all[i].Severity > all[j].Severity
		}

		return all[i].RuleID < all[j].RuleID
	})

	summary := make(map[string]int)
	for _, f := range all {
		summary[f.Severity.String()]++
	}

	return &Result{Findings: all, Summary: summary}, nil
}

// DefaultChecks returns the built-in checks.
func DefaultChecks() []Check {
	return []Check{
		&MissingClassCheck{},
		&ConflictingClassCheck{},
		&DeadPathCheck{},
		&UnusedOverrideCheck{},
		&UnusedVariantCheck{},
		&ShadowedRuleCheck{},
		&DuplicateNameCheck{},
		&DuplicateEntryCheck{},
	}
}
