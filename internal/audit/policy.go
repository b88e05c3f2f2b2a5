package audit

import (
	"context"
	"fmt"
	"os"
	"strings"

	sigsyaml "sigs.k8s.io/yaml"

	"github.com/hupe1980/dinofilter/internal/blueprint"
	"github.com/hupe1980/dinofilter/internal/selector"
	"github.com/hupe1980/dinofilter/internal/species"
)

// Policy conditions.
const (
	ConditionIncluded = "included"
	ConditionExcluded = "excluded"
)

// PolicyFile represents a custom policy YAML file.
type PolicyFile struct {
	Rules []PolicyRule `json:"rules" yaml:"rules"`
}

// PolicyRule requires the creatures it matches to be included or excluded.
type PolicyRule struct {
	// ID is the unique rule identifier (e.g., "TEAM-001").
	ID string `json:"id" yaml:"id"`

	// Severity is the finding severity (high, medium, low, info).
	SeverityStr string `json:"severity" yaml:"severity"`

	// Match restricts the rule to specific creatures.
	Match PolicyMatch `json:"match" yaml:"match"`

	// Condition is what every matched creature must be: "included" or
	// "excluded".
	Condition string `json:"condition" yaml:"condition"`

	// Message is the finding message.
	Message string `json:"message" yaml:"message"`

	// Remediation suggests how to fix the issue.
	Remediation string `json:"remediation" yaml:"remediation"`
}

// PolicyMatch selects creatures by class id, path prefix or variant. Set
// criteria must all hold.
type PolicyMatch struct {
	Classes []string `json:"classes" yaml:"classes"`
	Paths   []string `json:"paths" yaml:"paths"`
	Variant string   `json:"variant" yaml:"variant"`
}

// LoadPolicyFile loads a custom policy file from disk.
func LoadPolicyFile(path string) (*PolicyFile, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is user-provided CLI arg
	if err != nil {
		return nil, fmt.Errorf("reading policy file %s: %w", path, err)
	}

	pf, err := ParsePolicy(data)
	if err != nil {
		return nil, fmt.Errorf("policy file %s: %w", path, err)
	}

	return pf, nil
}

// ParsePolicy decodes and validates a policy document.
func ParsePolicy(data []byte) (*PolicyFile, error) {
	var pf PolicyFile
	if err := sigsyaml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("parsing policy: %w", err)
	}

	for i, r := range pf.Rules {
		if r.ID == "" {
			return nil, fmt.Errorf("rule %d: missing id", i+1)
		}

		if _, err := ParseSeverity(r.SeverityStr); err != nil {
			return nil, fmt.Errorf("rule %s: %w", r.ID, err)
		}

		switch strings.ToLower(r.Condition) {
		case ConditionIncluded, ConditionExcluded:
		default:
			return nil, fmt.Errorf("rule %s: unknown condition %q (available: included, excluded)", r.ID, r.Condition)
		}

		if len(r.Match.Classes) == 0 && len(r.Match.Paths) == 0 && r.Match.Variant == "" {
			return nil, fmt.Errorf("rule %s: match selects nothing: set classes, paths or variant", r.ID)
		}
	}

	return &pf, nil
}

// PolicyChecks converts the rules of pf into checks.
func PolicyChecks(pf *PolicyFile) []Check {
	checks := make([]Check, 0, len(pf.Rules))
	for _, r := range pf.Rules {
		checks = append(checks, &policyCheck{rule: r})
	}

	return checks
}

// policyCheck adapts a PolicyRule to the Check interface.
type policyCheck struct {
	rule PolicyRule
}

func (p *policyCheck) ID() string { return p.rule.ID }

func (p *policyCheck) Run(_ context.Context, in *Input) ([]Finding, error) {
	sev, _ := ParseSeverity(p.rule.SeverityStr)
	wantIncluded := strings.EqualFold(p.rule.Condition, ConditionIncluded)

	included := make(map[*species.Entity]struct{}, len(in.Selection.Included))
	for _, ent := range in.Selection.Included {
		included[ent] = struct{}{}
	}

	classes := make(map[string]struct{}, len(p.rule.Match.Classes))
	for _, c := range p.rule.Match.Classes {
		classes[c] = struct{}{}
	}

	paths := selector.NewPathSet(p.rule.Match.Paths...)

	var findings []Finding

	for _, ent := range in.Dataset.Species {
		ok, err := p.matches(in, ent, classes, paths)
		if err != nil {
			return nil, err
		}

		if !ok {
			continue
		}

		if _, isIncluded := included[ent]; isIncluded == wantIncluded {
			continue
		}

		id, _ := in.Engine.Resolver().Cached(ent)

		msg := p.rule.Message
		if msg == "" {
			msg = fmt.Sprintf("%s must be %s", ent.Label(), strings.ToLower(p.rule.Condition))
		}

		findings = append(findings, Finding{
			RuleID:      p.rule.ID,
			Severity:    sev,
			Value:       id,
			Message:     msg,
			Remediation: p.rule.Remediation,
		})
	}

	return findings, nil
}

func (p *policyCheck) matches(in *Input, ent *species.Entity, classes map[string]struct{}, paths *selector.PathSet) (bool, error) {
	if len(classes) > 0 {
		id, err := in.Engine.ClassID(ent)
		if err != nil {
			return false, err
		}

		if _, ok := classes[id]; !ok {
			return false, nil
		}
	}

	if paths.Len() > 0 {
		path, err := blueprint.Path(ent, true)
		if err != nil {
			return false, err
		}

		if !paths.Contains(blueprint.LogicalPath(path)) {
			return false, nil
		}
	}

	if p.rule.Match.Variant != "" && !ent.HasVariant(p.rule.Match.Variant) {
		return false, nil
	}

	return true, nil
}
