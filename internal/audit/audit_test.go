package audit_test

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/dinofilter/internal/audit"
	"github.com/hupe1980/dinofilter/internal/filter"
	"github.com/hupe1980/dinofilter/internal/selector"
	"github.com/hupe1980/dinofilter/internal/species"
)

const dataset = `{
  "version": "2.0",
  "species": [
    {"name": "Rex", "bp": "/Game/Dinos/Rex/Rex_Character_BP.Rex_Character_BP_C"},
    {"name": "Rex", "bp": "/Game/Dinos/Rex/Alpha_Rex_Character_BP.Alpha_Rex_Character_BP_C", "variants": ["Alpha"]},
    {"name": "Raptor", "bp": "/Game/Dinos/Raptor/Raptor_Character_BP.Raptor_Character_BP_C"},
    {"name": "Dodo", "bp": "/Game/Mods/Dodo/Dodo_Character_BP.Dodo_Character_BP_C"}
  ]
}`

func run(t *testing.T, doc string, checks ...audit.Check) *audit.Result {
	t.Helper()

	flt, err := filter.NewLoader(filter.DefaultRegistry()).Parse("filter.yml", []byte(doc))
	require.NoError(t, err)

	eng, err := selector.NewEngine(flt, nil)
	require.NoError(t, err)

	ds, err := species.ParseDataset([]byte(dataset))
	require.NoError(t, err)

	res, err := audit.New(checks...).Run(context.Background(), eng, ds)
	require.NoError(t, err)

	return res
}

func values(res *audit.Result, ruleID string) []string {
	var out []string

	for _, f := range res.Findings {
		if f.RuleID == ruleID {
			out = append(out, f.Value)
		}
	}

	return out
}

// ---------------------------------------------------------------------------
// Severity
// ---------------------------------------------------------------------------

func TestSeverity_String(t *testing.T) {
	tests := []struct {
		sev  audit.Severity
		want string
	}{
		{audit.SeverityInfo, "info"},
		{audit.SeverityLow, "low"},
		{audit.SeverityMedium, "medium"},
		{audit.SeverityHigh, "high"},
		{audit.Severity(99), "unknown(99)"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.sev.String())
		})
	}
}

func TestParseSeverity(t *testing.T) {
	tests := []struct {
		input   string
		want    audit.Severity
		wantErr bool
	}{
		{"HIGH", audit.SeverityHigh, false},
		{"  medium  ", audit.SeverityMedium, false},
		{"low", audit.SeverityLow, false},
		{"info", audit.SeverityInfo, false},
		{"", audit.SeverityInfo, true},
		{"critical", audit.SeverityInfo, true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := audit.ParseSeverity(tt.input)
			assert.Equal(t, tt.want, got)

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestResult_Passed(t *testing.T) {
	res := &audit.Result{Findings: []audit.Finding{{Severity: audit.SeverityMedium}}}

	assert.True(t, res.Passed(audit.SeverityHigh))
	assert.False(t, res.Passed(audit.SeverityMedium))
	assert.True(t, (&audit.Result{}).Passed(audit.SeverityInfo))
}

// ---------------------------------------------------------------------------
// Built-in checks
// ---------------------------------------------------------------------------

func TestMissingClassCheck(t *testing.T) {
	res := run(t, `filter:
  ignoreDinoClasses: [Raptr_Character_BP_C, Dodo_Character_BP_C]
  includeDinoClasses: [Wyvern_Character_BP_C]
`, &audit.MissingClassCheck{})

	require.Len(t, res.Findings, 2)
	assert.Equal(t, "includeDinoClasses", res.Findings[0].Field)
	assert.Equal(t, "Wyvern_Character_BP_C", res.Findings[0].Value)
	assert.Equal(t, "Raptr_Character_BP_C", res.Findings[1].Value)
	assert.Equal(t, "did you mean Raptor_Character_BP_C?", res.Findings[1].Remediation)
	assert.Equal(t, audit.SeverityHigh, res.Findings[1].Severity)
}

func TestConflictingClassCheck(t *testing.T) {
	res := run(t, `filter:
  includeDinoClasses: [Rex_Character_BP_C, Rex_Character_BP_C]
  ignoreDinoClasses: [Rex_Character_BP_C, Dodo_Character_BP_C]
`, &audit.ConflictingClassCheck{})

	assert.Equal(t, []string{"Rex_Character_BP_C"}, values(res, "FLT-002"))
}

func TestDeadPathCheck(t *testing.T) {
	res := run(t, `filter:
  ignorePaths: [Game/Mods, Game/Mod]
  includePaths: [/Game/Dinos/]
`, &audit.DeadPathCheck{})

	assert.Equal(t, []string{"Game/Mod"}, values(res, "FLT-003"))
}

func TestUnusedOverrideCheck(t *testing.T) {
	res := run(t, `namespace: DataValues
filter:
  nameOverrides:
    Raptor_Character_BP_C: Utahraptor
    Rex: T-Rex
    Spino: Spinosaurus
  idOverrides:
    Utahraptor: raptor
    Dodo: dodo
    Giga: giga
`, &audit.UnusedOverrideCheck{})

	assert.Equal(t, []string{"Spino", "Giga"}, values(res, "FLT-004"))
}

func TestUnusedVariantCheck(t *testing.T) {
	res := run(t, `filter:
  displayVariants:
    Alpha: Alpha
    Tek: Tek
  ignoreDinosWithVariants: [Aberrant]
`, &audit.UnusedVariantCheck{})

	assert.Equal(t, []string{"Tek", "Aberrant"}, values(res, "FLT-005"))
}

func TestShadowedRuleCheck(t *testing.T) {
	res := run(t, `filter:
  ignoreDinosWithVariants: [Alpha]
  includePaths: [Game/Dinos]
  dinoClasses: [Rex_Character_BP_C]
`, &audit.ShadowedRuleCheck{})

	require.Len(t, res.Findings, 2)
	assert.Equal(t, "includePaths", res.Findings[0].Field)
	assert.Equal(t, "dinoClasses", res.Findings[1].Field)

	none := run(t, "filter:\n  includePaths: [Game/Dinos]\n", &audit.ShadowedRuleCheck{})
	assert.Empty(t, none.Findings)

	cloning := run(t, `namespace: Cloning
filter:
  ignoreDinosWithVariants: [Alpha]
  dinoClasses: [Rex_Character_BP_C]
`, &audit.ShadowedRuleCheck{})
	assert.Empty(t, cloning.Findings)
}

func TestDuplicateNameCheck(t *testing.T) {
	res := run(t, "filter: {}\n", &audit.DuplicateNameCheck{})
	assert.Equal(t, []string{"Rex"}, values(res, "FLT-007"))
	assert.Contains(t, res.Findings[0].Message, `2 selected creatures are named "Rex"`)

	fixed := run(t, "filter:\n  displayVariants:\n    Alpha: Alpha\n", &audit.DuplicateNameCheck{})
	assert.Empty(t, fixed.Findings)
}

func TestDuplicateEntryCheck(t *testing.T) {
	res := run(t, `filter:
  ignorePaths: [Game/Mods, Game/Mods, Game/Mods]
  ignoreDinoClasses: [Dodo_Character_BP_C]
`, &audit.DuplicateEntryCheck{})

	assert.Equal(t, []string{"Game/Mods"}, values(res, "FLT-008"))
}

func TestAuditor_SortsBySeverity(t *testing.T) {
	res := run(t, `filter:
  ignoreDinoClasses: [Wyvern_Character_BP_C]
  ignorePaths: [Game/Nowhere]
`, audit.DefaultChecks()...)

	require.NotEmpty(t, res.Findings)
	assert.Equal(t, "FLT-001", res.Findings[0].RuleID)

	for i := 1; i < len(res.Findings); i++ {
		assert.GreaterOrEqual(t, res.Findings[i-1].Severity, res.Findings[i].Severity)
	}

	assert.Equal(t, 1, res.Summary["high"])
	assert.False(t, res.Passed(audit.SeverityHigh))
}

func TestAuditor_MissingPath(t *testing.T) {
	flt := filter.New()

	eng, err := selector.NewEngine(flt, nil)
	require.NoError(t, err)

	ds := &species.Dataset{Species: []*species.Entity{species.NewEntity(map[string]interface{}{"name": "Ghost"})}}

	_, err = audit.New(audit.DefaultChecks()...).Run(context.Background(), eng, ds)
	require.Error(t, err)
}

// ---------------------------------------------------------------------------
// Policies
// ---------------------------------------------------------------------------

func TestParsePolicy(t *testing.T) {
	pf, err := audit.ParsePolicy([]byte(`rules:
  - id: TEAM-001
    severity: high
    condition: excluded
    match:
      variant: Alpha
`))
	require.NoError(t, err)
	require.Len(t, pf.Rules, 1)
	assert.Equal(t, "Alpha", pf.Rules[0].Match.Variant)
}

func TestParsePolicy_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"missing id", "rules:\n  - severity: low\n    condition: included\n    match: {variant: Alpha}\n", "missing id"},
		{"bad severity", "rules:\n  - id: X\n    severity: urgent\n    condition: included\n    match: {variant: Alpha}\n", "unknown severity"},
		{"bad condition", "rules:\n  - id: X\n    severity: low\n    condition: hidden\n    match: {variant: Alpha}\n", "unknown condition"},
		{"empty match", "rules:\n  - id: X\n    severity: low\n    condition: included\n", "selects nothing"},
		{"malformed", "rules: [", "parsing policy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := audit.ParsePolicy([]byte(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadPolicyFile_Missing(t *testing.T) {
	_, err := audit.LoadPolicyFile("/nonexistent/policy.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading policy file")
}

func TestPolicyChecks(t *testing.T) {
	pf, err := audit.ParsePolicy([]byte(`rules:
  - id: TEAM-001
    severity: medium
    condition: excluded
    match:
      variant: Alpha
    remediation: add Alpha to ignoreDinosWithVariants
  - id: TEAM-002
    severity: high
    condition: included
    match:
      paths: [Game/Mods]
      classes: [Dodo_Character_BP_C]
    message: modded dodo must stay
`))
	require.NoError(t, err)

	res := run(t, "filter:\n  ignorePaths: [Game/Mods]\n", audit.PolicyChecks(pf)...)

	require.Len(t, res.Findings, 2)
	assert.Equal(t, "TEAM-002", res.Findings[0].RuleID)
	assert.Equal(t, "modded dodo must stay", res.Findings[0].Message)
	assert.Equal(t, "Dodo_Character_BP_C", res.Findings[0].Value)

	assert.Equal(t, "TEAM-001", res.Findings[1].RuleID)
	assert.Equal(t, "Alpha_Rex_Character_BP_C", res.Findings[1].Value)
	assert.Contains(t, res.Findings[1].Message, "must be excluded")

	clean := run(t, "filter:\n  ignoreDinosWithVariants: [Alpha]\n", audit.PolicyChecks(pf)...)
	assert.Empty(t, clean.Findings)
}

// ---------------------------------------------------------------------------
// Formatters
// ---------------------------------------------------------------------------

func sampleResult() *audit.Result {
	return &audit.Result{
		Findings: []audit.Finding{
			{RuleID: "FLT-001", Severity: audit.SeverityHigh, Field: "ignoreDinoClasses", Value: "Raptr_Character_BP_C", Message: "class Raptr_Character_BP_C is not in the dataset"},
			{RuleID: "FLT-007", Severity: audit.SeverityMedium, Value: "Rex", Message: `2 selected creatures are named "Rex"`},
		},
		Summary: map[string]int{"high": 1, "medium": 1},
	}
}

func TestNewFormatter(t *testing.T) {
	for _, format := range []string{"", "table", "JSON", "sarif"} {
		f, err := audit.NewFormatter(format)
		require.NoError(t, err, format)
		assert.NotNil(t, f)
	}

	_, err := audit.NewFormatter("xml")
	require.Error(t, err)
}

func TestTableFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&audit.TableFormatter{}).Format(&buf, sampleResult()))

	out := buf.String()
	assert.Contains(t, out, "SEVERITY")
	assert.Contains(t, out, "HIGH")
	assert.Contains(t, out, "ignoreDinoClasses")
	assert.Contains(t, out, "Findings: 2 total (1 high, 1 medium)")
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&audit.JSONFormatter{}).Format(&buf, sampleResult()))

	var got struct {
		Findings []map[string]string `json:"findings"`
		Total    int                 `json:"total"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))

	assert.Equal(t, 2, got.Total)
	assert.Equal(t, "high", got.Findings[0]["severity"])
	assert.NotContains(t, got.Findings[1], "field")
}

func TestSARIFFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&audit.SARIFFormatter{Version: "1.2.3"}).Format(&buf, sampleResult()))

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "2.1.0", got["version"])

	out := buf.String()
	assert.Contains(t, out, `"name": "dinofilter-audit"`)
	assert.Contains(t, out, `"version": "1.2.3"`)
	assert.Contains(t, out, `"level": "error"`)
	assert.Contains(t, out, `"fullyQualifiedName": "filter.ignoreDinoClasses[Raptr_Character_BP_C]"`)
}
