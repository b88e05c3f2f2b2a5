package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// Defaults
// ---------------------------------------------------------------------------

func TestDefaultProject(t *testing.T) {
	cfg := DefaultProject()

	assert.Equal(t, "filters/cloning_filter.yml", cfg.Report(ReportCloning).Filter)
	assert.Equal(t, "filters/wildstats_filter.yml", cfg.Report(ReportWildStats).Filter)
	assert.Equal(t, "output/dv.json", cfg.Report(ReportDataValues).Output)
	assert.Equal(t, "text", cfg.Report(ReportSelectorTest).Format)
	assert.Empty(t, cfg.Report(ReportMatch).Filter)

	for _, name := range ReportNames() {
		assert.Contains(t, cfg.Reports, name)
	}
}

func TestProjectConfig_NilReport(t *testing.T) {
	var cfg *ProjectConfig
	assert.Equal(t, "filters/dv_filter.yml", cfg.Report(ReportDataValues).Filter)
}

// ---------------------------------------------------------------------------
// Parse
// ---------------------------------------------------------------------------

func TestParseProjectConfig_Overlay(t *testing.T) {
	data := []byte(`
log-level: debug
reports:
  cloning:
    output: out/cloning.yaml
    format: yaml
  dvjson:
    filter: custom/dv.yml
`)

	cfg, err := ParseProjectConfig(data)
	require.NoError(t, err)

	cloning := cfg.Report(ReportCloning)
	assert.Equal(t, "filters/cloning_filter.yml", cloning.Filter)
	assert.Equal(t, "out/cloning.yaml", cloning.Output)
	assert.Equal(t, "yaml", cloning.Format)

	dv := cfg.Report(ReportDataValues)
	assert.Equal(t, "custom/dv.yml", dv.Filter)
	assert.Equal(t, "output/dv.json", dv.Output)
}

func TestParseProjectConfig_Empty(t *testing.T) {
	cfg, err := ParseProjectConfig(nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultProject(), cfg)
}

func TestParseProjectConfig_UnknownReport(t *testing.T) {
	_, err := ParseProjectConfig([]byte("reports:\n  breeding: {}\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown report")
	assert.Contains(t, err.Error(), "available: cloning")
}

func TestParseProjectConfig_InvalidFormat(t *testing.T) {
	_, err := ParseProjectConfig([]byte("reports:\n  cloning:\n    format: csv\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid format "csv"`)
}

func TestParseProjectConfig_Malformed(t *testing.T) {
	_, err := ParseProjectConfig([]byte("reports: [1, 2"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing project config")
}

// ---------------------------------------------------------------------------
// Load
// ---------------------------------------------------------------------------

func TestLoadProjectConfig_ResolvesRelativePaths(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, ".dinofilter.yaml")
	require.NoError(t, os.WriteFile(p, []byte("reports:\n  wildstats:\n    output: /abs/stats.json\n"), 0o600))

	cfg, err := LoadProjectConfig(p)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "filters/wildstats_filter.yml"), cfg.Report(ReportWildStats).Filter)
	assert.Equal(t, "/abs/stats.json", cfg.Report(ReportWildStats).Output)
	assert.Empty(t, cfg.Report(ReportMatch).Output)
}

func TestLoadProjectConfig_NoFile(t *testing.T) {
	cfg, err := LoadProjectConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultProject(), cfg)

	cfg, err = LoadProjectConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultProject(), cfg)
}

func TestLoadProjectConfig_InvalidFile(t *testing.T) {
	p := writeTempConfig(t, "reports:\n  nope: {}\n")

	_, err := LoadProjectConfig(p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), p)
}

func TestProjectContext(t *testing.T) {
	assert.Equal(t, DefaultProject(), ProjectFromContext(context.Background()))

	p := &ProjectConfig{Reports: map[string]ReportDefaults{ReportMatch: {Format: "json"}}}
	ctx := NewContextWithProject(context.Background(), p)
	assert.Same(t, p, ProjectFromContext(ctx))
}
