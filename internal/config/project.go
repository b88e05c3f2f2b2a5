package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	sigsyaml "sigs.k8s.io/yaml"
)

// Report names known to the project config.
const (
	ReportCloning      = "cloning"
	ReportWildStats    = "wildstats"
	ReportDataValues   = "dvjson"
	ReportSelectorTest = "selectortest"
	ReportMatch        = "match"
)

// ReportNames lists every report in command order.
func ReportNames() []string {
	return []string{ReportCloning, ReportWildStats, ReportDataValues, ReportSelectorTest, ReportMatch}
}

// ReportDefaults are the per-report defaults used when a command gets no
// explicit filter, output or format.
type ReportDefaults struct {
	// Filter is the filter file of the report.
	Filter string `json:"filter,omitempty"`

	// Output is the report destination; empty writes to stdout.
	Output string `json:"output,omitempty"`

	// Format is the output format (json, yaml, text).
	Format string `json:"format,omitempty"`
}

// ProjectConfig holds the report defaults from the "reports" section of the
// config file (.dinofilter.yaml).
type ProjectConfig struct {
	Reports map[string]ReportDefaults `json:"reports,omitempty"`
}

// DefaultProject returns the report defaults of the stock repository layout.
func DefaultProject() *ProjectConfig {
	return &ProjectConfig{
		Reports: map[string]ReportDefaults{
			ReportCloning:      {Filter: "filters/cloning_filter.yml", Format: "json"},
			ReportWildStats:    {Filter: "filters/wildstats_filter.yml", Format: "json"},
			ReportDataValues:   {Filter: "filters/dv_filter.yml", Output: "output/dv.json", Format: "json"},
			ReportSelectorTest: {Filter: "filters/dv_filter.yml", Output: "output/selector-test-report.txt", Format: "text"},
			ReportMatch:        {Format: "text"},
		},
	}
}

// ParseProjectConfig parses the reports section from raw config file bytes
// and layers it over [DefaultProject]. Fields left empty keep their default.
func ParseProjectConfig(data []byte) (*ProjectConfig, error) {
	var raw ProjectConfig

	if err := sigsyaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing project config: %w", err)
	}

	if err := raw.Validate(); err != nil {
		return nil, err
	}

	cfg := DefaultProject()

	for name, r := range raw.Reports {
		def := cfg.Reports[name]

		if r.Filter != "" {
			def.Filter = r.Filter
		}

		if r.Output != "" {
			def.Output = r.Output
		}

		if r.Format != "" {
			def.Format = r.Format
		}

		cfg.Reports[name] = def
	}

	return cfg, nil
}

// LoadProjectConfig reads the project config from path. An empty path or a
// missing file yields the defaults. Relative filter and output paths are
// resolved against the directory of the file.
func LoadProjectConfig(path string) (*ProjectConfig, error) {
	if path == "" {
		return DefaultProject(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultProject(), nil
		}

		return nil, fmt.Errorf("reading project config %q: %w", path, err)
	}

	cfg, err := ParseProjectConfig(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	cfg.resolve(filepath.Dir(path))

	return cfg, nil
}

func (c *ProjectConfig) resolve(dir string) {
	rel := func(p string) string {
		if p == "" || filepath.IsAbs(p) || p == "-" {
			return p
		}

		return filepath.Join(dir, p)
	}

	for name, r := range c.Reports {
		r.Filter = rel(r.Filter)
		r.Output = rel(r.Output)
		c.Reports[name] = r
	}
}

// Validate rejects unknown report names and formats.
func (c *ProjectConfig) Validate() error {
	known := ReportNames()

	for name, r := range c.Reports {
		if !slices.Contains(known, name) {
			return fmt.Errorf("reports[%s]: unknown report (available: %s)", name, strings.Join(known, ", "))
		}

		switch strings.ToLower(r.Format) {
		case "", "json", "yaml", "text":
		default:
			return fmt.Errorf("reports[%s]: invalid format %q (must be json, yaml, or text)", name, r.Format)
		}
	}

	return nil
}

// Report returns the defaults of the named report.
func (c *ProjectConfig) Report(name string) ReportDefaults {
	if c == nil {
		return DefaultProject().Reports[name]
	}

	return c.Reports[name]
}

type ctxProjectKey struct{}

// NewContextWithProject returns a child context carrying p.
func NewContextWithProject(ctx context.Context, p *ProjectConfig) context.Context {
	return context.WithValue(ctx, ctxProjectKey{}, p)
}

// ProjectFromContext extracts the project config from ctx, falling back to
// [DefaultProject].
func ProjectFromContext(ctx context.Context) *ProjectConfig {
	if p, ok := ctx.Value(ctxProjectKey{}).(*ProjectConfig); ok {
		return p
	}

	return DefaultProject()
}
