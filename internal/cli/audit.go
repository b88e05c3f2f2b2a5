package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hupe1980/dinofilter/internal/audit"
	"github.com/hupe1980/dinofilter/internal/selector"
	"github.com/hupe1980/dinofilter/internal/species"
	"github.com/hupe1980/dinofilter/internal/version"
)

type auditOptions struct {
	dataset     string
	mod         string
	format      string
	failOn      string
	policyPaths []string
}

func newAuditCommand() *cobra.Command {
	opts := &auditOptions{}

	cmd := &cobra.Command{
		Use:   "audit <filter>...",
		Short: "Check a filter against a dataset for ineffective settings",
		Long: `Audit layers the given filter files, runs them against a dataset and
reports settings that select nothing, contradict each other or never take
effect: missing classes, dead path prefixes, unused overrides and variants,
rules shadowed by selector mode, duplicate names and repeated list entries.

Custom policy files add rules requiring matched creatures to be included
or excluded:

  rules:
    - id: TEAM-001
      severity: high
      condition: excluded
      match:
        variant: Alpha

Use --fail-on to set a severity threshold: the command exits with
code 4 if any finding meets or exceeds the threshold.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return exitError(runAudit(cmd.Context(), cmd, args, opts))
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.dataset, "dataset", "wiki", "dataset to audit against: wiki, stats, joined")
	f.StringVar(&opts.mod, "mod", species.CoreGame, "mod id of the stats data file")
	f.StringVar(&opts.format, "format", "table", "output format: table, json, sarif")
	f.StringVar(&opts.failOn, "fail-on", "", "fail with exit code 4 if findings >= severity (high, medium, low, info)")
	f.StringArrayVar(&opts.policyPaths, "policy", nil, "custom policy YAML files (can specify multiple)")

	return cmd
}

func runAudit(ctx context.Context, cmd *cobra.Command, paths []string, opts *auditOptions) error {
	formatter, err := audit.NewFormatter(opts.format)
	if err != nil {
		return &ExitError{Code: ExitConfig, Err: err}
	}

	if f, ok := formatter.(*audit.SARIFFormatter); ok {
		f.Version = version.GetInfo().Version
	}

	var threshold audit.Severity

	if opts.failOn != "" {
		if threshold, err = audit.ParseSeverity(opts.failOn); err != nil {
			return &ExitError{Code: ExitConfig, Err: err}
		}
	}

	src, err := parseDataSource(opts.dataset)
	if err != nil {
		return &ExitError{Code: ExitConfig, Err: err}
	}

	checks := audit.DefaultChecks()

	for _, path := range opts.policyPaths {
		pf, err := audit.LoadPolicyFile(path)
		if err != nil {
			return &ExitError{Code: ExitConfig, Err: err}
		}

		checks = append(checks, audit.PolicyChecks(pf)...)
	}

	flt, err := loadFilter(ctx, paths)
	if err != nil {
		return err
	}

	eng, err := selector.NewEngine(flt, nil)
	if err != nil {
		return err
	}

	ds, err := loadDataset(ctx, src, eng, opts.mod)
	if err != nil {
		return err
	}

	result, err := audit.New(checks...).Run(ctx, eng, ds)
	if err != nil {
		return err
	}

	if err := formatter.Format(cmd.OutOrStdout(), result); err != nil {
		return fmt.Errorf("formatting results: %w", err)
	}

	if opts.failOn != "" && !result.Passed(threshold) {
		return &ExitError{
			Code: ExitAudit,
			Err:  fmt.Errorf("audit failed: findings at or above %s severity", threshold),
		}
	}

	return nil
}
