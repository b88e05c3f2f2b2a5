// Package cli implements the cobra command tree for dinofilter.
package cli

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/hupe1980/dinofilter/internal/blueprint"
	"github.com/hupe1980/dinofilter/internal/config"
	"github.com/hupe1980/dinofilter/internal/filter"
	"github.com/hupe1980/dinofilter/internal/logging"
	"github.com/hupe1980/dinofilter/internal/query"
)

// Process exit codes.
const (
	ExitFailure  = 1
	ExitConfig   = 2
	ExitCoverage = 3
	ExitAudit    = 4
)

// ExitError wraps an error with a specific process exit code.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}

	return fmt.Sprintf("exit code %d", e.Code)
}

func (e *ExitError) Unwrap() error { return e.Err }

// exitError attaches the exit code matching the cause of err: filter
// configuration errors exit with [ExitConfig], dataset coverage errors with
// [ExitCoverage], everything else, including record lookup errors, with
// [ExitFailure]. Errors that already carry a code are returned unchanged.
func exitError(err error) error {
	if err == nil {
		return nil
	}

	var (
		exitErr     *ExitError
		cfgErr      *filter.ConfigurationError
		coverageErr *query.CoverageError
		lookupErr   *blueprint.LookupError
	)

	switch {
	case errors.As(err, &exitErr):
		return err
	case errors.As(err, &cfgErr):
		return &ExitError{Code: ExitConfig, Err: err}
	case errors.As(err, &coverageErr):
		return &ExitError{Code: ExitCoverage, Err: err}
	case errors.As(err, &lookupErr):
		return &ExitError{Code: ExitFailure, Err: err}
	default:
		return &ExitError{Code: ExitFailure, Err: err}
	}
}

// Execute builds the command tree, runs it, and returns the exit code.
func Execute() int {
	cmd := NewRootCommand()

	if err := cmd.Execute(); err != nil {
		_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "Error:", err)

		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			return exitErr.Code
		}

		return ExitFailure
	}

	return 0
}

// NewRootCommand constructs the top-level cobra.Command with all
// subcommands attached.
func NewRootCommand() *cobra.Command {
	var cfgFile string

	cmd := &cobra.Command{
		Use:   "dinofilter",
		Short: "Select and name creatures from game datasets",
		Long: `dinofilter builds derived tables from creature datasets: cloning
costs, wild creature stats, data value records and selector test listings.

Which creatures go into a table and how they are named is described by
layered YAML filter files. Filters belong to a namespace, may import a base
filter and can override inherited settings.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cmd, cfgFile)
			if err != nil {
				return &ExitError{Code: ExitConfig, Err: err}
			}

			project, err := config.LoadProjectConfig(cfg.ConfigFile)
			if err != nil {
				return &ExitError{Code: ExitConfig, Err: err}
			}

			logger := logging.SetupWithWriter(cfg, cmd.ErrOrStderr())

			ctx := cmd.Context()
			ctx = config.NewContext(ctx, cfg)
			ctx = config.NewContextWithConfigFile(ctx, cfg.ConfigFile)
			ctx = config.NewContextWithProject(ctx, project)
			ctx = logging.NewContext(ctx, logger)
			cmd.SetContext(ctx)

			logger.Debug("configuration loaded",
				slog.String("logLevel", cfg.LogLevel),
				slog.String("dataDir", cfg.DataDir),
				slog.String("configFile", cfg.ConfigFile),
			)

			return nil
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default: .dinofilter.yaml)")
	pf.String("log-level", "info", "log level: debug, info, warn, error")
	pf.String("log-format", "text", "log format: text, json")
	pf.Bool("no-color", false, "disable colored output")
	pf.BoolP("quiet", "q", false, "suppress non-essential output")
	pf.String("data-dir", config.DefaultDataDir, "dataset root holding data/asb and data/wiki")

	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &ExitError{Code: ExitConfig, Err: err}
	})

	cmd.AddCommand(
		newReportCommand(cloningReport()),
		newReportCommand(wildStatsReport()),
		newReportCommand(dataValuesReport()),
		newReportCommand(selectorTestReport()),
		newMatchCommand(),
		newValidateCommand(),
		newAuditCommand(),
		newDiffCommand(),
		newWatchCommand(),
		newNamespacesCommand(),
		newDocsCommand(),
		newVersionCommand(),
		newCompletionCommand(),
	)

	return cmd
}
