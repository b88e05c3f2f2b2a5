package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"

	"github.com/hupe1980/dinofilter/internal/query"
	"github.com/hupe1980/dinofilter/internal/selector"
	"github.com/hupe1980/dinofilter/internal/species"
)

type validateOptions struct {
	dataset string
	mod     string
}

func newValidateCommand() *cobra.Command {
	opts := &validateOptions{}

	cmd := &cobra.Command{
		Use:   "validate <filter>...",
		Short: "Check filter files and their class lists",
		Long: `Validate loads the given filter files the way report commands layer
them and reports configuration errors: unknown namespaces, import cycles,
malformed fields and invalid nameMatch patterns.

With --dataset the class lists of the filter (dinoClasses,
includeDinoClasses, ignoreDinoClasses) are also checked against the
dataset, and the number of selected creatures is printed.

Exit codes:
  0  Filter is valid
  1  Error
  2  Configuration error
  3  Class list names classes missing from the dataset`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return exitError(runValidate(cmd.Context(), cmd, args, opts))
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.dataset, "dataset", "", "also check class lists against a dataset: wiki, stats, joined")
	f.StringVar(&opts.mod, "mod", species.CoreGame, "mod id of the stats data file")

	return cmd
}

func runValidate(ctx context.Context, cmd *cobra.Command, paths []string, opts *validateOptions) error {
	w := cmd.OutOrStdout()

	flt, err := loadFilter(ctx, paths)
	if err != nil {
		return err
	}

	eng, err := selector.NewEngine(flt, nil)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(w, "%s: OK (namespace %s, %d source(s))\n",
		strings.Join(paths, ", "), flt.Namespace, len(flt.Sources))

	if opts.dataset == "" {
		return nil
	}

	src, err := parseDataSource(opts.dataset)
	if err != nil {
		return &ExitError{Code: ExitConfig, Err: err}
	}

	ds, err := loadDataset(ctx, src, eng, opts.mod)
	if err != nil {
		return err
	}

	if err := eng.Resolver().Precompute(ds.Species); err != nil {
		return err
	}

	lists := []struct {
		field  string
		values []string
	}{
		{"dinoClasses", flt.DinoClasses},
		{"includeDinoClasses", flt.IncludeDinoClasses},
		{"ignoreDinoClasses", flt.IgnoreDinoClasses},
	}

	var errs *multierror.Error

	for _, l := range lists {
		if err := query.Validate(ds.Species, l.values, eng.ClassID); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("%s: %w", l.field, err))
		}
	}

	if err := errs.ErrorOrNil(); err != nil {
		return err
	}

	res, err := eng.Apply(ctx, ds.Species)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(w, "%d of %d creature(s) selected from %s dataset %s\n",
		len(res.Included), ds.Len(), src, ds.Version)

	return nil
}
