package cli

import (
	"bytes"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hupe1980/dinofilter/internal/docs"
	"github.com/hupe1980/dinofilter/internal/filter"
	"github.com/hupe1980/dinofilter/internal/logging"
	"github.com/hupe1980/dinofilter/internal/output"
)

type docsOptions struct {
	format          string
	output          string
	title           string
	includeExamples bool
}

func newDocsCommand() *cobra.Command {
	opts := &docsOptions{}

	cmd := &cobra.Command{
		Use:   "docs",
		Short: "Generate a reference of the filter namespaces",
		Long: `Generate documentation of every filter namespace: the fields a filter
file may set, how layered files merge them and their default values.

Supported formats: markdown (default), html, asciidoc.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := docs.NewFormatter(opts.format)
			if err != nil {
				return &ExitError{Code: ExitConfig, Err: err}
			}

			model, err := docs.FromRegistry(filter.DefaultRegistry())
			if err != nil {
				return exitError(err)
			}

			model.Title = opts.title
			model.IncludeExamples = opts.includeExamples

			var buf bytes.Buffer
			if err := f.Format(&buf, model); err != nil {
				return exitError(fmt.Errorf("rendering docs: %w", err))
			}

			w := output.NewWriter(opts.output, cmd.OutOrStdout(),
				output.WithLogger(logging.FromContext(cmd.Context())))

			return exitError(w.Write(buf.Bytes()))
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.format, "format", "markdown", "output format: markdown, html, asciidoc")
	f.StringVarP(&opts.output, "output", "o", "", "output file (default: stdout)")
	f.StringVar(&opts.title, "title", "", "document title (default: "+docs.DefaultTitle+")")
	f.BoolVar(&opts.includeExamples, "include-examples", false, "append an example filter per namespace")

	return cmd
}
