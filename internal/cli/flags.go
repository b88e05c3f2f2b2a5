package cli

import (
	"github.com/spf13/cobra"

	"github.com/hupe1980/dinofilter/internal/species"
)

// reportOptions are the flags shared by every report command.
type reportOptions struct {
	filters []string
	output  string
	format  string
	pretty  bool
	header  bool
	mod     string

	// set by the command from the flags the user changed
	prettySet bool
	headerSet bool
}

// registerFilterFlags adds the filter selection flag.
func registerFilterFlags(cmd *cobra.Command, opts *reportOptions) {
	cmd.Flags().StringArrayVarP(&opts.filters, "filter", "f", nil,
		"filter file; repeat to layer several files (default: from config)")
}

// registerOutputFlags adds the serialization and destination flags.
func registerOutputFlags(cmd *cobra.Command, opts *reportOptions) {
	f := cmd.Flags()
	f.StringVarP(&opts.output, "output", "o", "", `output file, "-" for stdout (default: from config)`)
	f.StringVar(&opts.format, "format", "", "output format: json, yaml, text (default: from config)")
	f.BoolVar(&opts.pretty, "pretty", false, "indent JSON output (default: from filter)")
	f.BoolVar(&opts.header, "header", false, "prefix output with the dataset version (default: from filter)")
}

// registerDatasetFlags adds the flags selecting the stats data file.
func registerDatasetFlags(cmd *cobra.Command, opts *reportOptions) {
	cmd.Flags().StringVar(&opts.mod, "mod", species.CoreGame, "mod id of the stats data file")
}

// registerReportFlags registers every report flag on cmd.
func registerReportFlags(cmd *cobra.Command, opts *reportOptions) {
	registerFilterFlags(cmd, opts)
	registerOutputFlags(cmd, opts)
	registerDatasetFlags(cmd, opts)
}

// captureChanged records which optional booleans the user set explicitly.
func (o *reportOptions) captureChanged(cmd *cobra.Command) {
	o.prettySet = cmd.Flags().Changed("pretty")
	o.headerSet = cmd.Flags().Changed("header")
}
