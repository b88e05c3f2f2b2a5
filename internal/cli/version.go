package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hupe1980/dinofilter/internal/output"
	"github.com/hupe1980/dinofilter/internal/version"
)

func newVersionCommand() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  "Display the version, git commit, build date, Go version, and platform.",
		Args:  cobra.NoArgs,
		// Override parent PersistentPreRunE: version needs no config.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := version.GetInfo()

			if format == "" {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), info.String())
				return err
			}

			serialize, err := output.DefaultRegistry().Serializer(format)
			if err != nil {
				return &ExitError{Code: ExitConfig, Err: err}
			}

			data, err := serialize(info, output.Options{Pretty: true})
			if err != nil {
				return err
			}

			_, err = cmd.OutOrStdout().Write(data)

			return err
		},
	}

	cmd.Flags().StringVar(&format, "format", "", "output format: json, yaml, text (default: one line)")

	return cmd
}
