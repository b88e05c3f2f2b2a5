package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hupe1980/dinofilter/internal/docs"
	"github.com/hupe1980/dinofilter/internal/filter"
	"github.com/hupe1980/dinofilter/internal/output"
)

// namespaceInfo describes a registered filter namespace.
type namespaceInfo struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Fields      []fieldInfo `json:"fields"`
}

type fieldInfo struct {
	Name    string `json:"name"`
	Kind    string `json:"kind"`
	Default string `json:"default,omitempty"`
}

type namespaceList []namespaceInfo

func (l namespaceList) Tables() []output.Table {
	tables := make([]output.Table, 0, len(l))

	for _, ns := range l {
		rows := make([][]string, 0, len(ns.Fields))
		for _, f := range ns.Fields {
			def := f.Default
			if def == "" {
				def = "-"
			}

			rows = append(rows, []string{f.Name, f.Kind, def})
		}

		title := ns.Name
		if ns.Description != "" {
			title += ": " + ns.Description
		}

		tables = append(tables, output.Table{Title: title, Columns: []string{"Field", "Kind", "Default"}, Rows: rows})
	}

	return tables
}

// describeNamespaces lists the leaf fields of every namespace by dotted path.
func describeNamespaces(reg *filter.Registry) (namespaceList, error) {
	model, err := docs.FromRegistry(reg)
	if err != nil {
		return nil, err
	}

	out := make(namespaceList, 0, len(model.Namespaces))

	for _, ns := range model.Namespaces {
		info := namespaceInfo{Name: ns.Name, Description: ns.Description}

		for _, f := range docs.Flatten(ns.Fields) {
			if len(f.Children) > 0 {
				continue
			}

			info.Fields = append(info.Fields, fieldInfo{Name: f.Path, Kind: f.Kind, Default: f.Default})
		}

		out = append(out, info)
	}

	return out, nil
}

func newNamespacesCommand() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "namespaces",
		Short: "List filter namespaces and their fields",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			serialize, err := output.DefaultRegistry().Serializer(format)
			if err != nil {
				return &ExitError{Code: ExitConfig, Err: err}
			}

			list, err := describeNamespaces(filter.DefaultRegistry())
			if err != nil {
				return exitError(err)
			}

			data, err := serialize(list, output.Options{Pretty: true})
			if err != nil {
				return exitError(fmt.Errorf("rendering namespaces: %w", err))
			}

			_, err = fmt.Fprint(cmd.OutOrStdout(), string(data))

			return err
		},
	}

	cmd.Flags().StringVar(&format, "format", output.FormatText,
		"output format: "+strings.Join(output.DefaultRegistry().Formats(), ", "))

	return cmd
}
