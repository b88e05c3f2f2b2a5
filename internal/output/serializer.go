package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"
	sigsyaml "sigs.k8s.io/yaml"
)

// Options configures serialization.
type Options struct {
	// Pretty enables indented JSON.
	Pretty bool
	// Header prefixes the document with a version comment line.
	Header bool
	// Version is the dataset version written by Header.
	Version string
}

// ErrNotTabular is returned when text output is requested for a value that
// has no table representation.
var ErrNotTabular = errors.New("value has no table representation")

// Table is a titled text table.
type Table struct {
	Title   string
	Columns []string
	Rows    [][]string
}

// Tabular is implemented by reports with a text table rendering.
type Tabular interface {
	Tables() []Table
}

// SerializeJSON encodes v as JSON. Values implementing json.Marshaler keep
// their own key order. The header is "// Version: <v>".
func SerializeJSON(v interface{}, opts Options) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("serializing JSON: %w", err)
	}

	if opts.Pretty {
		var buf bytes.Buffer
		if err := json.Indent(&buf, data, "", "  "); err != nil {
			return nil, fmt.Errorf("formatting JSON: %w", err)
		}

		data = buf.Bytes()
	}

	return withHeader("// Version: ", data, opts), nil
}

// SerializeYAML encodes v as YAML. Values implementing yaml.Marshaler are
// encoded with yaml.v3 so that their key order survives; other values go
// through their JSON representation. The header is "# Version: <v>".
func SerializeYAML(v interface{}, opts Options) ([]byte, error) {
	var data []byte

	if _, ok := v.(yaml.Marshaler); ok {
		var buf bytes.Buffer

		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)

		if err := enc.Encode(v); err != nil {
			return nil, fmt.Errorf("serializing YAML: %w", err)
		}

		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("serializing YAML: %w", err)
		}

		data = buf.Bytes()
	} else {
		var err error

		data, err = sigsyaml.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("serializing YAML: %w", err)
		}
	}

	return withHeader("# Version: ", data, opts), nil
}

// SerializeText renders the tables of v.
func SerializeText(v interface{}, opts Options) ([]byte, error) {
	t, ok := v.(Tabular)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrNotTabular, v)
	}

	var buf bytes.Buffer
	if err := RenderTables(&buf, t.Tables()); err != nil {
		return nil, err
	}

	return withHeader("Version: ", buf.Bytes(), opts), nil
}

// RenderTables writes tables separated by blank lines:
//
//	=== TITLE ===
//
//	COLUMN A  COLUMN B
//	--------  --------
//	a         b
func RenderTables(w io.Writer, tables []Table) error {
	for i, t := range tables {
		if i > 0 {
			if _, err := fmt.Fprint(w, "\n\n"); err != nil {
				return err
			}
		}

		if _, err := fmt.Fprintf(w, "=== %s ===\n\n", strings.ToUpper(t.Title)); err != nil {
			return err
		}

		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

		dashes := make([]string, len(t.Columns))
		for j, c := range t.Columns {
			dashes[j] = strings.Repeat("-", len(c))
		}

		_, _ = fmt.Fprintln(tw, strings.Join(t.Columns, "\t"))
		_, _ = fmt.Fprintln(tw, strings.Join(dashes, "\t"))

		for _, row := range t.Rows {
			_, _ = fmt.Fprintln(tw, strings.Join(row, "\t"))
		}

		if err := tw.Flush(); err != nil {
			return fmt.Errorf("rendering table %q: %w", t.Title, err)
		}
	}

	return nil
}

func withHeader(prefix string, data []byte, opts Options) []byte {
	if len(data) > 0 && data[len(data)-1] != '\n' {
		data = append(data, '\n')
	}

	if !opts.Header || opts.Version == "" {
		return data
	}

	return append([]byte(prefix+opts.Version+"\n"), data...)
}
