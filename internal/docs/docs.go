// Package docs generates a reference of the filter namespaces: their fields,
// merge kinds and default values. It supports Markdown, HTML, and AsciiDoc
// output formats, with optional example filter documents.
package docs

import (
	"fmt"
	"strings"

	"github.com/hupe1980/dinofilter/internal/filter"
)

// FieldInfo describes a single filter field.
type FieldInfo struct {
	// Name is the YAML key (e.g., "pretty").
	Name string
	// Path is the dot-separated path below the filter block (e.g., "output.pretty").
	Path string
	// Kind is the merge category (scalar, sequence, mapping, nested).
	Kind string
	// Default is the rendered default value, if any.
	Default string
	// Children are the fields of a nested block.
	Children []FieldInfo
}

// NamespaceInfo describes one namespace.
type NamespaceInfo struct {
	Name        string
	Description string
	Fields      []FieldInfo
}

// DocModel is the structured data model for documentation generation.
type DocModel struct {
	// Title overrides the document title.
	Title string
	// Namespaces are ordered by name.
	Namespaces []NamespaceInfo
	// IncludeExamples controls whether an example filter is shown per namespace.
	IncludeExamples bool
}

// FromRegistry extracts a DocModel from the namespaces of reg. Defaults are
// read from a fresh filter of each namespace.
func FromRegistry(reg *filter.Registry) (*DocModel, error) {
	model := &DocModel{}

	for _, name := range reg.Names() {
		ns, err := reg.Lookup(name)
		if err != nil {
			return nil, err
		}

		model.Namespaces = append(model.Namespaces, NamespaceInfo{
			Name:        ns.Name,
			Description: ns.Description,
			Fields:      describeFields(ns.Fields, ns.New(), ""),
		})
	}

	return model, nil
}

func describeFields(fields []filter.Field, f *filter.Filter, parent string) []FieldInfo {
	out := make([]FieldInfo, 0, len(fields))

	for _, fd := range fields {
		path := fd.Name
		if parent != "" {
			path = parent + "." + fd.Name
		}

		fi := FieldInfo{Name: fd.Name, Path: path, Kind: fd.Kind.String()}

		if fd.Kind == filter.KindNested {
			fi.Children = describeFields(fd.Fields, f, path)
		} else {
			fi.Default = formatValue(fd.Value(f))
		}

		out = append(out, fi)
	}

	return out
}

// formatValue renders a default in flow YAML. Empty strings, lists and
// mappings render as "".
func formatValue(v interface{}) string {
	switch val := v.(type) {
	case string:
		if val == "" {
			return ""
		}

		return fmt.Sprintf("%q", val)
	case bool:
		return fmt.Sprintf("%t", val)
	case []string:
		if len(val) == 0 {
			return ""
		}

		return "[" + strings.Join(val, ", ") + "]"
	case filter.OrderedMap:
		if val.Len() == 0 {
			return ""
		}

		pairs := make([]string, 0, val.Len())
		for _, e := range val.Entries() {
			pairs = append(pairs, e.Key+": "+e.Value)
		}

		return "{" + strings.Join(pairs, ", ") + "}"
	default:
		return ""
	}
}

// Flatten returns fields with nested children following their parent.
func Flatten(fields []FieldInfo) []FieldInfo {
	var flat []FieldInfo

	for _, f := range fields {
		flat = append(flat, f)

		if len(f.Children) > 0 {
			flat = append(flat, Flatten(f.Children)...)
		}
	}

	return flat
}

// GenerateExampleYAML creates an example filter document for ns.
func GenerateExampleYAML(ns NamespaceInfo) string {
	var b strings.Builder

	if ns.Name != filter.DefaultNamespace {
		b.WriteString("namespace: ")
		b.WriteString(ns.Name)
		b.WriteString("\n")
	}

	b.WriteString("filter:\n")

	writeExampleFields(&b, ns.Fields, 2)

	return b.String()
}

func writeExampleFields(b *strings.Builder, fields []FieldInfo, indent int) {
	prefix := strings.Repeat(" ", indent)

	for _, f := range fields {
		b.WriteString(prefix)
		b.WriteString(f.Name)

		if len(f.Children) > 0 {
			b.WriteString(":\n")
			writeExampleFields(b, f.Children, indent+2)

			continue
		}

		b.WriteString(": ")

		if f.Default != "" {
			b.WriteString(f.Default)
		} else {
			b.WriteString(exampleValue(f.Kind))
		}

		b.WriteString("\n")
	}
}

func exampleValue(kind string) string {
	switch kind {
	case "sequence":
		return "[]"
	case "mapping":
		return "{}"
	default:
		return `""`
	}
}
