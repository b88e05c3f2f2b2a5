package docs

import (
	"fmt"
	"html/template"
	"io"
	"strings"
	"text/tabwriter"
)

// DefaultTitle is used when the model carries no title.
const DefaultTitle = "Filter Reference"

// Formatter renders a DocModel to a writer.
type Formatter interface {
	Format(w io.Writer, model *DocModel) error
}

// NewFormatter returns a formatter for the given format name.
func NewFormatter(format string) (Formatter, error) {
	switch strings.ToLower(format) {
	case "markdown", "md":
		return &MarkdownFormatter{}, nil
	case "html":
		return &HTMLFormatter{}, nil
	case "asciidoc", "adoc":
		return &AsciiDocFormatter{}, nil
	default:
		return nil, fmt.Errorf("unsupported docs format: %s (available: markdown, html, asciidoc)", format)
	}
}

func title(model *DocModel) string {
	if model.Title != "" {
		return model.Title
	}

	return DefaultTitle
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}

	return s
}

// ---------------------------------------------------------------------------
// Markdown
// ---------------------------------------------------------------------------

// MarkdownFormatter renders documentation as Markdown.
type MarkdownFormatter struct{}

func (f *MarkdownFormatter) Format(w io.Writer, model *DocModel) error {
	fmt.Fprintf(w, "# %s\n\n", title(model))

	for _, ns := range model.Namespaces {
		fmt.Fprintf(w, "## %s\n\n", ns.Name)

		if ns.Description != "" {
			fmt.Fprintf(w, "%s\n\n", ns.Description)
		}

		tw := tabwriter.NewWriter(w, 0, 0, 1, ' ', 0)

		fmt.Fprintln(tw, "| Field\t| Kind\t| Default\t|")
		fmt.Fprintln(tw, "|-------\t|------\t|---------\t|")

		for _, fi := range Flatten(ns.Fields) {
			if len(fi.Children) > 0 {
				continue
			}

			fmt.Fprintf(tw, "| `%s`\t| %s\t| %s\t|\n", fi.Path, fi.Kind, orDash(fi.Default))
		}

		if err := tw.Flush(); err != nil {
			return err
		}

		fmt.Fprintln(w)

		if model.IncludeExamples {
			fmt.Fprintf(w, "```yaml\n%s```\n\n", GenerateExampleYAML(ns))
		}
	}

	return nil
}

// ---------------------------------------------------------------------------
// HTML
// ---------------------------------------------------------------------------

// HTMLFormatter renders documentation as a standalone HTML page.
type HTMLFormatter struct{}

var htmlTpl = template.Must(template.New("docs").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body{font-family:sans-serif;margin:2em;line-height:1.6}
table{border-collapse:collapse;width:100%;margin-bottom:1em}
th,td{border:1px solid #ddd;padding:8px;text-align:left}
th{background:#f5f5f5}
code{background:#f0f0f0;padding:2px 4px;border-radius:3px}
pre{background:#f5f5f5;padding:1em;border-radius:4px;overflow-x:auto}
</style>
</head>
<body>
<h1>{{.Title}}</h1>
{{range .Namespaces}}
<h2>{{.Name}}</h2>
{{if .Description}}<p>{{.Description}}</p>{{end}}
<table>
<tr><th>Field</th><th>Kind</th><th>Default</th></tr>
{{range .Fields}}<tr><td><code>{{.Path}}</code></td><td>{{.Kind}}</td><td>{{if .Default}}<code>{{.Default}}</code>{{else}}-{{end}}</td></tr>
{{end}}
</table>
{{if .Example}}<pre><code>{{.Example}}</code></pre>{{end}}
{{end}}
</body>
</html>
`))

type htmlNamespace struct {
	Name        string
	Description string
	Fields      []FieldInfo
	Example     string
}

type htmlModel struct {
	Title      string
	Namespaces []htmlNamespace
}

func (f *HTMLFormatter) Format(w io.Writer, model *DocModel) error {
	m := htmlModel{Title: title(model)}

	for _, ns := range model.Namespaces {
		hn := htmlNamespace{Name: ns.Name, Description: ns.Description}

		for _, fi := range Flatten(ns.Fields) {
			if len(fi.Children) == 0 {
				hn.Fields = append(hn.Fields, fi)
			}
		}

		if model.IncludeExamples {
			hn.Example = GenerateExampleYAML(ns)
		}

		m.Namespaces = append(m.Namespaces, hn)
	}

	return htmlTpl.Execute(w, m)
}

// ---------------------------------------------------------------------------
// AsciiDoc
// ---------------------------------------------------------------------------

// AsciiDocFormatter renders documentation as AsciiDoc.
type AsciiDocFormatter struct{}

func (f *AsciiDocFormatter) Format(w io.Writer, model *DocModel) error {
	fmt.Fprintf(w, "= %s\n\n", title(model))

	for _, ns := range model.Namespaces {
		fmt.Fprintf(w, "== %s\n\n", ns.Name)

		if ns.Description != "" {
			fmt.Fprintf(w, "%s\n\n", ns.Description)
		}

		fmt.Fprintln(w, "[cols=\"2,1,1\", options=\"header\"]")
		fmt.Fprintln(w, "|===")
		fmt.Fprintln(w, "| Field | Kind | Default")

		for _, fi := range Flatten(ns.Fields) {
			if len(fi.Children) > 0 {
				continue
			}

			fmt.Fprintf(w, "\n| `%s`\n| %s\n| %s\n", fi.Path, fi.Kind, orDash(fi.Default))
		}

		fmt.Fprintln(w, "|===")
		fmt.Fprintln(w)

		if model.IncludeExamples {
			fmt.Fprintf(w, "[source,yaml]\n----\n%s----\n\n", GenerateExampleYAML(ns))
		}
	}

	return nil
}
