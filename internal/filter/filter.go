package filter

import (
	"fmt"
	"regexp"

	clone "github.com/huandu/go-clone"
)

// DefaultNamespace is the namespace used by documents that do not declare one.
const DefaultNamespace = "default"

// Filter is the merged, typed settings object for one run. It is built by a
// [Loader] and must be treated as read-only once Load returns.
type Filter struct {
	// Namespace is the name of the schema this filter was instantiated from.
	Namespace string `json:"namespace"`
	// Sources lists the files that contributed to the filter, in merge order.
	Sources []string `json:"sources,omitempty"`

	// NameMatch is a regular expression the descriptive name must match.
	NameMatch string `json:"nameMatch,omitempty"`
	// IgnorePaths holds logical path prefixes excluded from selection.
	IgnorePaths []string `json:"ignorePaths,omitempty"`
	// IncludePaths holds logical path prefixes that restrict selection.
	IncludePaths []string `json:"includePaths,omitempty"`

	// DinoClasses is the plain allow-list of class ids.
	DinoClasses []string `json:"dinoClasses,omitempty"`
	// IncludeDinoClasses force-includes class ids in selector mode.
	IncludeDinoClasses []string `json:"includeDinoClasses,omitempty"`
	// IgnoreDinoClasses excludes class ids in selector mode.
	IgnoreDinoClasses []string `json:"ignoreDinoClasses,omitempty"`
	// IgnoreDinosWithVariants excludes creatures carrying any of these variant tags.
	IgnoreDinosWithVariants []string `json:"ignoreDinosWithVariants,omitempty"`

	// NameOverrides maps a class id or raw name to a display name.
	NameOverrides OrderedMap `json:"nameOverrides"`
	// DisplayVariants maps a variant tag to a display suffix; order matters.
	DisplayVariants OrderedMap `json:"displayVariants"`
	// DebugNames appends the class id to every descriptive name.
	DebugNames bool `json:"debugNames"`

	Output Output `json:"output"`

	Cloning    CloningOptions    `json:"cloning"`
	WildStats  WildStatsOptions  `json:"wildStats"`
	DataValues DataValuesOptions `json:"dataValues"`
}

// Output controls report serialization.
type Output struct {
	// Pretty enables indented output.
	Pretty bool `json:"pretty"`
	// Header prefixes reports with a "// Version:" comment line.
	Header bool `json:"header"`
	// Fields is the list of record fields copied into record-shaped reports.
	Fields []string `json:"fields,omitempty"`
}

// CloningOptions are the settings of the Cloning namespace.
type CloningOptions struct {
	IncludeCloningTimes bool `json:"includeCloningTimes"`
}

// WildStatsOptions are the settings of the WildCreatureStats namespace.
type WildStatsOptions struct {
	// LinkMods lists official mods whose data files are appended to the dataset.
	LinkMods []string `json:"linkMods,omitempty"`
}

// DataValuesOptions are the settings of the DataValues namespace.
type DataValuesOptions struct {
	// IDOverrides maps a descriptive name to a fixed lookup id.
	IDOverrides OrderedMap `json:"idOverrides"`
}

// New returns a filter of the default namespace with default values.
func New() *Filter {
	return newBase(DefaultNamespace)
}

// newBase constructs the base defaults. Every call returns fresh containers.
func newBase(namespace string) *Filter {
	return &Filter{
		Namespace: namespace,
		Output: Output{
			Header: true,
		},
	}
}

// Source returns the last file that contributed to the filter, or "".
func (f *Filter) Source() string {
	if len(f.Sources) == 0 {
		return ""
	}

	return f.Sources[len(f.Sources)-1]
}

// SelectorMode reports whether any class or variant selector list is set.
func (f *Filter) SelectorMode() bool {
	return len(f.IncludeDinoClasses) > 0 ||
		len(f.IgnoreDinoClasses) > 0 ||
		len(f.IgnoreDinosWithVariants) > 0
}

// Clone returns a deep copy of f.
func (f *Filter) Clone() *Filter {
	return clone.Clone(f).(*Filter) //nolint:forcetypeassert // Clone preserves the dynamic type
}

// Validate checks values that can only be verified after merging.
func (f *Filter) Validate() error {
	if f.NameMatch != "" {
		if _, err := regexp.Compile(f.NameMatch); err != nil {
			return &ConfigurationError{
				Path:  f.Source(),
				Field: "nameMatch",
				Err:   fmt.Errorf("%w: %w", ErrMalformedField, err),
			}
		}
	}

	return nil
}
