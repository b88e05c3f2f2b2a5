package filter

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Namespace is a named filter schema.
type Namespace struct {
	// Name is the value documents use in their "namespace" key.
	Name string
	// Description is a one-line summary shown by the CLI.
	Description string
	// Fields is the static field table of the namespace.
	Fields []Field
	// Defaults populates namespace specific defaults on a fresh filter.
	Defaults func(f *Filter)
}

// New constructs a filter of this namespace with fresh default values.
func (n *Namespace) New() *Filter {
	f := newBase(n.Name)
	if n.Defaults != nil {
		n.Defaults(f)
	}

	return f
}

// Field returns the field with the given name.
func (n *Namespace) Field(name string) (Field, bool) {
	return lookupField(n.Fields, name)
}

// Registry maps namespace names to schemas. A registry is passed to the
// [Loader] explicitly; there is no process-wide registry.
type Registry struct {
	mu         sync.RWMutex
	namespaces map[string]*Namespace
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		namespaces: make(map[string]*Namespace),
	}
}

// Register adds a namespace. Existing entries with the same name are replaced.
func (r *Registry) Register(ns *Namespace) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.namespaces[ns.Name] = ns
}

// Lookup returns the namespace registered under name.
func (r *Registry) Lookup(name string) (*Namespace, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ns, ok := r.namespaces[name]
	if !ok {
		return nil, fmt.Errorf("%w %q (available: %s)", ErrUnknownNamespace, name, strings.Join(r.names(), ", "))
	}

	return ns, nil
}

// Names returns the sorted namespace names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.names()
}

func (r *Registry) names() []string {
	names := make([]string, 0, len(r.namespaces))
	for name := range r.namespaces {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// Built-in namespace names.
const (
	NamespaceCloning    = "Cloning"
	NamespaceWildStats  = "WildCreatureStats"
	NamespaceDataValues = "DataValues"
)

// DefaultDataValueFields are the record fields copied by the DataValues report.
var DefaultDataValueFields = []string{"name", "blueprintPath", "fullStatsRaw", "colors"}

// DefaultRegistry returns a new registry populated with the built-in
// namespaces: default, Cloning, WildCreatureStats and DataValues.
func DefaultRegistry() *Registry {
	r := NewRegistry()

	r.Register(&Namespace{
		Name:        DefaultNamespace,
		Description: "selection and naming rules only",
		Fields:      baseFields(),
	})

	r.Register(&Namespace{
		Name:        NamespaceCloning,
		Description: "cloning cost table",
		Fields: append(baseFields(),
			boolField("includeCloningTimes", func(f *Filter) *bool { return &f.Cloning.IncludeCloningTimes }),
		),
		Defaults: func(f *Filter) {
			f.Cloning.IncludeCloningTimes = true
		},
	})

	r.Register(&Namespace{
		Name:        NamespaceWildStats,
		Description: "wild creature base stat table",
		Fields: append(baseFields(),
			listField("linkMods", func(f *Filter) *[]string { return &f.WildStats.LinkMods }),
		),
	})

	r.Register(&Namespace{
		Name:        NamespaceDataValues,
		Description: "data value records keyed by lookup id",
		Fields: append(baseFields(),
			mapField("idOverrides", func(f *Filter) *OrderedMap { return &f.DataValues.IDOverrides }),
		),
		Defaults: func(f *Filter) {
			f.Output.Pretty = true
			f.Output.Header = false
			f.Output.Fields = append([]string{}, DefaultDataValueFields...)
		},
	})

	return r
}
