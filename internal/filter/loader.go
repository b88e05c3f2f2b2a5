package filter

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hupe1980/dinofilter/internal/yamlutil"
)

// document is the on-disk layout of one YAML document of a filter file.
type document struct {
	Namespace string    `yaml:"namespace"`
	Import    string    `yaml:"import"`
	Filter    yaml.Node `yaml:"filter"`
	Overrides yaml.Node `yaml:"overrides"`
}

// layer is one block waiting to be merged, tagged with the schema of the
// document it came from.
type layer struct {
	source string
	ns     *Namespace
	block  yaml.Node
	mode   Mode
}

// resolved is a filter file with its import chain flattened into layers,
// base first.
type resolved struct {
	ns       *Namespace
	declared bool
	layers   []layer
	sources  []string
}

// Loader reads filter files and resolves their import chains.
type Loader struct {
	registry *Registry
	readFile func(name string) ([]byte, error)
	logger   *slog.Logger
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithReadFile replaces os.ReadFile, e.g. to load filters from an embedded FS.
func WithReadFile(fn func(name string) ([]byte, error)) LoaderOption {
	return func(l *Loader) {
		l.readFile = fn
	}
}

// WithLogger sets the logger used to report ignored fields.
func WithLogger(logger *slog.Logger) LoaderOption {
	return func(l *Loader) {
		l.logger = logger
	}
}

// NewLoader creates a loader resolving namespaces against registry.
// A nil registry means [DefaultRegistry].
func NewLoader(registry *Registry, opts ...LoaderOption) *Loader {
	if registry == nil {
		registry = DefaultRegistry()
	}

	l := &Loader{
		registry: registry,
		readFile: os.ReadFile,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Load reads the filter file at path, including its import chain.
func (l *Loader) Load(path string) (*Filter, error) {
	return l.LoadAll(path)
}

// LoadAll layers several filter files in order: each file merges onto the
// result of the previous ones as if it imported them. The namespace is taken
// from the last file that declares one (directly or through its imports).
func (l *Loader) LoadAll(paths ...string) (*Filter, error) {
	var all []*resolved

	for _, p := range paths {
		r, err := l.resolveFile(p, nil)
		if err != nil {
			return nil, err
		}

		all = append(all, r)
	}

	return l.build(all)
}

// Parse builds a filter from in-memory YAML. Imports are resolved relative to
// the directory of name.
func (l *Loader) Parse(name string, data []byte) (*Filter, error) {
	r, err := l.resolveData(name, data, []string{canonicalPath(name)})
	if err != nil {
		return nil, err
	}

	return l.build([]*resolved{r})
}

func (l *Loader) build(all []*resolved) (*Filter, error) {
	ns, err := l.namespace(DefaultNamespace, "")
	if err != nil {
		return nil, err
	}

	var (
		layers  []layer
		sources []string
	)

	for i, r := range all {
		if r.declared || i == 0 {
			ns = r.ns
		}

		layers = append(layers, r.layers...)
		sources = append(sources, r.sources...)
	}

	f := ns.New()

	for _, ly := range layers {
		block := ly.block

		unknown, err := applyBlock(f, ly.ns.Fields, &block, ly.mode, "")
		if err != nil {
			return nil, &ConfigurationError{Path: ly.source, Err: err}
		}

		for _, name := range unknown {
			l.logger.Debug("ignoring unknown filter field",
				slog.String("path", ly.source),
				slog.String("namespace", ly.ns.Name),
				slog.String("field", name),
			)
		}
	}

	f.Sources = sources

	if err := f.Validate(); err != nil {
		return nil, err
	}

	l.logger.Debug("filter loaded",
		slog.String("namespace", f.Namespace),
		slog.Any("sources", f.Sources),
	)

	return f, nil
}

func (l *Loader) resolveFile(path string, chain []string) (*resolved, error) {
	key := canonicalPath(path)

	for i, seen := range chain {
		if seen == key {
			cycle := append(append([]string{}, chain[i:]...), key)

			return nil, &ConfigurationError{
				Path: path,
				Err:  fmt.Errorf("%w: %s", ErrImportCycle, strings.Join(cycle, " -> ")),
			}
		}
	}

	data, err := l.readFile(path)
	if err != nil {
		return nil, &ConfigurationError{Path: path, Err: fmt.Errorf("reading filter: %w", err)}
	}

	return l.resolveData(path, data, append(chain[:len(chain):len(chain)], key))
}

func (l *Loader) resolveData(path string, data []byte, chain []string) (*resolved, error) {
	res := &resolved{}

	nodes, err := yamlutil.Documents(data)
	if err != nil {
		return nil, &ConfigurationError{Path: path, Err: fmt.Errorf("%w: %w", ErrMalformedDoc, err)}
	}

	for i, node := range nodes {
		var doc document
		if err := node.Decode(&doc); err != nil {
			return nil, &ConfigurationError{Path: path, Err: fmt.Errorf("%w: %w", ErrMalformedDoc, err)}
		}

		if i == 0 {
			if doc.Import != "" {
				base, err := l.resolveFile(importPath(path, doc.Import), chain)
				if err != nil {
					return nil, err
				}

				res = base
			}

			if doc.Namespace != "" {
				ns, err := l.namespace(doc.Namespace, path)
				if err != nil {
					return nil, err
				}

				res.ns = ns
				res.declared = true
			}
		} else if doc.Import != "" || (doc.Namespace != "" && res.ns != nil && doc.Namespace != res.ns.Name) {
			return nil, &ConfigurationError{
				Path: path,
				Err:  fmt.Errorf("%w: document %d: namespace and import are only allowed in the first document", ErrMalformedDoc, i+1),
			}
		}

		if res.ns == nil {
			ns, err := l.namespace(DefaultNamespace, path)
			if err != nil {
				return nil, err
			}

			res.ns = ns
		}

		res.layers = append(res.layers,
			layer{source: path, ns: res.ns, block: doc.Filter, mode: ModeMerge},
			layer{source: path, ns: res.ns, block: doc.Overrides, mode: ModeOverride},
		)
	}

	if res.ns == nil {
		ns, err := l.namespace(DefaultNamespace, path)
		if err != nil {
			return nil, err
		}

		res.ns = ns
	}

	res.sources = append(res.sources, path)

	return res, nil
}

func (l *Loader) namespace(name, path string) (*Namespace, error) {
	ns, err := l.registry.Lookup(name)
	if err != nil {
		return nil, &ConfigurationError{Path: path, Field: "namespace", Err: err}
	}

	return ns, nil
}

// importPath resolves ref relative to the directory of the importing file.
func importPath(from, ref string) string {
	if filepath.IsAbs(ref) {
		return ref
	}

	return filepath.Join(filepath.Dir(from), ref)
}

func canonicalPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}

	return abs
}
