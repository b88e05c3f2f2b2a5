package output

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Built-in format names.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatText = "text"
)

// SerializerFunc encodes a report value.
type SerializerFunc func(v interface{}, opts Options) ([]byte, error)

// Registry maps format names to serializers.
type Registry struct {
	mu          sync.RWMutex
	serializers map[string]SerializerFunc
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		serializers: make(map[string]SerializerFunc),
	}
}

// Register adds a serializer under the given format name.
// Existing entries for the same name are overwritten.
func (r *Registry) Register(name string, fn SerializerFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.serializers[name] = fn
}

// Serializer returns the serializer for the given format, or an error if not found.
func (r *Registry) Serializer(name string) (SerializerFunc, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	fn, ok := r.serializers[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown output format %q (available: %s)", name, r.available())
	}

	return fn, nil
}

// Formats returns the sorted list of registered format names.
func (r *Registry) Formats() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.formats()
}

func (r *Registry) formats() []string {
	names := make([]string, 0, len(r.serializers))
	for name := range r.serializers {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

func (r *Registry) available() string {
	formats := r.formats()
	if len(formats) == 0 {
		return "none"
	}

	return strings.Join(formats, ", ")
}

// DefaultRegistry returns a registry with the built-in formats: json, yaml
// and text.
func DefaultRegistry() *Registry {
	r := NewRegistry()

	r.Register(FormatJSON, SerializeJSON)
	r.Register(FormatYAML, SerializeYAML)
	r.Register(FormatText, SerializeText)

	return r
}
