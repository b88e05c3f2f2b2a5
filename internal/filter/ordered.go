package filter

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Entry is a single key/value pair of an [OrderedMap].
type Entry struct {
	Key   string
	Value string
}

// OrderedMap is a string to string mapping that remembers the order in which
// keys were first declared. The zero value is an empty map ready to use.
type OrderedMap struct {
	entries []Entry
}

// NewOrderedMap builds a map from alternating key/value arguments.
// A trailing key without a value maps to the empty string.
func NewOrderedMap(pairs ...string) OrderedMap {
	var m OrderedMap

	for i := 0; i < len(pairs); i += 2 {
		v := ""
		if i+1 < len(pairs) {
			v = pairs[i+1]
		}

		m.Set(pairs[i], v)
	}

	return m
}

// Len returns the number of keys.
func (m *OrderedMap) Len() int {
	return len(m.entries)
}

// Get returns the value stored under key.
func (m *OrderedMap) Get(key string) (string, bool) {
	i, ok := m.lookup(key)
	if !ok {
		return "", false
	}

	return m.entries[i].Value, true
}

// Set stores value under key. Existing keys keep their position.
func (m *OrderedMap) Set(key, value string) {
	if i, ok := m.lookup(key); ok {
		m.entries[i].Value = value
		return
	}

	m.entries = append(m.entries, Entry{Key: key, Value: value})
}

// Entries returns a copy of the entries in declaration order.
func (m *OrderedMap) Entries() []Entry {
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)

	return out
}

// Keys returns the keys in declaration order.
func (m *OrderedMap) Keys() []string {
	keys := make([]string, len(m.entries))
	for i, e := range m.entries {
		keys[i] = e.Key
	}

	return keys
}

// Merge copies every entry of other into m; keys of other win.
func (m *OrderedMap) Merge(other OrderedMap) {
	for _, e := range other.entries {
		m.Set(e.Key, e.Value)
	}
}

// lookup is a linear scan; override and variant tables hold a handful of keys.
func (m *OrderedMap) lookup(key string) (int, bool) {
	for i, e := range m.entries {
		if e.Key == key {
			return i, true
		}
	}

	return 0, false
}

// UnmarshalYAML decodes a YAML mapping node, keeping key order.
// Null values decode as empty strings.
func (m *OrderedMap) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.AliasNode {
		node = node.Alias
	}

	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: expected a mapping, got %s", node.Line, nodeKindName(node))
	}

	var out OrderedMap

	for i := 0; i+1 < len(node.Content); i += 2 {
		k, v := node.Content[i], node.Content[i+1]
		if v.Kind == yaml.AliasNode {
			v = v.Alias
		}

		var key, value string
		if err := k.Decode(&key); err != nil {
			return fmt.Errorf("line %d: key: %w", k.Line, err)
		}

		if v.Tag != "!!null" {
			if v.Kind != yaml.ScalarNode {
				return fmt.Errorf("line %d: value of %q must be a string, got %s", v.Line, key, nodeKindName(v))
			}

			value = v.Value
		}

		out.Set(key, value)
	}

	*m = out

	return nil
}

// MarshalYAML encodes the map as a YAML mapping in declaration order.
func (m OrderedMap) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}

	for _, e := range m.entries {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: e.Key},
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: e.Value},
		)
	}

	return node, nil
}

// MarshalJSON encodes the map as a JSON object in declaration order.
func (m OrderedMap) MarshalJSON() ([]byte, error) {
	buf := []byte{'{'}

	for i, e := range m.entries {
		if i > 0 {
			buf = append(buf, ',')
		}

		k, err := json.Marshal(e.Key)
		if err != nil {
			return nil, err
		}

		v, err := json.Marshal(e.Value)
		if err != nil {
			return nil, err
		}

		buf = append(buf, k...)
		buf = append(buf, ':')
		buf = append(buf, v...)
	}

	return append(buf, '}'), nil
}

func nodeKindName(n *yaml.Node) string {
	switch n.Kind {
	case yaml.DocumentNode:
		return "document"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.MappingNode:
		return "mapping"
	case yaml.ScalarNode:
		if n.Tag != "" {
			return "scalar " + n.Tag
		}

		return "scalar"
	case yaml.AliasNode:
		return "alias"
	default:
		return "empty node"
	}
}
