package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"iter"

	"gopkg.in/yaml.v3"
)

// Keyed is an insertion-ordered mapping from report key to payload. Setting
// an existing key replaces the payload and keeps the original position.
type Keyed[V any] struct {
	keys   []string
	values map[string]V
}

// NewKeyed creates an empty mapping.
func NewKeyed[V any]() *Keyed[V] {
	return &Keyed[V]{values: make(map[string]V)}
}

// Set stores v under key and reports whether a previous payload was replaced.
func (k *Keyed[V]) Set(key string, v V) bool {
	if k.values == nil {
		k.values = make(map[string]V)
	}

	_, replaced := k.values[key]
	if !replaced {
		k.keys = append(k.keys, key)
	}

	k.values[key] = v

	return replaced
}

// Get returns the payload stored under key.
func (k *Keyed[V]) Get(key string) (V, bool) {
	v, ok := k.values[key]
	return v, ok
}

// Has reports whether key is present.
func (k *Keyed[V]) Has(key string) bool {
	_, ok := k.values[key]
	return ok
}

// Keys returns the keys in insertion order.
func (k *Keyed[V]) Keys() []string {
	out := make([]string, len(k.keys))
	copy(out, k.keys)

	return out
}

// Len returns the number of keys.
func (k *Keyed[V]) Len() int {
	return len(k.keys)
}

// All iterates key/payload pairs in insertion order.
func (k *Keyed[V]) All() iter.Seq2[string, V] {
	return func(yield func(string, V) bool) {
		for _, key := range k.keys {
			if !yield(key, k.values[key]) {
				return
			}
		}
	}
}

// MarshalJSON encodes the mapping as a JSON object in insertion order.
func (k *Keyed[V]) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte('{')

	for i, key := range k.keys {
		if i > 0 {
			buf.WriteByte(',')
		}

		kb, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}

		vb, err := json.Marshal(k.values[key])
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", key, err)
		}

		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}

	buf.WriteByte('}')

	return buf.Bytes(), nil
}

// MarshalYAML encodes the mapping as a YAML mapping in insertion order.
func (k *Keyed[V]) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}

	for _, key := range k.keys {
		var val yaml.Node
		if err := val.Encode(k.values[key]); err != nil {
			return nil, fmt.Errorf("key %q: %w", key, err)
		}

		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
			&val,
		)
	}

	return node, nil
}

// BuildKeyed maps every item to a key and a payload. Later items with the
// same key replace earlier payloads.
func BuildKeyed[T, V any](items iter.Seq[T], key func(T) (string, error), payload func(T) (V, error)) (*Keyed[V], error) {
	out := NewKeyed[V]()

	for item := range items {
		k, err := key(item)
		if err != nil {
			return nil, err
		}

		v, err := payload(item)
		if err != nil {
			return nil, err
		}

		out.Set(k, v)
	}

	return out, nil
}
