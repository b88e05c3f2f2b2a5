// Package species loads creature datasets and exposes their records as
// [Entity] values.
package species

import (
	"fmt"
)

// Well-known record fields.
const (
	FieldName          = "name"
	FieldBlueprintPath = "blueprintPath"
	FieldBP            = "bp"
	FieldVariants      = "variants"
	FieldExtra         = "extra"
)

// Entity is one creature record. The raw record is never modified after
// construction; derived values are cached by their owners, not on the record.
type Entity struct {
	raw   map[string]interface{}
	extra *Entity
}

// NewEntity wraps a raw JSON record. An "extra" sub-record, as produced by
// [Join], is exposed through [Entity.Extra].
func NewEntity(raw map[string]interface{}) *Entity {
	if raw == nil {
		raw = map[string]interface{}{}
	}

	e := &Entity{raw: raw}

	if extra, ok := raw[FieldExtra].(map[string]interface{}); ok {
		e.extra = &Entity{raw: extra}
	}

	return e
}

// Raw returns the underlying record. Callers must not modify it.
func (e *Entity) Raw() map[string]interface{} {
	return e.raw
}

// Get returns the value of field on the record itself.
func (e *Entity) Get(field string) (interface{}, bool) {
	v, ok := e.raw[field]
	return v, ok
}

// Lookup returns the value of field, falling back to the joined extended
// record when the field is missing or null on the record itself.
func (e *Entity) Lookup(field string) (interface{}, bool) {
	if v, ok := e.raw[field]; ok && v != nil {
		return v, true
	}

	if e.extra != nil {
		return e.extra.Lookup(field)
	}

	return nil, false
}

// String returns field as a string, or "" when it is absent or not a string.
func (e *Entity) String(field string) string {
	s, _ := e.raw[field].(string)
	return s
}

// Bool returns field as a boolean, false when absent.
func (e *Entity) Bool(field string) bool {
	b, _ := e.raw[field].(bool)
	return b
}

// Name returns the raw display name.
func (e *Entity) Name() string {
	return e.String(FieldName)
}

// Variants returns the variant tags in declaration order.
func (e *Entity) Variants() []string {
	switch v := e.raw[FieldVariants].(type) {
	case []string:
		return v
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}

		return out
	default:
		return nil
	}
}

// HasVariant reports whether the entity carries the variant tag.
func (e *Entity) HasVariant(tag string) bool {
	for _, v := range e.Variants() {
		if v == tag {
			return true
		}
	}

	return false
}

// Extra returns the joined extended record, or nil.
func (e *Entity) Extra() *Entity {
	return e.extra
}

// Label returns "name <path>" for log and error messages.
func (e *Entity) Label() string {
	path := e.String(FieldBP)
	if path == "" {
		path = e.String(FieldBlueprintPath)
	}

	return fmt.Sprintf("%s <%s>", e.Name(), path)
}
