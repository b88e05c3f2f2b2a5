package filter

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"
)

// Kind is the merge category of a field.
type Kind int

const (
	// KindScalar values (strings, booleans) replace the previous value.
	KindScalar Kind = iota
	// KindSequence values append, or replace in override mode.
	KindSequence
	// KindMapping values shallow-merge with new keys winning, or replace in
	// override mode.
	KindMapping
	// KindNested values are sub-blocks merged field by field.
	KindNested
)

func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindSequence:
		return "sequence"
	case KindMapping:
		return "mapping"
	case KindNested:
		return "nested"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Mode selects how a block is merged into a filter.
type Mode int

const (
	// ModeMerge is used for "filter" blocks.
	ModeMerge Mode = iota
	// ModeOverride is used for "overrides" blocks.
	ModeOverride
)

// Field describes one key of a namespace schema.
type Field struct {
	// Name is the YAML key.
	Name string
	// Kind is the merge category.
	Kind Kind
	// Fields is the sub-schema of a KindNested field.
	Fields []Field

	bind func(f *Filter) interface{}
}

// Value returns the value of the field on f. Nested fields have no value of
// their own and yield nil.
func (fd Field) Value(f *Filter) interface{} {
	if fd.bind == nil {
		return nil
	}

	switch v := fd.bind(f).(type) {
	case *string:
		return *v
	case *bool:
		return *v
	case *[]string:
		return append([]string(nil), *v...)
	case *OrderedMap:
		return *v
	default:
		return nil
	}
}

func stringField(name string, bind func(f *Filter) *string) Field {
	return Field{Name: name, Kind: KindScalar, bind: func(f *Filter) interface{} { return bind(f) }}
}

func boolField(name string, bind func(f *Filter) *bool) Field {
	return Field{Name: name, Kind: KindScalar, bind: func(f *Filter) interface{} { return bind(f) }}
}

func listField(name string, bind func(f *Filter) *[]string) Field {
	return Field{Name: name, Kind: KindSequence, bind: func(f *Filter) interface{} { return bind(f) }}
}

func mapField(name string, bind func(f *Filter) *OrderedMap) Field {
	return Field{Name: name, Kind: KindMapping, bind: func(f *Filter) interface{} { return bind(f) }}
}

func nestedField(name string, fields ...Field) Field {
	return Field{Name: name, Kind: KindNested, Fields: fields}
}

// baseFields is the schema shared by every namespace.
func baseFields() []Field {
	return []Field{
		stringField("nameMatch", func(f *Filter) *string { return &f.NameMatch }),
		listField("ignorePaths", func(f *Filter) *[]string { return &f.IgnorePaths }),
		listField("includePaths", func(f *Filter) *[]string { return &f.IncludePaths }),
		listField("dinoClasses", func(f *Filter) *[]string { return &f.DinoClasses }),
		listField("includeDinoClasses", func(f *Filter) *[]string { return &f.IncludeDinoClasses }),
		listField("ignoreDinoClasses", func(f *Filter) *[]string { return &f.IgnoreDinoClasses }),
		listField("ignoreDinosWithVariants", func(f *Filter) *[]string { return &f.IgnoreDinosWithVariants }),
		mapField("nameOverrides", func(f *Filter) *OrderedMap { return &f.NameOverrides }),
		mapField("displayVariants", func(f *Filter) *OrderedMap { return &f.DisplayVariants }),
		boolField("debugNames", func(f *Filter) *bool { return &f.DebugNames }),
		nestedField("output",
			boolField("pretty", func(f *Filter) *bool { return &f.Output.Pretty }),
			boolField("header", func(f *Filter) *bool { return &f.Output.Header }),
			listField("fields", func(f *Filter) *[]string { return &f.Output.Fields }),
		),
	}
}

// applyBlock merges a YAML mapping block into f according to fields.
// Unknown keys are returned so the caller can report them; they are not an
// error. Field errors are collected so a document reports all of them at once.
func applyBlock(f *Filter, fields []Field, block *yaml.Node, mode Mode, prefix string) (unknown []string, err error) {
	if block == nil || block.Kind == 0 || block.Tag == "!!null" {
		return nil, nil
	}

	if block.Kind == yaml.AliasNode {
		block = block.Alias
	}

	if block.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: %s must be a mapping, got %s", ErrMalformedField, blockName(prefix), nodeKindName(block))
	}

	var errs *multierror.Error

	for i := 0; i+1 < len(block.Content); i += 2 {
		key, value := block.Content[i].Value, block.Content[i+1]

		field, ok := lookupField(fields, key)
		if !ok {
			unknown = append(unknown, prefix+key)
			continue
		}

		if field.Kind == KindNested {
			nestedUnknown, nestedErr := applyBlock(f, field.Fields, value, mode, prefix+key+".")
			unknown = append(unknown, nestedUnknown...)

			if nestedErr != nil {
				errs = multierror.Append(errs, nestedErr)
			}

			continue
		}

		if ferr := applyField(f, field, value, mode); ferr != nil {
			errs = multierror.Append(errs, fmt.Errorf("%w %q (line %d): %w", ErrMalformedField, prefix+key, value.Line, ferr))
		}
	}

	return unknown, errs.ErrorOrNil()
}

// applyField merges one decoded value. A null value is a no-op in merge mode
// and resets the field in override mode.
func applyField(f *Filter, field Field, value *yaml.Node, mode Mode) error {
	if value.Kind == yaml.AliasNode {
		value = value.Alias
	}

	isNull := value.Tag == "!!null"
	if isNull && mode == ModeMerge {
		return nil
	}

	switch target := field.bind(f).(type) {
	case *string:
		var s string
		if !isNull {
			if value.Kind != yaml.ScalarNode {
				return fmt.Errorf("expected a string, got %s", nodeKindName(value))
			}

			s = value.Value
		}

		*target = s
	case *bool:
		var b bool
		if !isNull {
			if err := value.Decode(&b); err != nil {
				return fmt.Errorf("expected a boolean: %w", err)
			}
		}

		*target = b
	case *[]string:
		var items []string
		if !isNull {
			if value.Kind != yaml.SequenceNode {
				return fmt.Errorf("expected a list, got %s", nodeKindName(value))
			}

			if err := value.Decode(&items); err != nil {
				return fmt.Errorf("expected a list of strings: %w", err)
			}

			items = trimList(items)
		}

		if mode == ModeOverride {
			*target = append([]string{}, items...)
		} else {
			merged := make([]string, 0, len(*target)+len(items))
			merged = append(merged, *target...)
			*target = append(merged, items...)
		}
	case *OrderedMap:
		var m OrderedMap
		if !isNull {
			if err := m.UnmarshalYAML(value); err != nil {
				return err
			}
		}

		if mode == ModeOverride {
			*target = m
		} else {
			target.Merge(m)
		}
	default:
		return fmt.Errorf("unsupported field storage %T", target)
	}

	return nil
}

// trimList strips surrounding whitespace from list entries and drops the
// entries left blank.
func trimList(items []string) []string {
	out := items[:0]

	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}

	return out
}

func lookupField(fields []Field, name string) (Field, bool) {
	for _, f := range fields {
		if f.Name == name {
			return f, true
		}
	}

	return Field{}, false
}

func blockName(prefix string) string {
	if prefix == "" {
		return "block"
	}

	return prefix[:len(prefix)-1]
}
