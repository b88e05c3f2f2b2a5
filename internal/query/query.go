// Package query selects subsets of records with predicate groups and checks
// configured allow-lists against a dataset.
package query

import (
	"encoding/json"
	"fmt"
	"iter"
	"reflect"
	"sync/atomic"
)

type mode int

const (
	modeIn mode = iota
	modeEquals
	modeTruthy
	modeGreaterThan
)

// Getter is implemented by records that expose named fields.
type Getter interface {
	Get(field string) (interface{}, bool)
}

// Selector is an accessor waiting for its comparison mode.
type Selector[T any] struct {
	access func(T) interface{}
}

// Where selects the value computed by fn.
func Where[T any](fn func(T) interface{}) Selector[T] {
	return Selector[T]{access: fn}
}

// Field selects a named field of the record; a missing field reads as nil.
func Field[T Getter](name string) Selector[T] {
	return Selector[T]{access: func(item T) interface{} {
		v, _ := item.Get(name)
		return v
	}}
}

// In passes records whose value equals one of values.
func (s Selector[T]) In(values ...interface{}) Group[T] {
	return Group[T]{access: s.access, mode: modeIn, values: values}
}

// Equals passes records whose value equals v.
func (s Selector[T]) Equals(v interface{}) Group[T] {
	return Group[T]{access: s.access, mode: modeEquals, values: []interface{}{v}}
}

// Truthy passes records whose value is set: non-nil, non-zero, non-empty.
func (s Selector[T]) Truthy() Group[T] {
	return Group[T]{access: s.access, mode: modeTruthy}
}

// GreaterThan passes records whose numeric value is strictly greater than x.
// Non-numeric values never pass.
func (s Selector[T]) GreaterThan(x float64) Group[T] {
	return Group[T]{access: s.access, mode: modeGreaterThan, bound: x}
}

// Group is one predicate: an accessor plus exactly one comparison mode.
type Group[T any] struct {
	access func(T) interface{}
	mode   mode
	values []interface{}
	bound  float64
}

// Match reports whether item satisfies the group.
func (g Group[T]) Match(item T) bool {
	v := g.access(item)

	switch g.mode {
	case modeIn, modeEquals:
		for _, want := range g.values {
			if equal(v, want) {
				return true
			}
		}

		return false
	case modeTruthy:
		return truthy(v)
	case modeGreaterThan:
		f, ok := number(v)
		return ok && f > g.bound
	default:
		return false
	}
}

// Query lazily yields the items that satisfy every group, in input order.
// The sequence is single-use: ranging over it a second time yields nothing.
func Query[T any](items []T, groups ...Group[T]) iter.Seq[T] {
	var used atomic.Bool

	return func(yield func(T) bool) {
		if used.Swap(true) {
			return
		}

	next:
		for _, item := range items {
			for _, g := range groups {
				if !g.Match(item) {
					continue next
				}
			}

			if !yield(item) {
				return
			}
		}
	}
}

func equal(a, b interface{}) bool {
	if fa, ok := number(a); ok {
		fb, ok := number(b)
		return ok && fa == fb
	}

	return reflect.DeepEqual(a, b)
}

func truthy(v interface{}) bool {
	if v == nil {
		return false
	}

	if f, ok := number(v); ok {
		return f != 0
	}

	rv := reflect.ValueOf(v)

	switch rv.Kind() { //nolint:exhaustive // remaining kinds are truthy
	case reflect.Bool:
		return rv.Bool()
	case reflect.String, reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() > 0
	case reflect.Pointer, reflect.Interface:
		return !rv.IsNil()
	default:
		return true
	}
}

// number normalizes the numeric types found in decoded JSON and Go literals.
func number(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// String describes the group mode for debug logs.
func (g Group[T]) String() string {
	switch g.mode {
	case modeIn:
		return fmt.Sprintf("in %v", g.values)
	case modeEquals:
		return fmt.Sprintf("equals %v", g.values[0])
	case modeTruthy:
		return "truthy"
	case modeGreaterThan:
		return fmt.Sprintf("greater than %g", g.bound)
	default:
		return "unknown"
	}
}
