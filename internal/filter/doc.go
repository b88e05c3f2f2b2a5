// Package filter implements the layered configuration model that drives
// creature selection and naming. A filter is loaded from one or more YAML
// documents; each document instantiates a registered [Namespace], may import
// another document as its base, and contributes a "filter" block (merged) and
// an "overrides" block (replacing).
//
// The package is built around the [Filter] value, the per-namespace field
// table ([Field]) that describes how each key merges, the [Registry] of
// namespaces, and the [Loader] that resolves import chains.
package filter
