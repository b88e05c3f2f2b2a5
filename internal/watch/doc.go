// Package watch re-generates a report whenever one of its inputs changes:
// the filter file with its imports, or the dataset directories. Bursts of
// file events are coalesced by a [Debouncer] before the report runs again.
package watch
