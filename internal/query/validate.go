package query

import (
	"fmt"
	"sort"
	"strings"

	"github.com/antzucaro/matchr"
)

// suggestionThreshold is the minimum Jaro-Winkler similarity for a present
// value to be offered as a replacement for a missing one.
const suggestionThreshold = 0.85

// CoverageError reports configured values that match no record.
type CoverageError struct {
	// Missing lists the absent values in configuration order.
	Missing []string
	// Suggestions maps a missing value to the closest present value.
	Suggestions map[string]string
}

func (e *CoverageError) Error() string {
	parts := make([]string, 0, len(e.Missing))

	for _, m := range e.Missing {
		if s, ok := e.Suggestions[m]; ok {
			parts = append(parts, fmt.Sprintf("%s (did you mean %s?)", m, s))
		} else {
			parts = append(parts, m)
		}
	}

	return fmt.Sprintf("%d configured value(s) not found in dataset: %s",
		len(e.Missing), strings.Join(parts, ", "))
}

// Validate collects the accessor value of every item and fails with a
// [*CoverageError] naming the required values that never occur. Accessor
// errors are returned as is.
func Validate[T any](items []T, required []string, accessor func(T) (string, error)) error {
	present := make(map[string]struct{}, len(items))

	for _, item := range items {
		v, err := accessor(item)
		if err != nil {
			return err
		}

		present[v] = struct{}{}
	}

	var missing []string

	seen := make(map[string]struct{}, len(required))

	for _, r := range required {
		if _, ok := present[r]; ok {
			continue
		}

		if _, dup := seen[r]; dup {
			continue
		}

		seen[r] = struct{}{}
		missing = append(missing, r)
	}

	if len(missing) == 0 {
		return nil
	}

	return &CoverageError{
		Missing:     missing,
		Suggestions: suggest(missing, present),
	}
}

func suggest(missing []string, present map[string]struct{}) map[string]string {
	candidates := make([]string, 0, len(present))
	for v := range present {
		candidates = append(candidates, v)
	}

	sort.Strings(candidates)

	out := make(map[string]string)

	for _, m := range missing {
		best, bestScore := "", suggestionThreshold

		for _, c := range candidates {
			if score := matchr.JaroWinkler(m, c, false); score > bestScore {
				best, bestScore = c, score
			}
		}

		if best != "" {
			out[m] = best
		}
	}

	return out
}
