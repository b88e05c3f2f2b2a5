package selector

import "strings"

// PathSet is a set of "/"-delimited path prefixes. A path is contained when
// it equals a stored prefix or lies below one. Matching is by whole segments:
// "Dinosaurs/Carn" does not contain "Dinosaurs/Carnivores".
type PathSet struct {
	root pathNode
	n    int
}

type pathNode struct {
	children map[string]*pathNode
	terminal bool
}

// NewPathSet builds a set from paths. Empty paths are ignored.
func NewPathSet(paths ...string) *PathSet {
	s := &PathSet{}
	for _, p := range paths {
		s.Add(p)
	}

	return s
}

// Add inserts a prefix.
func (s *PathSet) Add(path string) {
	segs := splitPath(path)
	if len(segs) == 0 {
		return
	}

	node := &s.root
	for _, seg := range segs {
		if node.children == nil {
			node.children = make(map[string]*pathNode)
		}

		next, ok := node.children[seg]
		if !ok {
			next = &pathNode{}
			node.children[seg] = next
		}

		node = next
	}

	if !node.terminal {
		node.terminal = true
		s.n++
	}
}

// Contains reports whether path equals or descends from a stored prefix.
func (s *PathSet) Contains(path string) bool {
	if s == nil || s.n == 0 {
		return false
	}

	node := &s.root
	for _, seg := range splitPath(path) {
		next, ok := node.children[seg]
		if !ok {
			return false
		}

		if next.terminal {
			return true
		}

		node = next
	}

	return false
}

// Len returns the number of stored prefixes.
func (s *PathSet) Len() int {
	if s == nil {
		return 0
	}

	return s.n
}

func splitPath(path string) []string {
	parts := strings.Split(path, "/")
	out := parts[:0]

	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}

	return out
}
