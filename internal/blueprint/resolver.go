package blueprint

import (
	"sync"

	"github.com/hupe1980/dinofilter/internal/species"
)

// Resolver memoizes class ids per record. The cache is a side table keyed by
// record identity, so records are never written to. A Resolver is safe for
// concurrent use.
type Resolver struct {
	mu    sync.RWMutex
	cache map[*species.Entity]string
}

// NewResolver creates an empty resolver.
func NewResolver() *Resolver {
	return &Resolver{
		cache: make(map[*species.Entity]string),
	}
}

// ClassID returns the class id of e, computing it on first use.
func (r *Resolver) ClassID(e *species.Entity) (string, error) {
	r.mu.RLock()
	id, ok := r.cache[e]
	r.mu.RUnlock()

	if ok {
		return id, nil
	}

	path, err := Path(e, false)
	if err != nil {
		return "", err
	}

	id = ClassName(path)

	r.mu.Lock()
	defer r.mu.Unlock()

	// Another goroutine may have won; keep the first value.
	if cached, ok := r.cache[e]; ok {
		return cached, nil
	}

	r.cache[e] = id

	return id, nil
}

// Precompute resolves the class id of every record up front, so later lookups
// only read the table. It stops at the first record without a path.
func (r *Resolver) Precompute(ents []*species.Entity) error {
	for _, e := range ents {
		if _, err := r.ClassID(e); err != nil {
			return err
		}
	}

	return nil
}

// Cached returns the memoized class id of e without computing it.
func (r *Resolver) Cached(e *species.Entity) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.cache[e]

	return id, ok
}

// Len returns the number of memoized records.
func (r *Resolver) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.cache)
}
