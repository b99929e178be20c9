package frontier

import (
	"sort"
	"sync"
)

// ResultSet is a grow-only set of discovered names, safe for concurrent use
type ResultSet struct {
	mu    sync.RWMutex
	names map[string]struct{}
}

// NewResultSet returns an empty set
func NewResultSet() *ResultSet {
	return &ResultSet{names: make(map[string]struct{})}
}

// Add inserts names and returns how many were new
func (r *ResultSet) Add(names ...string) int {
	if len(names) == 0 {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	added := 0
	for _, n := range names {
		if _, ok := r.names[n]; ok {
			continue
		}
		r.names[n] = struct{}{}
		added++
	}
	return added
}

// Contains reports whether name has been discovered
func (r *ResultSet) Contains(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.names[name]
	return ok
}

// Len returns the number of distinct names
func (r *ResultSet) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.names)
}

// Sorted returns the names in byte-wise ascending order
func (r *ResultSet) Sorted() []string {
	r.mu.RLock()
	out := make([]string, 0, len(r.names))
	for n := range r.names {
		out = append(out, n)
	}
	r.mu.RUnlock()
	sort.Strings(out)
	return out
}
