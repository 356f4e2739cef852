// Package registry holds the ID to display-name maps shared by the scraper.
//
// A registry doubles as the visited set of the exploration pipeline: once an
// ID is present it is never fetched again and its name is never overwritten.
package registry

import (
	"sort"
	"strings"
	"sync"
)

// Registry maps entity IDs to trimmed display names.
// It is safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	names map[string]string
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		names: make(map[string]string),
	}
}

// Insert stores the trimmed name for id unless id is already present.
// Returns true if this call created the entry (first writer wins).
func (r *Registry) Insert(id, name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.names[id]; exists {
		return false
	}
	r.names[id] = strings.TrimSpace(name)
	return true
}

// Get returns the name registered for id.
func (r *Registry) Get(id string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	name, ok := r.names[id]
	return name, ok
}

// Has reports whether id has been registered.
func (r *Registry) Has(id string) bool {
	_, ok := r.Get(id)
	return ok
}

// Len returns the number of registered IDs.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.names)
}

// Snapshot returns a copy of the registry contents.
func (r *Registry) Snapshot() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]string, len(r.names))
	for id, name := range r.names {
		out[id] = name
	}
	return out
}

// Set bundles one registry per entity kind.
type Set struct {
	Series            *Registry
	Games             *Registry
	Categories        *Registry
	Subcategories     *Registry
	SubcategoryValues *Registry
	Levels            *Registry
	Platforms         *Registry
	Players           *Registry
	Groups            *Groups
}

// NewSet creates a Set with every registry empty.
func NewSet() *Set {
	return &Set{
		Series:            New(),
		Games:             New(),
		Categories:        New(),
		Subcategories:     New(),
		SubcategoryValues: New(),
		Levels:            New(),
		Platforms:         New(),
		Players:           New(),
		Groups:            NewGroups(),
	}
}

// GroupKey identifies a leaderboard group: a category, an optional level and
// a set of subcategory values.
type GroupKey struct {
	CategoryID string
	LevelID    string
	ValueIDs   []string
}

// String generates a deterministic key. Value IDs are sorted so the same set
// in a different order maps to the same group.
//
// Format: categoryID|levelID|value1,value2
func (k GroupKey) String() string {
	values := make([]string, len(k.ValueIDs))
	copy(values, k.ValueIDs)
	sort.Strings(values)

	return k.CategoryID + "|" + k.LevelID + "|" + strings.Join(values, ",")
}

// Groups memoizes group labels by GroupKey.
type Groups struct {
	mu     sync.Mutex
	labels map[string]string
}

// NewGroups creates an empty group memo.
func NewGroups() *Groups {
	return &Groups{
		labels: make(map[string]string),
	}
}

// Resolve returns the memoized label for key, calling build only the first
// time the key is seen.
func (g *Groups) Resolve(key GroupKey, build func() string) string {
	k := key.String()

	g.mu.Lock()
	defer g.mu.Unlock()

	if label, ok := g.labels[k]; ok {
		return label
	}
	label := build()
	g.labels[k] = label
	return label
}

// Len returns the number of memoized groups.
func (g *Groups) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.labels)
}
