// Package correlation tracks the spawn tree: which process spawned which,
// so terminations can cascade to descendants and the master can attribute
// reports to a lineage.
package correlation

import "sync"

// Registry is an in-memory spawn tree keyed by process identity. It can be
// replaced by a shared store later without changing callers.
type Registry struct {
	mu       sync.RWMutex
	children map[string][]string
	parents  map[string]string
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		children: make(map[string][]string),
		parents:  make(map[string]string),
	}
}

// Track records that parentID spawned childID.
func (r *Registry) Track(parentID, childID string) {
	if parentID == "" || childID == "" {
		return
	}
	r.mu.Lock()
	r.children[parentID] = append(r.children[parentID], childID)
	r.parents[childID] = parentID
	r.mu.Unlock()
}

// Children returns the direct children recorded for id.
func (r *Registry) Children(id string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	recorded := r.children[id]
	if len(recorded) == 0 {
		return nil
	}
	ret := make([]string, len(recorded))
	copy(ret, recorded)
	return ret
}

// Parent returns the recorded spawner of id.
func (r *Registry) Parent(id string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	parent, ok := r.parents[id]
	return parent, ok
}

// Descendants returns every process transitively spawned by id, depth first.
func (r *Registry) Descendants(id string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var ret []string
	var walk func(string)
	walk = func(current string) {
		for _, child := range r.children[current] {
			ret = append(ret, child)
			walk(child)
		}
	}
	walk(id)
	return ret
}

// Remove forgets id: its parent link and its children subtree links.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if parent, ok := r.parents[id]; ok {
		siblings := r.children[parent]
		for i, sibling := range siblings {
			if sibling == id {
				r.children[parent] = append(siblings[:i], siblings[i+1:]...)
				break
			}
		}
		delete(r.parents, id)
	}
	delete(r.children, id)
}

// Iterate executes fn for each parent with recorded children under read lock.
func (r *Registry) Iterate(fn func(parentID string, children []string)) {
	r.mu.RLock()
	for parent, children := range r.children {
		fn(parent, children)
	}
	r.mu.RUnlock()
}

// Size returns the number of tracked child links.
func (r *Registry) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.parents)
}
