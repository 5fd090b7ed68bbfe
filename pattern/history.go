package pattern

import "sync"

// UpdateFunc folds a matched event's tuple into a history container and
// returns the new container, letting algorithms dedup or keep bounded
// windows instead of raw appends.
type UpdateFunc func(history []interface{}, tuple []interface{}) []interface{}

type historyKind int

const (
	historyNone historyKind = iota
	historyAppendRaw
	historyCustom
)

// HistoryPolicy decides how a matched event is recorded. It is a closed
// variant: disabled, append the raw tuple, or a custom update function.
type HistoryPolicy struct {
	kind   historyKind
	update UpdateFunc
}

// NoHistory disables history recording.
func NoHistory() HistoryPolicy {
	return HistoryPolicy{kind: historyNone}
}

// AppendRaw appends each matched event's canonical tuple to the container.
func AppendRaw() HistoryPolicy {
	return HistoryPolicy{kind: historyAppendRaw}
}

// CustomUpdate records through the supplied update function.
func CustomUpdate(update UpdateFunc) HistoryPolicy {
	return HistoryPolicy{kind: historyCustom, update: update}
}

// Disabled reports whether the policy records anything at all.
func (p HistoryPolicy) Disabled() bool {
	return p.kind == historyNone || (p.kind == historyCustom && p.update == nil)
}

// Apply folds tuple into history per the policy and returns the new container.
func (p HistoryPolicy) Apply(history []interface{}, tuple []interface{}) []interface{} {
	switch p.kind {
	case historyAppendRaw:
		return append(history, tuple)
	case historyCustom:
		if p.update != nil {
			return p.update(history, tuple)
		}
	}
	return history
}

type historyEntry struct {
	kind   Kind
	values []interface{}
}

// HistoryRegistry is the explicit registry of named history containers a
// process maintains, one per recording rule. Purging clears containers by
// the event kind their rule observes instead of scanning attributes.
type HistoryRegistry struct {
	mu      sync.RWMutex
	entries map[string]*historyEntry
}

// NewHistoryRegistry creates an empty registry.
func NewHistoryRegistry() *HistoryRegistry {
	return &HistoryRegistry{entries: map[string]*historyEntry{}}
}

// Register creates the container for a rule name. Re-registering a name
// keeps the existing container.
func (r *HistoryRegistry) Register(name string, kind Kind) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[name]; ok {
		return
	}
	r.entries[name] = &historyEntry{kind: kind}
}

// Update applies policy to the named container with the supplied tuple.
// Unregistered names are ignored.
func (r *HistoryRegistry) Update(name string, policy HistoryPolicy, tuple []interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.entries[name]
	if !ok {
		return
	}
	entry.values = policy.Apply(entry.values, tuple)
}

// Snapshot returns a copy of the named container.
func (r *HistoryRegistry) Snapshot(name string) []interface{} {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.entries[name]
	if !ok || len(entry.values) == 0 {
		return nil
	}
	ret := make([]interface{}, len(entry.values))
	copy(ret, entry.values)
	return ret
}

// Len returns the number of recorded tuples for the named container.
func (r *HistoryRegistry) Len(name string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.entries[name]
	if !ok {
		return 0
	}
	return len(entry.values)
}

// Purge clears every container whose rule observes the supplied kind.
func (r *HistoryRegistry) Purge(kind Kind) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, entry := range r.entries {
		if entry.kind == kind {
			entry.values = nil
		}
	}
}

// Names lists the registered container names.
func (r *HistoryRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ret := make([]string, 0, len(r.entries))
	for name := range r.entries {
		ret = append(ret, name)
	}
	return ret
}
