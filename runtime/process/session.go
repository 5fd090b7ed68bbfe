package process

import (
	"sync"

	"github.com/saquib-ali-khan/distalgo/pattern"
)

// Session is the explicit registry of named behavior state visible to
// patterns. Fields a pattern references with a bound name must be published
// here; nothing is discovered reflectively.
type Session struct {
	mu     sync.RWMutex
	values map[string]interface{}
}

// NewSession creates an empty session.
func NewSession() *Session {
	return &Session{values: map[string]interface{}{}}
}

// Set publishes a named value.
func (s *Session) Set(name string, value interface{}) {
	s.mu.Lock()
	s.values[name] = value
	s.mu.Unlock()
}

// Get returns a named value.
func (s *Session) Get(name string) (interface{}, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.values[name]
	return value, ok
}

// Delete removes a named value.
func (s *Session) Delete(name string) {
	s.mu.Lock()
	delete(s.values, name)
	s.mu.Unlock()
}

// Snapshot returns a copy of all published values.
func (s *Session) Snapshot() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ret := make(map[string]interface{}, len(s.values))
	for name, value := range s.values {
		ret[name] = value
	}
	return ret
}

// View returns the read only accessor patterns resolve references through.
func (s *Session) View() pattern.StateView {
	return stateView{session: s}
}

type stateView struct {
	session *Session
}

func (v stateView) Lookup(name string) (interface{}, bool) {
	return v.session.Get(name)
}
