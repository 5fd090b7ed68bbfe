// Package stats implements the usage accounting a process reports to its
// parent on exit: user and system CPU seconds, wall clock time and memory
// footprint, together with the tags of the reporting protocol.
package stats

import (
	"sync"
	"time"

	"github.com/saquib-ali-khan/distalgo/internal/clock"
)

// Usage accumulates CPU and wall clock usage between Start/Stop pairs. Both
// operations are idempotent: starting a running accounter or stopping a
// stopped one is a no-op. CPU seconds are measured for the whole OS process,
// matching the process-wide counters the reporting protocol carries.
type Usage struct {
	mu      sync.Mutex
	running bool

	usrAt  float64
	sysAt  float64
	wallAt time.Time

	usr  float64
	sys  float64
	wall time.Duration
}

// NewUsage creates a stopped accounter with zero totals.
func NewUsage() *Usage {
	return &Usage{}
}

// Start begins an accounting interval.
func (u *Usage) Start() {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.running {
		return
	}
	u.usrAt, u.sysAt = cpuTimes()
	u.wallAt = clock.Now()
	u.running = true
}

// Stop ends the current accounting interval and folds it into the totals.
func (u *Usage) Stop() {
	u.mu.Lock()
	defer u.mu.Unlock()
	if !u.running {
		return
	}
	usr, sys := cpuTimes()
	u.usr += usr - u.usrAt
	u.sys += sys - u.sysAt
	u.wall += clock.Since(u.wallAt)
	u.running = false
}

// Running reports whether an accounting interval is open.
func (u *Usage) Running() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.running
}

// Totals returns the accumulated user CPU seconds, system CPU seconds and
// wall clock time of all closed intervals.
func (u *Usage) Totals() (usr, sys float64, wall time.Duration) {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.usr, u.sys, u.wall
}
