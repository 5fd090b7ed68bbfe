// Package procinfo defines the master side view of spawned processes: one
// record per process, folding lifecycle transitions and reporting tuples.
package procinfo

import (
	"time"

	"github.com/saquib-ali-khan/distalgo/stats"
)

// Record aggregates what the master knows about one process.
type Record struct {
	ID         string    `json:"id"`
	Name       string    `json:"name,omitempty"`
	Type       string    `json:"type,omitempty"`
	ParentID   string    `json:"parentId,omitempty"`
	State      string    `json:"state,omitempty"`
	ExitCode   int       `json:"exitCode,omitempty"`
	Sent       int       `json:"sent"`
	UserTime   float64   `json:"userTime,omitempty"`
	SystemTime float64   `json:"systemTime,omitempty"`
	WallTime   float64   `json:"wallTime,omitempty"`
	MemoryKB   float64   `json:"memoryKb,omitempty"`
	CreatedAt  time.Time `json:"createdAt,omitempty"`
	UpdatedAt  time.Time `json:"updatedAt,omitempty"`
}

// Fold applies one reporting tuple to the record: sent counters accumulate,
// usage totals overwrite.
func (r *Record) Fold(tag string, value float64) {
	switch tag {
	case stats.TagSent:
		r.Sent += int(value)
	case stats.TagUserTime:
		r.UserTime = value
	case stats.TagSystemTime:
		r.SystemTime = value
	case stats.TagWallTime:
		r.WallTime = value
	case stats.TagMemory:
		r.MemoryKB = value
	}
}

// Terminal reports whether the recorded state is final.
func (r *Record) Terminal() bool {
	return r.State == "completed" || r.State == "failed"
}
