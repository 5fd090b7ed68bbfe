package idgen

import (
	"strings"

	"github.com/google/uuid"
)

// New returns a new globally unique identifier as string. It is implemented
// as a thin wrapper so tests can stub it.

var NewFunc = func() string { return uuid.New().String() }

func New() string { return NewFunc() }

// Short returns a compact 8 character identifier, used to suffix process
// addresses and display names.
func Short() string {
	id := NewFunc()
	if idx := strings.IndexByte(id, '-'); idx != -1 {
		return id[:idx]
	}
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
