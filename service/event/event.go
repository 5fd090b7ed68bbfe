// Package event distributes typed runtime events (process state changes,
// checkpoint progress) over pluggable queues to registered listeners.
package event

import "time"

// Context carries the origin of an event.
type Context struct {
	ProcessID string `json:"processID"`
	Process   string `json:"process,omitempty"`
	Behavior  string `json:"behavior,omitempty"`
	EventType string `json:"eventType"`
}

// Event pairs a context with a typed payload.
type Event[T any] struct {
	Context   *Context               `json:"context"`
	CreatedAt time.Time              `json:"createdAt"`
	Metadata  map[string]interface{} `json:"metadata"`
	Data      T                      `json:"data"`
}

// NewEvent creates an event with the supplied context and payload.
func NewEvent[T any](context *Context, data T) *Event[T] {
	return &Event[T]{
		Context:   context,
		CreatedAt: time.Now(),
		Metadata:  make(map[string]interface{}),
		Data:      data,
	}
}
