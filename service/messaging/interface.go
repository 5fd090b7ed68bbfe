package messaging

import (
	"context"
	"errors"
)

// Vendor represents the name of a queue vendor
type Vendor string

const (
	// VendorMemory is the in-process queue used for process event queues.
	VendorMemory Vendor = "memory"
	// VendorFS is the file-system spool queue used when event streams must
	// survive the run.
	VendorFS Vendor = "fs"
)

// ErrClosed is returned when consuming from or publishing to a closed queue.
var ErrClosed = errors.New("queue closed")

// Queue is an abstract FIFO queue for any payload type. Implementations must
// be safe for concurrent publish and consume, and must never block a
// publisher on capacity: event queues are unbounded.
type Queue[T any] interface {
	// Publish appends a new message with payload to the queue
	Publish(ctx context.Context, t *T) error

	// Consume blocks until a message is available, the context is done or
	// the queue is closed
	Consume(ctx context.Context) (Message[T], error)

	// Poll retrieves a message only if one is immediately available
	Poll() (Message[T], bool)

	// Len returns the number of queued messages
	Len() int
}

// Message represents a message retrieved from a queue
type Message[T any] interface {
	// T returns the payload of this message
	T() *T

	// Ack acknowledges processing of this message
	Ack() error

	// Nack records failed processing. Delivery is at most once: the runtime
	// never retries on its own, so a nacked message is consumed all the same
	Nack(err error) error
}
