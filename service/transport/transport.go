// Package transport defines the channel adapter contract: identity
// assignment plus the message passing primitives every cross process
// interaction goes through.
package transport

import (
	"context"
	"errors"
)

// Vendor names a channel implementation.
type Vendor string

const (
	// VendorMemory routes between goroutines of one OS process.
	VendorMemory Vendor = "memory"
	// VendorFS spools envelopes through per address directories.
	VendorFS Vendor = "fs"
	// VendorNATS routes through NATS core subjects.
	VendorNATS Vendor = "nats"
)

var (
	// ErrClosed indicates the channel has been torn down.
	ErrClosed = errors.New("channel closed")
	// ErrUnknownAddress indicates a destination the channel cannot route to.
	ErrUnknownAddress = errors.New("unknown address")
	// ErrRemoteHandle indicates a receive attempt on an address handle that
	// was resolved rather than assigned locally.
	ErrRemoteHandle = errors.New("receive on remote address handle")
)

// Envelope is the wire form of one message: the payload plus the sender's
// identity and logical clock at send time.
type Envelope struct {
	From    string      `json:"from,omitempty"`
	Clock   uint64      `json:"clock"`
	Payload interface{} `json:"payload"`
}

// Address identifies one process on a channel. Handles are comparable by ID.
type Address interface {
	// ID returns the opaque wire identity.
	ID() string

	// Send delivers a payload to this address together with the sender's
	// identity and clock. A nil error means the envelope was handed to the
	// transport.
	Send(payload interface{}, from string, clock uint64) error

	// Recv blocks for the next inbound envelope. It is valid only on an
	// address obtained from Identify on the local channel, never on a
	// resolved peer handle, and ends only on teardown or context
	// cancellation.
	Recv(ctx context.Context) (*Envelope, error)
}

// Channel assigns process identities and routes envelopes between them.
type Channel interface {
	// Identify assigns a fresh unique address for the supplied display name.
	Identify(name string) (Address, error)

	// Resolve reconstructs a send only handle from a wire identity, e.g. the
	// From field of a received envelope.
	Resolve(id string) Address

	// Close tears the channel down; blocked Recv calls return ErrClosed.
	Close() error
}
