// Package memory implements the in-process channel vendor: every address is
// an unbounded mailbox queue and routing is a map lookup.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/saquib-ali-khan/distalgo/internal/idgen"
	"github.com/saquib-ali-khan/distalgo/service/messaging"
	memq "github.com/saquib-ali-khan/distalgo/service/messaging/memory"
	"github.com/saquib-ali-khan/distalgo/service/transport"
)

// Channel routes envelopes between addresses of one OS process.
type Channel struct {
	mu     sync.RWMutex
	boxes  map[string]*memq.Queue[transport.Envelope]
	closed bool
}

// New creates an empty channel.
func New() *Channel {
	return &Channel{boxes: map[string]*memq.Queue[transport.Envelope]{}}
}

// Identify assigns a fresh address, suffixing the display name with a short
// unique id so names never collide.
func (c *Channel) Identify(name string) (transport.Address, error) {
	if name == "" {
		name = "proc"
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, transport.ErrClosed
	}
	id := fmt.Sprintf("%s-%s", name, idgen.Short())
	box := memq.NewQueue[transport.Envelope]()
	c.boxes[id] = box
	return &address{id: id, channel: c, box: box}, nil
}

// Resolve returns a send only handle for a wire identity.
func (c *Channel) Resolve(id string) transport.Address {
	return &address{id: id, channel: c}
}

// Close shuts every mailbox down.
func (c *Channel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	for _, box := range c.boxes {
		box.Close()
	}
	return nil
}

func (c *Channel) lookup(id string) *memq.Queue[transport.Envelope] {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return nil
	}
	return c.boxes[id]
}

type address struct {
	id      string
	channel *Channel
	// box is set only on addresses assigned by Identify
	box *memq.Queue[transport.Envelope]
}

func (a *address) ID() string { return a.id }

func (a *address) String() string { return a.id }

func (a *address) Send(payload interface{}, from string, clock uint64) error {
	box := a.channel.lookup(a.id)
	if box == nil {
		return fmt.Errorf("%w: %s", transport.ErrUnknownAddress, a.id)
	}
	envelope := &transport.Envelope{From: from, Clock: clock, Payload: payload}
	if err := box.Publish(context.Background(), envelope); err != nil {
		if errors.Is(err, messaging.ErrClosed) {
			return transport.ErrClosed
		}
		return err
	}
	return nil
}

func (a *address) Recv(ctx context.Context) (*transport.Envelope, error) {
	if a.box == nil {
		return nil, fmt.Errorf("%w: %s", transport.ErrRemoteHandle, a.id)
	}
	msg, err := a.box.Consume(ctx)
	if err != nil {
		if errors.Is(err, messaging.ErrClosed) {
			return nil, transport.ErrClosed
		}
		return nil, err
	}
	_ = msg.Ack()
	return msg.T(), nil
}
