// Package nats implements the channel vendor that routes envelopes through
// NATS core subjects, one subject per address. Envelopes travel as JSON, so
// payloads keep the same wire shape as the fs vendor.
package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/saquib-ali-khan/distalgo/internal/idgen"
	"github.com/saquib-ali-khan/distalgo/service/messaging"
	memq "github.com/saquib-ali-khan/distalgo/service/messaging/memory"
	"github.com/saquib-ali-khan/distalgo/service/transport"
)

// Config holds the server location, subject naming and connection tuning.
type Config struct {
	// URL is the NATS server URL; empty means nats.DefaultURL.
	URL string
	// SubjectPrefix namespaces every address subject.
	SubjectPrefix string
	// Name identifies the connection to the server.
	Name string
	// MaxReconnects caps reconnection attempts; zero means unlimited.
	MaxReconnects int
	// ReconnectWait is the pause between reconnection attempts.
	ReconnectWait time.Duration
	// Timeout bounds the initial connect.
	Timeout time.Duration
}

// DefaultConfig returns the standard channel configuration.
func DefaultConfig() Config {
	return Config{
		URL:           nats.DefaultURL,
		SubjectPrefix: "distalgo",
		Name:          "distalgo",
		ReconnectWait: 2 * time.Second,
		Timeout:       5 * time.Second,
	}
}

// Channel routes envelopes through NATS subjects.
type Channel struct {
	conn    *nats.Conn
	ownConn bool
	config  Config

	mu     sync.Mutex
	subs   map[string]*nats.Subscription
	boxes  map[string]*memq.Queue[transport.Envelope]
	closed bool
}

// New connects to the configured server and creates a channel.
func New(config Config) (*Channel, error) {
	if config.URL == "" {
		config.URL = nats.DefaultURL
	}
	opts := []nats.Option{
		nats.Name(config.Name),
		nats.ReconnectWait(config.ReconnectWait),
	}
	if config.MaxReconnects != 0 {
		opts = append(opts, nats.MaxReconnects(config.MaxReconnects))
	}
	if config.Timeout > 0 {
		opts = append(opts, nats.Timeout(config.Timeout))
	}
	conn, err := nats.Connect(config.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats at %s: %w", config.URL, err)
	}
	channel := NewWithConn(conn, config)
	channel.ownConn = true
	return channel, nil
}

// NewWithConn wraps an existing connection; Close leaves it open.
func NewWithConn(conn *nats.Conn, config Config) *Channel {
	if config.SubjectPrefix == "" {
		config.SubjectPrefix = "distalgo"
	}
	return &Channel{
		conn:   conn,
		config: config,
		subs:   map[string]*nats.Subscription{},
		boxes:  map[string]*memq.Queue[transport.Envelope]{},
	}
}

// Identify assigns a fresh address and subscribes to its subject.
func (c *Channel) Identify(name string) (transport.Address, error) {
	if name == "" {
		name = "proc"
	}
	id := fmt.Sprintf("%s-%s", sanitize(name), idgen.Short())

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, transport.ErrClosed
	}
	box := memq.NewQueue[transport.Envelope]()
	sub, err := c.conn.Subscribe(c.subject(id), func(msg *nats.Msg) {
		var envelope transport.Envelope
		if err := json.Unmarshal(msg.Data, &envelope); err != nil {
			log.Printf("[nats] dropping malformed envelope on %s: %v", msg.Subject, err)
			return
		}
		_ = box.Publish(context.Background(), &envelope)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe %s: %w", c.subject(id), err)
	}
	c.subs[id] = sub
	c.boxes[id] = box
	return &address{id: id, channel: c, box: box}, nil
}

// Resolve returns a send only handle for a wire identity.
func (c *Channel) Resolve(id string) transport.Address {
	return &address{id: id, channel: c}
}

// Close unsubscribes every address, closes the inboxes and drains the
// connection when this channel opened it.
func (c *Channel) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	subs := c.subs
	boxes := c.boxes
	c.mu.Unlock()

	for _, sub := range subs {
		_ = sub.Unsubscribe()
	}
	for _, box := range boxes {
		box.Close()
	}
	if c.ownConn {
		return c.conn.Drain()
	}
	return nil
}

func (c *Channel) publish(id string, data []byte) error {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return transport.ErrClosed
	}
	return c.conn.Publish(c.subject(id), data)
}

func (c *Channel) subject(id string) string {
	return c.config.SubjectPrefix + "." + id
}

// sanitize keeps address ids valid as subject tokens.
func sanitize(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '.', ' ', '*', '>':
			return '-'
		}
		return r
	}, name)
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
	envelope := &transport.Envelope{From: from, Clock: clock, Payload: payload}
	data, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("failed to marshal envelope: %w", err)
	}
	return a.channel.publish(a.id, data)
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
