// Package fs implements a channel vendor that spools envelopes through one
// directory per address, so processes of separate OS processes can exchange
// messages over any storage afs can reach.
package fs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/option"
	"github.com/viant/afs/storage"

	"github.com/saquib-ali-khan/distalgo/internal/clock"
	"github.com/saquib-ali-khan/distalgo/internal/idgen"
	"github.com/saquib-ali-khan/distalgo/service/transport"
)

// Config holds the spool location and polling cadence.
type Config struct {
	// BaseURL is the root directory; each address owns <BaseURL>/<id>/.
	BaseURL string
	// PollInterval is the receive poll cadence.
	PollInterval time.Duration
}

// DefaultConfig returns the standard spool configuration.
func DefaultConfig() Config {
	return Config{
		BaseURL:      "/tmp/distalgo/mailbox",
		PollInterval: 20 * time.Millisecond,
	}
}

// Channel routes envelopes through per address spool directories.
type Channel struct {
	fs     afs.Service
	config Config
	seq    atomic.Uint64

	mu      sync.Mutex
	ensured map[string]bool
	closed  bool
}

// New creates a spool channel rooted at config.BaseURL.
func New(fs afs.Service, config Config) (*Channel, error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("base URL cannot be empty")
	}
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultConfig().PollInterval
	}
	ret := &Channel{fs: fs, config: config, ensured: map[string]bool{}}
	if err := ret.ensureDir(context.Background(), config.BaseURL); err != nil {
		return nil, err
	}
	return ret, nil
}

// Identify assigns a fresh address and creates its spool directory.
func (c *Channel) Identify(name string) (transport.Address, error) {
	if name == "" {
		name = "proc"
	}
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, transport.ErrClosed
	}
	c.mu.Unlock()

	id := fmt.Sprintf("%s-%s", name, idgen.Short())
	if err := c.ensureDir(context.Background(), c.spoolDir(id)); err != nil {
		return nil, err
	}
	return &address{id: id, channel: c, local: true}, nil
}

// Resolve returns a send only handle for a wire identity.
func (c *Channel) Resolve(id string) transport.Address {
	return &address{id: id, channel: c}
}

// Close stops receivers. Spooled files are left behind for inspection.
func (c *Channel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *Channel) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *Channel) spoolDir(id string) string {
	return path.Join(c.config.BaseURL, id)
}

func (c *Channel) ensureDir(ctx context.Context, dir string) error {
	c.mu.Lock()
	ensured := c.ensured[dir]
	c.mu.Unlock()
	if ensured {
		return nil
	}
	exists, _ := c.fs.Exists(ctx, dir)
	if !exists {
		if err := c.fs.Create(ctx, dir, file.DefaultDirOsMode, true); err != nil {
			return fmt.Errorf("failed to create spool directory %s: %w", dir, err)
		}
	}
	c.mu.Lock()
	c.ensured[dir] = true
	c.mu.Unlock()
	return nil
}

type address struct {
	id      string
	channel *Channel
	local   bool
}

func (a *address) ID() string { return a.id }

func (a *address) String() string { return a.id }

func (a *address) Send(payload interface{}, from string, clockValue uint64) error {
	if a.channel.isClosed() {
		return transport.ErrClosed
	}
	ctx := context.Background()
	envelope := &transport.Envelope{From: from, Clock: clockValue, Payload: payload}
	data, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("failed to marshal envelope: %w", err)
	}
	dir := a.channel.spoolDir(a.id)
	if err := a.channel.ensureDir(ctx, dir); err != nil {
		return err
	}
	// The nanosecond prefix keeps listings in send order; seq breaks ties.
	name := fmt.Sprintf("%020d-%06d-%s.json", clock.Now().UnixNano(), a.channel.seq.Add(1), idgen.Short())
	return a.channel.fs.Upload(ctx, path.Join(dir, name), file.DefaultFileOsMode, bytes.NewBuffer(data))
}

func (a *address) Recv(ctx context.Context) (*transport.Envelope, error) {
	if !a.local {
		return nil, fmt.Errorf("%w: %s", transport.ErrRemoteHandle, a.id)
	}
	ticker := time.NewTicker(a.channel.config.PollInterval)
	defer ticker.Stop()
	for {
		if a.channel.isClosed() {
			return nil, transport.ErrClosed
		}
		envelope, ok, err := a.poll(ctx)
		if err != nil {
			return nil, err
		}
		if ok {
			return envelope, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// poll claims the oldest spooled envelope, if any.
func (a *address) poll(ctx context.Context) (*transport.Envelope, bool, error) {
	dir := a.channel.spoolDir(a.id)
	objects, err := a.channel.fs.List(ctx, dir, option.NewRecursive(false))
	if err != nil {
		return nil, false, fmt.Errorf("failed to list spool %s: %w", dir, err)
	}
	var pending []storage.Object
	for _, object := range objects {
		if !object.IsDir() && strings.HasSuffix(object.Name(), ".json") {
			pending = append(pending, object)
		}
	}
	if len(pending) == 0 {
		return nil, false, nil
	}
	sort.Slice(pending, func(i, j int) bool { return pending[i].Name() < pending[j].Name() })
	object := pending[0]

	data, err := a.channel.fs.DownloadWithURL(ctx, object.URL())
	if err != nil {
		return nil, false, fmt.Errorf("failed to read envelope %s: %w", object.URL(), err)
	}
	if err := a.channel.fs.Delete(ctx, object.URL()); err != nil {
		return nil, false, fmt.Errorf("failed to claim envelope %s: %w", object.URL(), err)
	}
	var envelope transport.Envelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal envelope %s: %w", object.URL(), err)
	}
	return &envelope, true, nil
}
