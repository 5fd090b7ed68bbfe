package process

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/saquib-ali-khan/distalgo/service/fault"
	"github.com/saquib-ali-khan/distalgo/service/transport"
	"github.com/saquib-ali-khan/distalgo/tracing"
	"github.com/viant/toolbox"
)

// Configuration option names accepted during the handshake. The set is
// closed: a command outside it fails the handshake.
const (
	OptionSendFailRate    = "sendFailRate"
	OptionReceiveFailRate = "receiveFailRate"
	OptionCrashRate       = "crashRate"
	OptionEventTimeout    = "eventTimeout"
	OptionName            = "name"
)

const (
	cmdSetup = "setup"
	cmdStart = "start"
)

// ErrSpawnTimeout indicates a child did not report its address within the
// configured spawn timeout.
var ErrSpawnTimeout = errors.New("timeout waiting for child handshake")

// command is one parent instruction travelling down the handshake pipe.
type command struct {
	name string
	args []interface{}
}

// Pipe is the private conduit between a parent and one spawned child: the
// child reports its address upward, the parent answers with a command
// sequence terminated by start. It always runs in memory, whatever transport
// the swarm messages use, so commands may carry live address handles.
type Pipe struct {
	address  chan transport.Address
	commands chan command
}

func newPipe() *Pipe {
	return &Pipe{
		address:  make(chan transport.Address, 1),
		commands: make(chan command, 16),
	}
}

func (p *Pipe) reportAddress(addr transport.Address) {
	select {
	case p.address <- addr:
	default:
	}
}

func (p *Pipe) awaitAddress(ctx context.Context, timeout time.Duration) (transport.Address, error) {
	if timeout <= 0 {
		select {
		case addr := <-p.address:
			return addr, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case addr := <-p.address:
		return addr, nil
	case <-timer.C:
		return nil, ErrSpawnTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (p *Pipe) send(ctx context.Context, cmd command) error {
	select {
	case p.commands <- cmd:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Pipe) next(ctx context.Context) (command, error) {
	select {
	case cmd := <-p.commands:
		return cmd, nil
	case <-ctx.Done():
		return command{}, ctx.Err()
	}
}

// configOptions dispatches handshake configuration commands.
var configOptions = map[string]func(*Process, []interface{}) error{
	OptionSendFailRate: func(p *Process, args []interface{}) error {
		return p.applyRate(fault.Send, OptionSendFailRate, args)
	},
	OptionReceiveFailRate: func(p *Process, args []interface{}) error {
		return p.applyRate(fault.Receive, OptionReceiveFailRate, args)
	},
	OptionCrashRate: func(p *Process, args []interface{}) error {
		return p.applyRate(fault.Crash, OptionCrashRate, args)
	},
	OptionEventTimeout: func(p *Process, args []interface{}) error {
		value, err := exactlyOne(OptionEventTimeout, args)
		if err != nil {
			return err
		}
		timeout, err := asDuration(value)
		if err != nil {
			return err
		}
		p.setEventTimeout(timeout)
		return nil
	},
	OptionName: func(p *Process, args []interface{}) error {
		value, err := exactlyOne(OptionName, args)
		if err != nil {
			return err
		}
		p.setName(toolbox.AsString(value))
		return nil
	},
}

// waitForGo runs the child side of the handshake: report the address, then
// apply setup and configuration commands until start releases the process.
func (p *Process) waitForGo(pipe *Pipe) error {
	pipe.reportAddress(p.Address())
	for {
		cmd, err := pipe.next(p.ctx)
		if err != nil {
			return err
		}
		switch cmd.name {
		case cmdStart:
			return nil
		case cmdSetup:
			if err := p.behavior.Setup(p, cmd.args); err != nil {
				return fmt.Errorf("setup failed: %w", err)
			}
		default:
			apply, ok := configOptions[cmd.name]
			if !ok {
				return fmt.Errorf("unknown configuration option %q", cmd.name)
			}
			if err := apply(p, cmd.args); err != nil {
				return fmt.Errorf("failed to apply option %v: %w", cmd.name, err)
			}
		}
	}
}

func (p *Process) applyRate(class fault.Class, option string, args []interface{}) error {
	value, err := exactlyOne(option, args)
	if err != nil {
		return err
	}
	p.injector.SetRate(class, toolbox.AsInt(value))
	return nil
}

func exactlyOne(option string, args []interface{}) (interface{}, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("option %v expects one argument, had %v", option, len(args))
	}
	return args[0], nil
}

func asDuration(value interface{}) (time.Duration, error) {
	switch actual := value.(type) {
	case time.Duration:
		return actual, nil
	case string:
		return time.ParseDuration(actual)
	}
	seconds := toolbox.AsFloat(value)
	if seconds < 0 {
		return 0, fmt.Errorf("negative timeout: %v", value)
	}
	return time.Duration(seconds * float64(time.Second)), nil
}

// SpawnOption customizes a spawn.
type SpawnOption func(*spawnOptions)

type spawnOptions struct {
	name     string
	commands []command
}

// WithChildName names the spawned process; the default derives from the
// behavior type name.
func WithChildName(name string) SpawnOption {
	return func(o *spawnOptions) {
		o.name = name
	}
}

// WithCommand queues an extra configuration command sent before setup, e.g.
// WithCommand(OptionCrashRate, 10).
func WithCommand(option string, args ...interface{}) SpawnOption {
	return func(o *spawnOptions) {
		o.commands = append(o.commands, command{name: option, args: args})
	}
}

func newSpawnOptions(typeName string, options []SpawnOption) *spawnOptions {
	ret := &spawnOptions{name: defaultName(typeName)}
	for _, option := range options {
		option(ret)
	}
	return ret
}

// defaultName turns a behavior type name into a display name, e.g.
// lamutex.Site into site.
func defaultName(typeName string) string {
	name := typeName
	if index := strings.LastIndex(name, "."); index != -1 {
		name = name[index+1:]
	}
	if index := strings.LastIndex(name, "/"); index != -1 {
		name = name[index+1:]
	}
	return strings.ToLower(name)
}

// Handle drives the parent side of one child's handshake. RunScenario uses
// it to configure a whole swarm before releasing any member; Spawn wraps it
// for the common configure-setup-start sequence.
type Handle struct {
	ctx  context.Context
	proc *Process
	pipe *Pipe
	addr transport.Address
}

// Process returns the spawned process.
func (h *Handle) Process() *Process {
	return h.proc
}

// Address returns the child's reported address.
func (h *Handle) Address() transport.Address {
	return h.addr
}

// Configure sends one configuration command.
func (h *Handle) Configure(option string, args ...interface{}) error {
	return h.pipe.send(h.ctx, command{name: option, args: args})
}

// Setup sends the setup arguments.
func (h *Handle) Setup(args ...interface{}) error {
	return h.pipe.send(h.ctx, command{name: cmdSetup, args: args})
}

// Start releases the child into its Main.
func (h *Handle) Start() error {
	return h.pipe.send(h.ctx, command{name: cmdStart})
}

// Launch creates and starts a process of the named behavior type and waits
// for its handshake address, leaving the rest of the handshake to the
// returned handle. With a zero spawn timeout a child failing before the
// handshake leaves the caller blocked.
func Launch(ctx context.Context, env *Env, parent transport.Address, typeName string, options ...SpawnOption) (*Handle, error) {
	if err := env.Validate(); err != nil {
		return nil, err
	}
	if env.Behaviors == nil {
		return nil, fmt.Errorf("process env had no behavior registry")
	}
	behavior, err := env.Behaviors.New(typeName)
	if err != nil {
		return nil, err
	}
	opts := newSpawnOptions(typeName, options)
	child := New(env, behavior, WithName(opts.name), WithParent(parent))
	pipe := child.Start(ctx)
	addr, err := pipe.awaitAddress(ctx, env.SpawnTimeout)
	if err != nil {
		child.Terminate()
		return nil, fmt.Errorf("failed to spawn %v: %w", typeName, err)
	}
	handle := &Handle{ctx: ctx, proc: child, pipe: pipe, addr: addr}
	for _, cmd := range opts.commands {
		if err := handle.pipe.send(ctx, cmd); err != nil {
			child.Terminate()
			return nil, err
		}
	}
	return handle, nil
}

// SpawnChild launches a child of the named behavior type and drives the full
// handshake: configuration commands, setup with the supplied arguments, then
// start. It returns once the child is released.
func SpawnChild(ctx context.Context, env *Env, parent transport.Address, typeName string, args []interface{}, options ...SpawnOption) (*Process, transport.Address, error) {
	ctx, span := tracing.StartSpan(ctx, "process.Spawn "+typeName, "INTERNAL")
	defer tracing.EndSpan(span, nil)

	handle, err := Launch(ctx, env, parent, typeName, options...)
	if err != nil {
		return nil, nil, err
	}
	if err := handle.Setup(args...); err != nil {
		handle.proc.Terminate()
		return nil, nil, err
	}
	if err := handle.Start(); err != nil {
		handle.proc.Terminate()
		return nil, nil, err
	}
	return handle.proc, handle.addr, nil
}

// Spawn creates a child process of the named behavior type, completes its
// handshake and returns its address. The child inherits this process's
// environment and reports to it.
func (p *Process) Spawn(typeName string, args []interface{}, options ...SpawnOption) (transport.Address, error) {
	child, addr, err := SpawnChild(p.ctx, p.env, p.Address(), typeName, args, options...)
	if err != nil {
		return nil, err
	}
	p.addChild(child)
	if p.env.Correlation != nil {
		p.env.Correlation.Track(p.ID(), addr.ID())
	}
	return addr, nil
}
