package process

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	"github.com/saquib-ali-khan/distalgo/pattern"
	"github.com/saquib-ali-khan/distalgo/runtime/lclock"
	"github.com/saquib-ali-khan/distalgo/runtime/trace"
	"github.com/saquib-ali-khan/distalgo/service/fault"
	"github.com/saquib-ali-khan/distalgo/service/messaging"
	memq "github.com/saquib-ali-khan/distalgo/service/messaging/memory"
	"github.com/saquib-ali-khan/distalgo/service/transport"
	"github.com/saquib-ali-khan/distalgo/stats"
)

// Process lifecycle states.
const (
	StateCreated     = "created"
	StateConfiguring = "configuring"
	StateRunning     = "running"
	StateCompleted   = "completed"
	StateFailed      = "failed"
)

// CrashExitCode is the exit code reported when fault injection crashes a
// process at a checkpoint.
const CrashExitCode = 10

// Process executes one algorithm node on a dedicated goroutine.
type Process struct {
	env      *Env
	behavior Behavior

	clock    *lclock.Clock
	injector *fault.Injector
	usage    *stats.Usage
	session  *Session
	history  *pattern.HistoryRegistry
	events   messaging.Queue[pattern.Event]
	recorder *trace.Recorder

	// Owned by the process goroutine: dispatch happens only at checkpoints.
	rules       []*pattern.Rule
	jobs        jobQueue
	receivedLog []interface{}

	// Checkpoint timer shared across labels, cleared when it expires.
	timerAt      time.Time
	timerExpired bool

	ctx        context.Context
	cancel     context.CancelFunc
	handlerCtx context.Context
	done       chan struct{}

	mu        sync.RWMutex
	name      string
	addr      transport.Address
	parent    transport.Address
	state     string
	exitCode  int
	err       error
	evTimeout time.Duration
	children  []*Process
}

// Option customizes a process before it starts.
type Option func(*Process)

// WithName sets the display name used in logs and as the identity prefix.
func WithName(name string) Option {
	return func(p *Process) {
		p.name = name
	}
}

// WithParent sets the address usage reports and child reports go to.
func WithParent(parent transport.Address) Option {
	return func(p *Process) {
		p.parent = parent
	}
}

// WithInjector replaces the fault injector, letting tests fix the draw.
func WithInjector(injector *fault.Injector) Option {
	return func(p *Process) {
		if injector != nil {
			p.injector = injector
		}
	}
}

// WithEventTimeout bounds blocking checkpoints that carry no explicit
// timeout.
func WithEventTimeout(timeout time.Duration) Option {
	return func(p *Process) {
		p.evTimeout = timeout
	}
}

// WithRecorder attaches a trace recorder capturing checkpoints and
// dispatched events.
func WithRecorder(recorder *trace.Recorder) Option {
	return func(p *Process) {
		p.recorder = recorder
	}
}

// New creates a process in the created state. Start launches it.
func New(env *Env, behavior Behavior, options ...Option) *Process {
	p := &Process{
		env:      env,
		behavior: behavior,
		clock:    lclock.New(),
		usage:    stats.NewUsage(),
		session:  NewSession(),
		history:  pattern.NewHistoryRegistry(),
		events:   memq.NewQueue[pattern.Event](),
		state:    StateCreated,
		done:     make(chan struct{}),
	}
	if env != nil {
		p.injector = fault.New(fault.WithRates(env.FaultRates))
		p.evTimeout = env.EventTimeout
	} else {
		p.injector = fault.New()
	}
	for _, option := range options {
		option(p)
	}
	return p
}

// Start launches the process goroutine and returns the handshake pipe the
// parent drives: the child reports its address as the pipe's first message
// and blocks until the start command arrives.
func (p *Process) Start(ctx context.Context) *Pipe {
	if ctx == nil {
		ctx = context.Background()
	}
	p.ctx, p.cancel = context.WithCancel(ctx)
	p.handlerCtx = NewContext(p.ctx, p)
	pipe := newPipe()
	go p.run(pipe)
	return pipe
}

func (p *Process) run(pipe *Pipe) {
	defer close(p.done)
	defer p.finish()
	defer func() {
		if r := recover(); r != nil {
			p.logf("unexpected error: %v\n%s", r, debug.Stack())
			p.setErr(fmt.Errorf("panic: %v", r))
		}
	}()

	addr, err := p.env.Channel.Identify(p.Name())
	if err != nil {
		p.setErr(fmt.Errorf("failed to acquire address: %w", err))
		return
	}
	p.setAddr(addr)
	p.setState(StateConfiguring)

	go p.pump()

	if err := p.waitForGo(pipe); err != nil {
		if p.ctx.Err() == nil {
			p.setErr(err)
			p.logf("handshake failed: %v", err)
		}
		return
	}
	p.setState(StateRunning)

	if err := p.behavior.Main(p); err != nil {
		p.setErr(fmt.Errorf("main: %w", err))
		p.logf("unexpected error in main: %v", err)
	}
}

// finish runs on the process goroutine after Main returns, Exit is called or
// a panic is recovered: it closes usage accounting, reports totals to the
// parent, terminates tracked children and settles the final state.
func (p *Process) finish() {
	p.usage.Stop()
	p.reportUsage()
	for _, child := range p.childList() {
		child.Terminate()
	}
	final := StateCompleted
	if p.ExitCode() != 0 || p.Err() != nil {
		final = StateFailed
	}
	p.setState(final)
	p.cancel()
}

// Exit terminates the process immediately with the supplied code. Lifecycle
// cleanup still runs: usage totals are reported and children terminated. It
// must be called from the process's own goroutine, i.e. from Main or a
// handler.
func (p *Process) Exit(code int) {
	p.mu.Lock()
	p.exitCode = code
	p.mu.Unlock()
	runtime.Goexit()
}

// Terminate signals the process to stop. Pending events and jobs are not
// drained: the next checkpoint observes the cancellation and exits cleanly.
func (p *Process) Terminate() {
	if p.cancel != nil {
		p.cancel()
	}
}

// Wait blocks until the process reached a terminal state or ctx is done.
func (p *Process) Wait(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	select {
	case <-p.done:
		return p.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done returns a channel closed once the process reached a terminal state.
func (p *Process) Done() <-chan struct{} {
	return p.done
}

// ID returns the wire identity, empty before the handshake assigned one.
func (p *Process) ID() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.addr == nil {
		return ""
	}
	return p.addr.ID()
}

// Name returns the display name.
func (p *Process) Name() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.name == "" {
		return "process"
	}
	return p.name
}

// Address returns the process's own address handle.
func (p *Process) Address() transport.Address {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.addr
}

// ParentAddress returns the spawner's address, nil for detached processes.
func (p *Process) ParentAddress() transport.Address {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.parent
}

// State returns the lifecycle state.
func (p *Process) State() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

// Running reports whether the process passed the handshake and has not
// reached a terminal state yet.
func (p *Process) Running() bool {
	return p.State() == StateRunning
}

// ExitCode returns the code passed to Exit, zero otherwise.
func (p *Process) ExitCode() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.exitCode
}

// Err returns the terminal error: a Main failure, a recovered panic or a
// handshake failure.
func (p *Process) Err() error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.err
}

// LogicalClock returns the process's Lamport clock.
func (p *Process) LogicalClock() *lclock.Clock {
	return p.clock
}

// Injector returns the process's fault injector.
func (p *Process) Injector() *fault.Injector {
	return p.injector
}

// Session returns the registry of behavior state visible to patterns.
func (p *Process) Session() *Session {
	return p.session
}

// History returns a snapshot of the named rule's history container.
func (p *Process) History(name string) []interface{} {
	return p.history.Snapshot(name)
}

// Pending returns the number of queued events not yet dispatched.
func (p *Process) Pending() int {
	return p.events.Len()
}

// Children returns the processes this one spawned.
func (p *Process) Children() []*Process {
	return p.childList()
}

// Output logs a message attributed to this process.
func (p *Process) Output(args ...interface{}) {
	log.Printf("[%v] %v", p.Name(), fmt.Sprint(args...))
}

// Work wastes a small random amount of time, simulating local computation.
func (p *Process) Work() {
	delay := time.Duration(rand.Intn(200)) * time.Millisecond
	select {
	case <-time.After(delay):
	case <-p.ctx.Done():
	}
}

func (p *Process) logf(format string, args ...interface{}) {
	log.Printf("[%v] "+format, append([]interface{}{p.Name()}, args...)...)
}

func (p *Process) setAddr(addr transport.Address) {
	p.mu.Lock()
	p.addr = addr
	p.mu.Unlock()
}

func (p *Process) setName(name string) {
	p.mu.Lock()
	p.name = name
	p.mu.Unlock()
}

func (p *Process) setErr(err error) {
	p.mu.Lock()
	if p.err == nil {
		p.err = err
	}
	p.mu.Unlock()
}

func (p *Process) setState(state string) {
	p.mu.Lock()
	if p.state == state {
		p.mu.Unlock()
		return
	}
	p.state = state
	p.mu.Unlock()
	if p.env != nil && p.env.Lifecycle != nil {
		p.env.Lifecycle(p, state)
	}
}

func (p *Process) setEventTimeout(timeout time.Duration) {
	p.mu.Lock()
	p.evTimeout = timeout
	p.mu.Unlock()
}

func (p *Process) eventTimeout() time.Duration {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.evTimeout
}

func (p *Process) addChild(child *Process) {
	p.mu.Lock()
	p.children = append(p.children, child)
	p.mu.Unlock()
}

func (p *Process) childList() []*Process {
	p.mu.RLock()
	defer p.mu.RUnlock()
	ret := make([]*Process, len(p.children))
	copy(ret, p.children)
	return ret
}
