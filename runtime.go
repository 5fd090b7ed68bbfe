package distalgo

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/viant/afs"
	"golang.org/x/sync/errgroup"

	"github.com/saquib-ali-khan/distalgo/extension"
	"github.com/saquib-ali-khan/distalgo/internal/idgen"
	"github.com/saquib-ali-khan/distalgo/model"
	"github.com/saquib-ali-khan/distalgo/progress"
	"github.com/saquib-ali-khan/distalgo/runtime/process"
	"github.com/saquib-ali-khan/distalgo/service/correlation"
	"github.com/saquib-ali-khan/distalgo/service/dao"
	"github.com/saquib-ali-khan/distalgo/service/dao/procinfo"
	"github.com/saquib-ali-khan/distalgo/service/event"
	"github.com/saquib-ali-khan/distalgo/service/fault"
	"github.com/saquib-ali-khan/distalgo/service/scenario"
	"github.com/saquib-ali-khan/distalgo/service/transport"
	fstransport "github.com/saquib-ali-khan/distalgo/service/transport/fs"
	memtransport "github.com/saquib-ali-khan/distalgo/service/transport/memory"
	natstransport "github.com/saquib-ali-khan/distalgo/service/transport/nats"
	"github.com/saquib-ali-khan/distalgo/stats"
	"github.com/saquib-ali-khan/distalgo/tracing"
)

// CollectorName is the display name of the runtime's report collector
// identity; it is the parent of every detached spawn.
const CollectorName = "master"

// ProcInfoStore persists the master side view of spawned processes.
type ProcInfoStore interface {
	dao.Service[string, procinfo.Record]
	Describe(ctx context.Context, id, name, typeName, parentID string) error
	UpdateState(ctx context.Context, id, state string, exitCode int) error
	Fold(ctx context.Context, id, tag string, value float64) error
}

// ProcessTransition is the event published on every process state change.
type ProcessTransition struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	State    string `json:"state"`
	ExitCode int    `json:"exitCode,omitempty"`
}

// faultOptions maps fault classes to their handshake configuration commands.
var faultOptions = map[fault.Class]string{
	fault.Send:    process.OptionSendFailRate,
	fault.Receive: process.OptionReceiveFailRate,
	fault.Crash:   process.OptionCrashRate,
}

// Runtime spawns processes, runs scenarios and collects their reports.
type Runtime struct {
	config       *Config
	behaviors    *extension.Behaviors
	correlation  *correlation.Registry
	procInfo     ProcInfoStore
	events       *event.Service
	scenarios    *scenario.Service
	spawnTimeout time.Duration
	eventTimeout time.Duration

	mu        sync.RWMutex
	channel   transport.Channel
	procEnv   *process.Env
	collector transport.Address
	cancel    context.CancelFunc
	processes map[string]*process.Process
	started   bool
}

// Start validates the configuration, connects the configured transport and
// launches the report collector. It is idempotent.
func (r *Runtime) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return nil
	}
	if err := r.config.Validate(); err != nil {
		return err
	}
	if r.channel == nil {
		channel, err := newChannel(r.config)
		if err != nil {
			return err
		}
		r.channel = channel
	}
	collector, err := r.channel.Identify(CollectorName)
	if err != nil {
		return fmt.Errorf("failed to acquire collector address: %w", err)
	}
	r.collector = collector
	r.procEnv = &process.Env{
		Channel:      r.channel,
		Behaviors:    r.behaviors,
		Correlation:  r.correlation,
		Lifecycle:    r.onTransition,
		SpawnTimeout: r.spawnTimeout,
		EventTimeout: r.eventTimeout,
		FaultRates:   r.config.FaultRates(),
	}
	collectCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	go r.collect(collectCtx, collector)
	r.started = true
	return nil
}

// Shutdown terminates every tracked process, stops the collector and closes
// the transport.
func (r *Runtime) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	if !r.started {
		r.mu.Unlock()
		return nil
	}
	r.started = false
	cancel := r.cancel
	channel := r.channel
	procs := make([]*process.Process, 0, len(r.processes))
	for _, proc := range r.processes {
		procs = append(procs, proc)
	}
	r.mu.Unlock()

	for _, proc := range procs {
		proc.Terminate()
	}
	for _, proc := range procs {
		_ = proc.Wait(ctx)
	}
	if cancel != nil {
		cancel()
	}
	if r.events != nil {
		r.events.Shutdown()
	}
	if channel != nil {
		return channel.Close()
	}
	return nil
}

// newChannel builds the transport channel the configuration selects.
func newChannel(config *Config) (transport.Channel, error) {
	switch config.Transport.Vendor {
	case "", VendorMemory:
		return memtransport.New(), nil
	case VendorFS:
		fsConfig := fstransport.DefaultConfig()
		if config.Transport.BaseURL != "" {
			fsConfig.BaseURL = config.Transport.BaseURL
		}
		return fstransport.New(afs.New(), fsConfig)
	case VendorNATS:
		natsConfig := natstransport.DefaultConfig()
		if config.Transport.URL != "" {
			natsConfig.URL = config.Transport.URL
		}
		if config.Transport.SubjectPrefix != "" {
			natsConfig.SubjectPrefix = config.Transport.SubjectPrefix
		}
		return natstransport.New(natsConfig)
	}
	return nil, fmt.Errorf("unknown transport vendor %q", config.Transport.Vendor)
}

// collect consumes reporting tuples addressed to the collector and folds
// them into the process records.
func (r *Runtime) collect(ctx context.Context, collector transport.Address) {
	for {
		envelope, err := collector.Recv(ctx)
		if err != nil {
			if ctx.Err() == nil && !errors.Is(err, transport.ErrClosed) {
				log.Printf("[%v] failed to receive report: %v", CollectorName, err)
			}
			return
		}
		tag, value, ok := stats.Parse(envelope.Payload)
		if !ok {
			continue
		}
		if err := r.procInfo.Fold(ctx, envelope.From, tag, value); err != nil {
			log.Printf("[%v] failed to fold report from %v: %v", CollectorName, envelope.From, err)
		}
	}
}

// onTransition mirrors every process state change into the record store and,
// when events are enabled, onto the event bus.
func (r *Runtime) onTransition(proc *process.Process, state string) {
	id := proc.ID()
	if id == "" {
		return
	}
	ctx := context.Background()
	if err := r.procInfo.UpdateState(ctx, id, state, proc.ExitCode()); err != nil {
		log.Printf("[%v] failed to record state of %v: %v", CollectorName, id, err)
	}
	if r.events == nil {
		return
	}
	publisher, err := event.PublisherOf[ProcessTransition](r.events)
	if err != nil {
		return
	}
	_ = publisher.Publish(ctx, event.NewEvent(&event.Context{
		ProcessID: id,
		Process:   proc.Name(),
		EventType: "process." + state,
	}, ProcessTransition{ID: id, Name: proc.Name(), State: state, ExitCode: proc.ExitCode()}))
}

// publishProgress mirrors run progress counters onto the event bus.
func (r *Runtime) publishProgress(snapshot progress.Progress) {
	if r.events == nil {
		return
	}
	publisher, err := event.PublisherOf[progress.Progress](r.events)
	if err != nil {
		return
	}
	_ = publisher.Publish(context.Background(), event.NewEvent(&event.Context{
		Process:   snapshot.Scenario,
		EventType: "scenario.progress",
	}, snapshot))
}

// Spawn launches a detached process of the named behavior type with the
// collector as its parent and drives the full handshake. The returned
// process is already running.
func (r *Runtime) Spawn(ctx context.Context, typeName string, args []interface{}, options ...process.SpawnOption) (*process.Process, error) {
	if err := r.ensureStarted(ctx); err != nil {
		return nil, err
	}
	proc, addr, err := process.SpawnChild(ctx, r.env(), r.collectorAddr(), typeName, args, options...)
	if err != nil {
		return nil, err
	}
	r.track(proc)
	r.correlation.Track(r.collectorID(), addr.ID())
	_ = r.procInfo.Describe(ctx, addr.ID(), proc.Name(), typeName, r.collectorID())
	return proc, nil
}

// LoadScenario loads a scenario definition via the scenario service.
func (r *Runtime) LoadScenario(ctx context.Context, location string) (*model.Scenario, error) {
	return r.scenarios.Load(ctx, location)
}

// DecodeYAMLScenario parses a scenario from YAML bytes.
func (r *Runtime) DecodeYAMLScenario(data []byte) (*model.Scenario, error) {
	return r.scenarios.DecodeYAML(data)
}

// RefreshScenario discards any cached copy of the scenario definition located
// at the given URL. The next LoadScenario call reloads the file.
func (r *Runtime) RefreshScenario(location string) {
	r.scenarios.Refresh(location)
}

// Process returns the record for a process identity.
func (r *Runtime) Process(ctx context.Context, id string) (*procinfo.Record, error) {
	return r.procInfo.Load(ctx, id)
}

// Processes returns process records, filterable by State and Type.
func (r *Runtime) Processes(ctx context.Context, parameters ...*dao.Parameter) ([]*procinfo.Record, error) {
	return r.procInfo.List(ctx, parameters...)
}

// Lookup returns the live process for a wire identity, nil when unknown.
func (r *Runtime) Lookup(id string) *process.Process {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.processes[id]
}

// Run is the outcome of one scenario execution: the launched processes and
// their aggregated progress.
type Run struct {
	Scenario *model.Scenario
	Progress *progress.Progress
	members  []*process.Process
	byName   map[string]*process.Process
}

// Processes returns the scenario processes in launch order.
func (r *Run) Processes() []*process.Process {
	return r.members
}

// Process returns the member with the given display name.
func (r *Run) Process(name string) *process.Process {
	return r.byName[name]
}

// Failed returns the members that ended with an error or a nonzero exit code.
func (r *Run) Failed() []*process.Process {
	var ret []*process.Process
	for _, proc := range r.members {
		if proc.Err() != nil || proc.ExitCode() != 0 {
			ret = append(ret, proc)
		}
	}
	return ret
}

// member pairs one scenario group member with its handshake handle.
type member struct {
	group  *model.Group
	gIndex int
	index  int
	handle *process.Handle
}

// RunScenario spawns every group member, configures and releases the swarm,
// then waits until all members reach a terminal state. The launch phase
// completes before any setup runs, so every member address exists when peers
// are handed out. Member failures do not abort the run; they are reflected in
// the returned progress counters and the process records.
func (r *Runtime) RunScenario(ctx context.Context, scn *model.Scenario) (run *Run, err error) {
	if scn == nil {
		return nil, fmt.Errorf("scenario was nil")
	}
	if issues := scn.Validate(); len(issues) > 0 {
		return nil, fmt.Errorf("invalid scenario %v: %w", scn.Name, errors.Join(issues...))
	}
	if err = r.ensureStarted(ctx); err != nil {
		return nil, err
	}
	ctx, span := tracing.StartSpan(ctx, "runtime.RunScenario "+scn.Name, "INTERNAL")
	defer func() {
		tracing.EndSpan(span, err)
	}()
	ctx, tracker := progress.WithNewTracker(ctx, idgen.New(), scn.Name, r.publishProgress)

	var members []*member
	defer func() {
		if err != nil {
			for _, m := range members {
				m.handle.Process().Terminate()
			}
		}
	}()

	// Launch phase: each member reports its address before any setup runs.
	peers := make([][]transport.Address, len(scn.Groups))
	for gi, group := range scn.Groups {
		for i := 0; i < group.Members(); i++ {
			name := group.MemberName(i)
			handle, lerr := process.Launch(ctx, r.env(), r.collectorAddr(), group.Type, process.WithChildName(name))
			if lerr != nil {
				err = fmt.Errorf("failed to launch %v: %w", name, lerr)
				return nil, err
			}
			members = append(members, &member{group: group, gIndex: gi, index: i, handle: handle})
			peers[gi] = append(peers[gi], handle.Address())

			id := handle.Address().ID()
			r.track(handle.Process())
			r.correlation.Track(r.collectorID(), id)
			_ = r.procInfo.Describe(ctx, id, name, group.Type, r.collectorID())
			tracker.Update(progress.Delta{Spawned: 1, Running: 1})
		}
	}

	// Configure phase: fault rates, timeouts, session vars, setup with peers.
	for _, m := range members {
		if cerr := r.configureMember(scn, m, peers[m.gIndex]); cerr != nil {
			err = fmt.Errorf("failed to configure %v: %w", m.handle.Process().Name(), cerr)
			return nil, err
		}
	}

	// Release phase.
	for _, m := range members {
		if serr := m.handle.Start(); serr != nil {
			err = fmt.Errorf("failed to start %v: %w", m.handle.Process().Name(), serr)
			return nil, err
		}
	}

	// Wait for the swarm to settle.
	waiters := new(errgroup.Group)
	for _, m := range members {
		proc := m.handle.Process()
		waiters.Go(func() error {
			_ = proc.Wait(ctx)
			select {
			case <-proc.Done():
			default:
				return ctx.Err()
			}
			delta := progress.Delta{Running: -1}
			switch {
			case proc.ExitCode() == process.CrashExitCode:
				delta.Crashed = 1
			case proc.Err() != nil || proc.ExitCode() != 0:
				delta.Failed = 1
			default:
				delta.Completed = 1
			}
			tracker.Update(delta)
			return nil
		})
	}
	if werr := waiters.Wait(); werr != nil {
		err = werr
		return nil, err
	}

	run = &Run{Scenario: scn, Progress: tracker, byName: map[string]*process.Process{}}
	for _, m := range members {
		proc := m.handle.Process()
		run.members = append(run.members, proc)
		run.byName[proc.Name()] = proc
	}
	return run, nil
}

// configureMember drives the member's handshake up to, but excluding, start.
func (r *Runtime) configureMember(scn *model.Scenario, m *member, groupPeers []transport.Address) error {
	for class, rate := range scn.EffectiveFaults(m.group) {
		option, ok := faultOptions[class]
		if !ok {
			continue
		}
		if err := m.handle.Configure(option, rate); err != nil {
			return err
		}
	}
	if timeout := scn.EffectiveEventTimeout(m.group); timeout != "" {
		if err := m.handle.Configure(process.OptionEventTimeout, timeout); err != nil {
			return err
		}
	}
	session := m.handle.Process().Session()
	for _, param := range m.group.Vars {
		value := param.Value
		if value == nil {
			value = param.Default
		}
		session.Set(param.Name, value)
	}

	args := make([]interface{}, 0, len(m.group.Setup)+1)
	args = append(args, m.group.Setup...)
	switch m.group.Peers {
	case model.PeersOthers:
		others := make([]transport.Address, 0, len(groupPeers)-1)
		for i, addr := range groupPeers {
			if i != m.index {
				others = append(others, addr)
			}
		}
		args = append(args, others)
	case model.PeersAll:
		all := make([]transport.Address, len(groupPeers))
		copy(all, groupPeers)
		args = append(args, all)
	}
	return m.handle.Setup(args...)
}

func (r *Runtime) ensureStarted(ctx context.Context) error {
	r.mu.RLock()
	started := r.started
	r.mu.RUnlock()
	if started {
		return nil
	}
	return r.Start(ctx)
}

func (r *Runtime) env() *process.Env {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.procEnv
}

func (r *Runtime) collectorAddr() transport.Address {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.collector
}

func (r *Runtime) collectorID() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.collector == nil {
		return ""
	}
	return r.collector.ID()
}

func (r *Runtime) track(proc *process.Process) {
	id := proc.ID()
	if id == "" {
		return
	}
	r.mu.Lock()
	r.processes[id] = proc
	r.mu.Unlock()
}
