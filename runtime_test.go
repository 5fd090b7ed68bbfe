package distalgo

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saquib-ali-khan/distalgo/model"
	"github.com/saquib-ali-khan/distalgo/model/state"
	"github.com/saquib-ali-khan/distalgo/pattern"
	"github.com/saquib-ali-khan/distalgo/runtime/process"
	"github.com/saquib-ali-khan/distalgo/service/event"
	"github.com/saquib-ali-khan/distalgo/service/transport"
)

// chorus is a test behavior: every member greets its peers, then waits until
// it heard a greeting back from each of them.
type chorus struct {
	peers []transport.Address
}

func (c *chorus) Setup(proc *process.Process, args []interface{}) error {
	if len(args) > 0 {
		c.peers, _ = args[len(args)-1].([]transport.Address)
	}
	rule := pattern.NewRule("greeting", pattern.KindReceived,
		pattern.NewMessage(pattern.Tuple(pattern.Const("hello"), pattern.Bind("from"))),
		pattern.WithHistory(pattern.AppendRaw()),
	)
	return proc.Register(rule)
}

func (c *chorus) Main(proc *process.Process) error {
	proc.Label(process.LabelStart)
	proc.Send([]interface{}{"hello", proc.Name()}, c.peers...)
	for len(proc.History("greeting")) < len(c.peers) {
		proc.Label("await", process.WithBlock())
	}
	proc.Session().Set("greeted", len(proc.History("greeting")))
	proc.Label(process.LabelEnd)
	return nil
}

// echo is a test behavior sending to itself and draining its own messages.
type echo struct{}

func (e *echo) Setup(proc *process.Process, args []interface{}) error { return nil }

func (e *echo) Main(proc *process.Process) error {
	self := proc.Address()
	proc.Send([]interface{}{"note", 1}, self)
	proc.Send([]interface{}{"note", 2}, self)
	proc.Label("drain", process.WithBlock())
	proc.Label("drain", process.WithBlock())
	return nil
}

func newTestService(t *testing.T, options ...Option) *Service {
	t.Helper()
	srv := New(options...)
	require.NoError(t, srv.RegisterBehavior("chorus", func() process.Behavior { return &chorus{} }))
	require.NoError(t, srv.RegisterBehavior("echo", func() process.Behavior { return &echo{} }))
	t.Cleanup(func() { _ = srv.Runtime().Shutdown(context.Background()) })
	return srv
}

func chorusScenario() *model.Scenario {
	return &model.Scenario{
		Name: "chorus",
		Groups: []*model.Group{{
			Type:  "chorus",
			Count: 3,
			Name:  "member-%d",
			Peers: model.PeersOthers,
			Vars:  state.Parameters{{Name: "motto", Value: "all-for-one"}},
		}},
	}
}

func TestRuntime_RunScenario(t *testing.T) {
	srv := newTestService(t)
	rt := srv.Runtime()
	ctx := context.Background()

	run, err := rt.RunScenario(ctx, chorusScenario())
	require.NoError(t, err)
	require.NotNil(t, run)

	snapshot := run.Progress.Snapshot()
	assert.Equal(t, 3, snapshot.SpawnedProcesses)
	assert.Equal(t, 3, snapshot.CompletedProcesses)
	assert.Equal(t, 0, snapshot.RunningProcesses)
	assert.Equal(t, 0, snapshot.CrashedProcesses)
	assert.Equal(t, 0, snapshot.FailedProcesses)
	assert.True(t, run.Progress.Settled())
	assert.Empty(t, run.Failed())

	members := run.Processes()
	require.Equal(t, 3, len(members))
	for i := 1; i <= 3; i++ {
		member := run.Process(fmt.Sprintf("member-%d", i))
		require.NotNil(t, member)
		assert.Equal(t, process.StateCompleted, member.State())
		assert.Equal(t, 0, member.ExitCode())

		motto, ok := member.Session().Get("motto")
		assert.True(t, ok)
		assert.Equal(t, "all-for-one", motto)
		greeted, ok := member.Session().Get("greeted")
		assert.True(t, ok)
		assert.Equal(t, 2, greeted)

		record, err := rt.Process(ctx, member.ID())
		require.NoError(t, err)
		require.NotNil(t, record)
		assert.Equal(t, fmt.Sprintf("member-%d", i), record.Name)
		assert.Equal(t, "chorus", record.Type)
		assert.NotEmpty(t, record.ParentID)
		assert.Equal(t, process.StateCompleted, record.State)
	}

	// Reports fold asynchronously through the collector.
	assert.Eventually(t, func() bool {
		for _, member := range members {
			record, err := rt.Process(ctx, member.ID())
			if err != nil || record == nil || record.Sent != 1 {
				return false
			}
		}
		return true
	}, 5*time.Second, 10*time.Millisecond)
}

func TestRuntime_RunScenarioCrashFault(t *testing.T) {
	srv := newTestService(t)
	rt := srv.Runtime()
	ctx := context.Background()

	scn := chorusScenario()
	scn.Faults = map[string]int{"crash": 100}
	run, err := rt.RunScenario(ctx, scn)
	require.NoError(t, err)

	snapshot := run.Progress.Snapshot()
	assert.Equal(t, 3, snapshot.SpawnedProcesses)
	assert.Equal(t, 3, snapshot.CrashedProcesses)
	assert.Equal(t, 0, snapshot.CompletedProcesses)
	assert.Equal(t, 3, len(run.Failed()))

	for _, member := range run.Processes() {
		assert.Equal(t, process.CrashExitCode, member.ExitCode())
		assert.Equal(t, process.StateFailed, member.State())

		record, err := rt.Process(ctx, member.ID())
		require.NoError(t, err)
		require.NotNil(t, record)
		assert.Equal(t, process.StateFailed, record.State)
		assert.Equal(t, process.CrashExitCode, record.ExitCode)
	}
}

func TestRuntime_RunScenarioValidation(t *testing.T) {
	srv := newTestService(t)
	rt := srv.Runtime()
	ctx := context.Background()

	_, err := rt.RunScenario(ctx, nil)
	assert.Error(t, err)

	_, err = rt.RunScenario(ctx, &model.Scenario{Name: "empty"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid scenario")
}

func TestRuntime_Spawn(t *testing.T) {
	srv := newTestService(t)
	rt := srv.Runtime()
	ctx := context.Background()

	proc, err := rt.Spawn(ctx, "echo", nil)
	require.NoError(t, err)
	require.NoError(t, proc.Wait(ctx))
	assert.Equal(t, process.StateCompleted, proc.State())
	assert.Same(t, proc, rt.Lookup(proc.ID()))

	assert.Eventually(t, func() bool {
		record, err := rt.Process(ctx, proc.ID())
		if err != nil || record == nil {
			return false
		}
		return record.Sent == 2 && record.State == process.StateCompleted
	}, 5*time.Second, 10*time.Millisecond)

	_, err = rt.Spawn(ctx, "missing", nil)
	assert.Error(t, err)
}

func TestRuntime_Transitions(t *testing.T) {
	srv := newTestService(t, WithConfig(&Config{Events: EventsConfig{Vendor: VendorMemory}}))
	require.NotNil(t, srv.EventService())
	rt := srv.Runtime()
	ctx := context.Background()

	var mu sync.Mutex
	seen := map[string]bool{}
	err := event.SetListenerOf(srv.EventService(), func(ev *event.Event[ProcessTransition]) {
		mu.Lock()
		seen[ev.Data.Name+":"+ev.Data.State] = true
		mu.Unlock()
	})
	require.NoError(t, err)

	scn := &model.Scenario{
		Name:   "solo",
		Groups: []*model.Group{{Type: "chorus", Name: "solo"}},
	}
	_, err = rt.RunScenario(ctx, scn)
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return seen["solo:"+process.StateRunning] && seen["solo:"+process.StateCompleted]
	}, 5*time.Second, 10*time.Millisecond)
}
