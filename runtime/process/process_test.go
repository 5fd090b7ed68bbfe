package process

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/saquib-ali-khan/distalgo/pattern"
	"github.com/saquib-ali-khan/distalgo/service/handler"
	"github.com/saquib-ali-khan/distalgo/service/transport"
	"github.com/saquib-ali-khan/distalgo/service/transport/memory"
	"github.com/saquib-ali-khan/distalgo/stats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// funcBehavior adapts closures to the Behavior interface for tests.
type funcBehavior struct {
	setup func(proc *Process, args []interface{}) error
	main  func(proc *Process) error
}

func (b *funcBehavior) Setup(proc *Process, args []interface{}) error {
	if b.setup == nil {
		return nil
	}
	return b.setup(proc, args)
}

func (b *funcBehavior) Main(proc *Process) error {
	if b.main == nil {
		return nil
	}
	return b.main(proc)
}

// registry resolves behavior names to closure backed instances.
type registry map[string]func() Behavior

func (r registry) New(typeName string) (Behavior, error) {
	factory, ok := r[typeName]
	if !ok {
		return nil, fmt.Errorf("unknown behavior %v", typeName)
	}
	return factory(), nil
}

func newTestEnv(t *testing.T, behaviors registry) (*Env, transport.Address) {
	t.Helper()
	channel := memory.New()
	t.Cleanup(func() { _ = channel.Close() })
	master, err := channel.Identify("master")
	require.NoError(t, err)
	return &Env{
		Channel:      channel,
		Behaviors:    behaviors,
		SpawnTimeout: 5 * time.Second,
	}, master
}

func TestProcess_Lifecycle(t *testing.T) {
	var states []string
	var setupArgs []interface{}
	behaviors := registry{
		"worker": func() Behavior {
			return &funcBehavior{
				setup: func(proc *Process, args []interface{}) error {
					setupArgs = args
					return nil
				},
				main: func(proc *Process) error {
					proc.Label(LabelStart)
					proc.Session().Set("phase", "done")
					proc.Label(LabelEnd)
					return nil
				},
			}
		},
	}
	env, master := newTestEnv(t, behaviors)
	env.Lifecycle = func(proc *Process, state string) {
		states = append(states, state)
	}

	ctx := context.Background()
	child, addr, err := SpawnChild(ctx, env, master, "worker", []interface{}{"alpha", 3})
	require.NoError(t, err)
	require.NotNil(t, addr)
	assert.NotEmpty(t, addr.ID())
	assert.Equal(t, "worker", child.Name())

	require.NoError(t, child.Wait(ctx))
	assert.Equal(t, StateCompleted, child.State())
	assert.Equal(t, 0, child.ExitCode())
	assert.Equal(t, []interface{}{"alpha", 3}, setupArgs)
	assert.Contains(t, states, StateConfiguring)
	assert.Contains(t, states, StateRunning)
	assert.Equal(t, StateCompleted, states[len(states)-1])

	phase, ok := child.Session().Get("phase")
	assert.True(t, ok)
	assert.Equal(t, "done", phase)

	tags := collectReportTags(t, master, 4)
	assert.Contains(t, tags, stats.TagUserTime)
	assert.Contains(t, tags, stats.TagSystemTime)
	assert.Contains(t, tags, stats.TagWallTime)
	assert.Contains(t, tags, stats.TagMemory)
}

// collectReportTags drains n reporting tuples addressed to the master.
func collectReportTags(t *testing.T, master transport.Address, n int) map[string]float64 {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	tags := map[string]float64{}
	for i := 0; i < n; i++ {
		envelope, err := master.Recv(ctx)
		require.NoError(t, err)
		tag, value, ok := stats.Parse(envelope.Payload)
		require.True(t, ok, "unexpected payload %v", envelope.Payload)
		tags[tag] += value
	}
	return tags
}

func TestProcess_PingPong(t *testing.T) {
	behaviors := registry{
		"ponger": func() Behavior {
			return &funcBehavior{
				setup: func(proc *Process, args []interface{}) error {
					rule := pattern.NewRule("ping", pattern.KindReceived,
						pattern.NewMessage(
							pattern.Tuple(pattern.Const("ping"), pattern.Bind("n")),
							pattern.WithSource(pattern.Bind("sender")),
						),
						pattern.WithHistory(pattern.AppendRaw()),
						pattern.WithHandlers(handler.MustNew("reply", func(ctx context.Context, bindings map[string]interface{}) error {
							proc := FromContext(ctx)
							sender := proc.Resolve(bindings["sender"].(string))
							proc.Send([]interface{}{"pong", bindings["n"]}, sender)
							return nil
						})),
					)
					return proc.Register(rule)
				},
				main: func(proc *Process) error {
					proc.Label("serve", WithBlock())
					return nil
				},
			}
		},
		"pinger": func() Behavior {
			var peer transport.Address
			return &funcBehavior{
				setup: func(proc *Process, args []interface{}) error {
					peer = args[0].(transport.Address)
					rule := pattern.NewRule("reply", pattern.KindReceived,
						pattern.NewMessage(pattern.Tuple(pattern.Const("pong"), pattern.Bind("n"))),
						pattern.WithHistory(pattern.AppendRaw()),
					)
					return proc.Register(rule)
				},
				main: func(proc *Process) error {
					proc.Send([]interface{}{"ping", 1}, peer)
					for i := 0; i < 100 && proc.history.Len("reply") == 0; i++ {
						proc.Label("await", WithTimeout(2*time.Second))
						if proc.TimerExpired() {
							break
						}
					}
					if proc.history.Len("reply") == 0 {
						return fmt.Errorf("no reply received")
					}
					return nil
				},
			}
		},
	}
	env, master := newTestEnv(t, behaviors)
	ctx := context.Background()

	ponger, pongerAddr, err := SpawnChild(ctx, env, master, "ponger", nil)
	require.NoError(t, err)
	pinger, _, err := SpawnChild(ctx, env, master, "pinger", []interface{}{pongerAddr})
	require.NoError(t, err)

	require.NoError(t, pinger.Wait(ctx))
	require.NoError(t, ponger.Wait(ctx))
	assert.Equal(t, StateCompleted, pinger.State())
	assert.Equal(t, StateCompleted, ponger.State())

	// ping tick 1, ponger witness 2 then tick 3, pinger witness 4
	assert.Equal(t, uint64(3), ponger.LogicalClock().Current())
	assert.Equal(t, uint64(4), pinger.LogicalClock().Current())

	pings := ponger.History("ping")
	require.Equal(t, 1, len(pings))
	replies := pinger.History("reply")
	require.Equal(t, 1, len(replies))
	tuple, ok := replies[0].([]interface{})
	require.True(t, ok)
	assert.Equal(t, string(pattern.KindReceived), tuple[0])
}

func TestProcess_Exit(t *testing.T) {
	behaviors := registry{
		"quitter": func() Behavior {
			return &funcBehavior{
				main: func(proc *Process) error {
					proc.Exit(3)
					return fmt.Errorf("unreachable")
				},
			}
		},
	}
	env, master := newTestEnv(t, behaviors)
	child, _, err := SpawnChild(context.Background(), env, master, "quitter", nil)
	require.NoError(t, err)
	require.NoError(t, child.Wait(context.Background()))
	assert.Equal(t, StateFailed, child.State())
	assert.Equal(t, 3, child.ExitCode())
}

func TestProcess_MainError(t *testing.T) {
	behaviors := registry{
		"broken": func() Behavior {
			return &funcBehavior{
				main: func(proc *Process) error {
					return fmt.Errorf("boom")
				},
			}
		},
	}
	env, master := newTestEnv(t, behaviors)
	child, _, err := SpawnChild(context.Background(), env, master, "broken", nil)
	require.NoError(t, err)
	err = child.Wait(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	assert.Equal(t, StateFailed, child.State())
}

func TestProcess_Panic(t *testing.T) {
	behaviors := registry{
		"panicky": func() Behavior {
			return &funcBehavior{
				main: func(proc *Process) error {
					panic("kaboom")
				},
			}
		},
	}
	env, master := newTestEnv(t, behaviors)
	child, _, err := SpawnChild(context.Background(), env, master, "panicky", nil)
	require.NoError(t, err)
	err = child.Wait(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kaboom")
	assert.Equal(t, StateFailed, child.State())
}

func TestProcess_Terminate(t *testing.T) {
	started := make(chan struct{})
	behaviors := registry{
		"idler": func() Behavior {
			return &funcBehavior{
				main: func(proc *Process) error {
					close(started)
					for {
						proc.Label("idle", WithBlock())
					}
				},
			}
		},
	}
	env, master := newTestEnv(t, behaviors)
	child, _, err := SpawnChild(context.Background(), env, master, "idler", nil)
	require.NoError(t, err)
	<-started
	child.Terminate()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, child.Wait(ctx))
	assert.Equal(t, StateCompleted, child.State())
	assert.Equal(t, 0, child.ExitCode())
}

func TestProcess_TerminateCascades(t *testing.T) {
	behaviors := registry{
		"leaf": func() Behavior {
			return &funcBehavior{
				main: func(proc *Process) error {
					for {
						proc.Label("idle", WithBlock())
					}
				},
			}
		},
		"parent": func() Behavior {
			return &funcBehavior{
				main: func(proc *Process) error {
					if _, err := proc.Spawn("leaf", nil); err != nil {
						return err
					}
					proc.Session().Set("spawned", true)
					for {
						proc.Label("idle", WithBlock())
					}
				},
			}
		},
	}
	env, master := newTestEnv(t, behaviors)
	parent, _, err := SpawnChild(context.Background(), env, master, "parent", nil)
	require.NoError(t, err)

	deadline := time.Now().Add(5 * time.Second)
	for len(parent.Children()) == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	children := parent.Children()
	require.Equal(t, 1, len(children))

	parent.Terminate()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, parent.Wait(ctx))
	require.NoError(t, children[0].Wait(ctx))
	assert.Equal(t, StateCompleted, children[0].State())
}

func TestLaunch_UnknownBehavior(t *testing.T) {
	env, master := newTestEnv(t, registry{})
	_, err := Launch(context.Background(), env, master, "missing")
	assert.Error(t, err)
}

func TestProcess_SentReportCount(t *testing.T) {
	behaviors := registry{
		"chatty": func() Behavior {
			return &funcBehavior{
				main: func(proc *Process) error {
					self := proc.Address()
					proc.Send("one", self)
					proc.Send("two", self)
					proc.Label("drain", WithBlock())
					proc.Label("drain", WithBlock())
					return nil
				},
			}
		},
	}
	env, master := newTestEnv(t, behaviors)
	child, _, err := SpawnChild(context.Background(), env, master, "chatty", nil)
	require.NoError(t, err)
	require.NoError(t, child.Wait(context.Background()))

	// two sent reports plus four usage reports on exit
	tags := collectReportTags(t, master, 6)
	assert.Equal(t, float64(2), tags[stats.TagSent])
	assert.Equal(t, uint64(4), child.LogicalClock().Current())
}
