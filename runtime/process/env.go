package process

import (
	"fmt"
	"time"

	"github.com/saquib-ali-khan/distalgo/service/correlation"
	"github.com/saquib-ali-khan/distalgo/service/fault"
	"github.com/saquib-ali-khan/distalgo/service/transport"
)

// Env is the shared wiring every process spawned by one runtime uses.
type Env struct {
	// Channel assigns process identities and routes envelopes.
	Channel transport.Channel

	// Behaviors resolves behavior type names during spawn.
	Behaviors BehaviorRegistry

	// Correlation, when set, records the spawn tree.
	Correlation *correlation.Registry

	// Lifecycle, when set, observes every state transition of every process
	// in the swarm. It is called from the transitioning process's goroutine
	// and must not block.
	Lifecycle func(proc *Process, state string)

	// SpawnTimeout bounds how long a spawn waits for the child's handshake
	// address. Zero waits forever, matching the documented behavior that a
	// child crashing before the handshake leaves the spawner blocked.
	SpawnTimeout time.Duration

	// EventTimeout bounds blocking checkpoints that carry no explicit
	// timeout. Zero blocks until an event arrives.
	EventTimeout time.Duration

	// FaultRates seeds every new process's fault injector.
	FaultRates map[fault.Class]int
}

// Validate verifies the environment can run processes.
func (e *Env) Validate() error {
	if e == nil {
		return fmt.Errorf("process env was nil")
	}
	if e.Channel == nil {
		return fmt.Errorf("process env had no transport channel")
	}
	return nil
}
