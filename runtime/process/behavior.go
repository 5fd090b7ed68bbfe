package process

// Behavior is the algorithm code a process executes. Implementations are
// stateful: a fresh instance is created per spawned process.
type Behavior interface {
	// Setup initializes behavior state from the spawn arguments. It runs
	// during the handshake, before the start command releases the process,
	// and is the place to register pattern rules.
	Setup(proc *Process, args []interface{}) error

	// Main is the process entry point, invoked once the parent sends start.
	Main(proc *Process) error
}

// BehaviorRegistry resolves a behavior type name to a fresh instance.
type BehaviorRegistry interface {
	New(typeName string) (Behavior, error)
}
