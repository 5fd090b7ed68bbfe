// Package process implements the execution of a single algorithm node: its
// lifecycle from spawn handshake to usage report, the background receive
// pump feeding its event queue, the logical clock, pattern driven dispatch
// with label scoped job execution, fault injection and the spawn protocol
// for children.
//
// A process runs its behavior on a dedicated goroutine. Checkpoints
// (Process.Label) are the only points where queued events are dispatched and
// queued handler jobs run, so behavior code never races with its own
// handlers.
package process
