// Package distalgo provides a runtime for executing distributed algorithms
// as swarms of message-passing processes.
//
// Each process runs a user behavior through a fixed lifecycle (configure,
// setup, start), exchanges logically-clocked messages over a pluggable
// transport and matches received history against declarative patterns. The
// runtime comes with pluggable service layers such as:
//
//   - runtime/process – process lifecycle, receive pump and job dispatch
//   - transport       – in-memory, file-spool and NATS message channels
//   - scenario        – declarative swarm definitions loaded from YAML
//   - fault           – probabilistic send/receive/crash fault injection
//
// Distalgo is designed to be embedded in host applications.  End-users
// typically interact with the runtime via the high-level Service façade
// exposed by the root package:
//
//	srv := distalgo.New()
//	_ = srv.RegisterBehavior("lamutex/Site", func() process.Behavior { return &Site{} })
//	rt := srv.Runtime()
//	scn, _ := rt.LoadScenario(ctx, "scenario.yaml")
//	run, _ := rt.RunScenario(ctx, scn)
//	fmt.Println(run.Progress.Snapshot())
//
// For more details see the README and individual sub-packages.
package distalgo
