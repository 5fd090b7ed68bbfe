// Command distalgo runs distributed algorithm scenarios from the terminal:
// it loads a YAML scenario, spawns the process swarm on the selected
// transport and reports per-process outcomes.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/viant/afs"

	"github.com/saquib-ali-khan/distalgo"
	"github.com/saquib-ali-khan/distalgo/examples/lamutex"
	"github.com/saquib-ali-khan/distalgo/model"
	"github.com/saquib-ali-khan/distalgo/service/event"
	"github.com/saquib-ali-khan/distalgo/service/scenario"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

// CLI flags
var (
	transportFlag string
	natsURL       string
	spoolBaseURL  string
	eventTimeout  string
	runTimeout    time.Duration
	traceFile     string
	verbose       bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "distalgo",
	Short: "Run distributed algorithm scenarios",
	Long: `Distalgo executes distributed algorithms as swarms of message-passing
processes. A YAML scenario selects the transport, the fault rates and the
process groups to spawn.

Examples:
  distalgo run examples/lamutex/lamutex.yaml
  distalgo run lamutex.yaml --transport nats --url nats://127.0.0.1:4222
  distalgo validate lamutex.yaml
  distalgo behaviors`,
	Version: fmt.Sprintf("%s (%s)", version, commit),
}

var runCmd = &cobra.Command{
	Use:   "run [scenario]",
	Short: "Run a scenario",
	Long: `Load a YAML scenario, spawn every process group on the configured
transport and wait until the swarm settles. The transport flag overrides the
scenario's transport vendor.`,
	Args: cobra.ExactArgs(1),
	RunE: runScenario,
}

var validateCmd = &cobra.Command{
	Use:   "validate [scenario]",
	Short: "Validate a scenario definition",
	Args:  cobra.ExactArgs(1),
	RunE:  runValidate,
}

var behaviorsCmd = &cobra.Command{
	Use:   "behaviors",
	Short: "List built-in behavior types",
	RunE:  runBehaviors,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Print process state transitions as they happen")

	runCmd.Flags().StringVarP(&transportFlag, "transport", "t", "", "Transport vendor (memory, fs, nats) overriding the scenario")
	runCmd.Flags().StringVar(&natsURL, "url", "", "NATS server URL for the nats transport")
	runCmd.Flags().StringVar(&spoolBaseURL, "base-url", "", "Spool directory base URL for the fs transport")
	runCmd.Flags().StringVar(&eventTimeout, "event-timeout", "", "Default blocking checkpoint timeout, e.g. 250ms")
	runCmd.Flags().DurationVar(&runTimeout, "timeout", 0, "Abort the run after this duration (0 waits forever)")
	runCmd.Flags().StringVar(&traceFile, "trace", "", "Write OpenTelemetry spans to this file")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(behaviorsCmd)
}

// registerBuiltins adds the behaviors shipped with the binary.
func registerBuiltins(srv *distalgo.Service) error {
	return lamutex.Register(srv)
}

func runScenario(cmd *cobra.Command, args []string) error {
	scenarios := scenario.New(afs.New(), "")
	ctx := cmd.Context()
	scn, err := scenarios.Load(ctx, args[0])
	if err != nil {
		return err
	}

	config := distalgo.DefaultConfig()
	if scn.Transport != "" {
		config.Transport.Vendor = scn.Transport
	}
	if transportFlag != "" {
		config.Transport.Vendor = transportFlag
	}
	if natsURL != "" {
		config.Transport.URL = natsURL
	}
	if spoolBaseURL != "" {
		config.Transport.BaseURL = spoolBaseURL
	}
	if eventTimeout != "" {
		config.EventTimeout = eventTimeout
	}
	if verbose {
		config.Events.Vendor = distalgo.VendorMemory
	}

	options := []distalgo.Option{distalgo.WithConfig(config)}
	if traceFile != "" {
		options = append(options, distalgo.WithTracing("distalgo", version, traceFile))
	}
	srv := distalgo.New(options...)
	if err := registerBuiltins(srv); err != nil {
		return err
	}
	if verbose && srv.EventService() != nil {
		err := event.SetListenerOf(srv.EventService(), func(ev *event.Event[distalgo.ProcessTransition]) {
			fmt.Printf("  %-24s %s\n", ev.Data.Name, ev.Data.State)
		})
		if err != nil {
			return err
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	if runTimeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, runTimeout)
		defer cancel()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\nInterrupted, terminating processes...")
		cancel()
	}()

	rt := srv.Runtime()
	defer func() {
		_ = rt.Shutdown(context.Background())
	}()

	started := time.Now()
	fmt.Printf("Running %s (%d processes)...\n", scn.Name, scn.Total())
	run, err := rt.RunScenario(ctx, scn)
	if err != nil {
		return err
	}
	elapsed := time.Since(started)

	// Usage reports fold asynchronously after processes exit.
	time.Sleep(200 * time.Millisecond)
	printSummary(ctx, rt, run, elapsed)

	if failed := run.Failed(); len(failed) > 0 {
		return fmt.Errorf("%d of %d processes failed", len(failed), len(run.Processes()))
	}
	return nil
}

func printSummary(ctx context.Context, rt *distalgo.Runtime, run *distalgo.Run, elapsed time.Duration) {
	snapshot := run.Progress.Snapshot()
	fmt.Printf("\nScenario:  %s\n", run.Scenario.Name)
	fmt.Printf("Duration:  %s\n", elapsed.Round(time.Millisecond))
	fmt.Printf("Processes: %d spawned, %d completed, %d crashed, %d failed\n\n",
		snapshot.SpawnedProcesses, snapshot.CompletedProcesses,
		snapshot.CrashedProcesses, snapshot.FailedProcesses)

	fmt.Printf("%-24s %-20s %-10s %5s %6s %10s %10s\n", "NAME", "TYPE", "STATE", "EXIT", "SENT", "CPU", "MEM")
	for _, proc := range run.Processes() {
		record, err := rt.Process(ctx, proc.ID())
		if err != nil || record == nil {
			fmt.Printf("%-24s %-20s %-10s\n", proc.Name(), "?", proc.State())
			continue
		}
		fmt.Printf("%-24s %-20s %-10s %5d %6d %9.3fs %8.0fKB\n",
			record.Name, record.Type, record.State, record.ExitCode,
			record.Sent, record.UserTime+record.SystemTime, record.MemoryKB)
	}
}

func runValidate(cmd *cobra.Command, args []string) error {
	scenarios := scenario.New(afs.New(), "")
	scn, err := scenarios.Load(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	fmt.Printf("Scenario %q is valid\n", scn.Name)
	if scn.Description != "" {
		fmt.Printf("  %s\n", scn.Description)
	}
	fmt.Printf("  transport: %s\n", transportName(scn))
	fmt.Printf("  processes: %d in %d group(s)\n", scn.Total(), len(scn.Groups))
	for _, group := range scn.Groups {
		fmt.Printf("    - %s x%d\n", group.Type, group.Members())
	}
	return nil
}

func transportName(scn *model.Scenario) string {
	if scn.Transport == "" {
		return distalgo.VendorMemory
	}
	return scn.Transport
}

func runBehaviors(cmd *cobra.Command, args []string) error {
	srv := distalgo.New()
	if err := registerBuiltins(srv); err != nil {
		return err
	}
	for _, name := range srv.Behaviors().Names() {
		fmt.Println(name)
	}
	return nil
}
