// Package trace captures the observable steps of a process run as an
// ordered record that can be rendered, persisted and compared between runs.
package trace

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/saquib-ali-khan/distalgo/pattern"
)

// Step kinds recorded by the runtime.
const (
	StepLabel = "label"
	StepEvent = "event"
)

// Step is one recorded observation: a checkpoint reached or an event
// dispatched, together with the logical clock at that point.
type Step struct {
	Kind      string      `json:"kind"`
	Label     string      `json:"label,omitempty"`
	Event     string      `json:"event,omitempty"`
	Payload   interface{} `json:"payload,omitempty"`
	Timestamp uint64      `json:"timestamp,omitempty"`
	Source    string      `json:"source,omitempty"`
	Clock     uint64      `json:"clock"`
}

// Run is a named, immutable snapshot of recorded steps.
type Run struct {
	Name  string `json:"name"`
	Steps []Step `json:"steps"`
}

// Recorder accumulates the steps of one process run. It is safe for use from
// the process goroutine and the readers snapshotting it.
type Recorder struct {
	mu    sync.Mutex
	name  string
	steps []Step
}

// NewRecorder creates a recorder for the named run.
func NewRecorder(name string) *Recorder {
	return &Recorder{name: name}
}

// RecordLabel records a checkpoint the process reached.
func (r *Recorder) RecordLabel(label string, clock uint64) {
	r.record(Step{Kind: StepLabel, Label: label, Clock: clock})
}

// RecordEvent records an event the process dispatched.
func (r *Recorder) RecordEvent(event *pattern.Event, clock uint64) {
	r.record(Step{
		Kind:      StepEvent,
		Event:     string(event.Kind),
		Payload:   event.Payload,
		Timestamp: event.Timestamp,
		Source:    event.Source,
		Clock:     clock,
	})
}

func (r *Recorder) record(step Step) {
	r.mu.Lock()
	r.steps = append(r.steps, step)
	r.mu.Unlock()
}

// Len returns the number of recorded steps.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.steps)
}

// Run snapshots the recorded steps.
func (r *Recorder) Run() *Run {
	r.mu.Lock()
	defer r.mu.Unlock()
	steps := make([]Step, len(r.steps))
	copy(steps, r.steps)
	return &Run{Name: r.name, Steps: steps}
}

// Format renders a run one step per line, payloads in their JSON form, so
// two runs can be compared textually.
func (r *Run) Format() string {
	builder := &strings.Builder{}
	for _, step := range r.Steps {
		switch step.Kind {
		case StepLabel:
			fmt.Fprintf(builder, "label %v clock=%v\n", step.Label, step.Clock)
		case StepEvent:
			fmt.Fprintf(builder, "%v %v ts=%v from=%v clock=%v\n",
				step.Event, compactJSON(step.Payload), step.Timestamp, step.Source, step.Clock)
		default:
			fmt.Fprintf(builder, "%v clock=%v\n", step.Kind, step.Clock)
		}
	}
	return builder.String()
}

func compactJSON(value interface{}) string {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Sprintf("%v", value)
	}
	return string(data)
}
