package process

import (
	"errors"

	"github.com/saquib-ali-khan/distalgo/pattern"
	"github.com/saquib-ali-khan/distalgo/service/handler"
)

// job is one pending handler invocation captured at match time.
type job struct {
	handler  *handler.Handler
	bindings pattern.Bindings
}

// jobQueue holds jobs awaiting an admissible label. It is owned by the
// process goroutine: triggers and checkpoints both run there.
type jobQueue struct {
	items []*job
}

func (q *jobQueue) enqueue(h *handler.Handler, bindings pattern.Bindings) {
	q.items = append(q.items, &job{handler: h, bindings: bindings})
}

func (q *jobQueue) pending() int {
	return len(q.items)
}

// runJobs executes every queued job admissible at the label in FIFO order
// and keeps the rest queued. Executed jobs are consumed even when they fail;
// a job whose bindings cannot satisfy its handler is dropped with a warning.
// Handlers may send and thereby enqueue further jobs, which the same
// checkpoint still considers.
func (p *Process) runJobs(label string) {
	if p.jobs.pending() == 0 {
		return
	}
	var kept []*job
	for i := 0; i < len(p.jobs.items); i++ {
		pending := p.jobs.items[i]
		if !pending.handler.Admits(label) {
			kept = append(kept, pending)
			continue
		}
		if err := pending.handler.Invoke(p.handlerCtx, pending.bindings); err != nil {
			if errors.Is(err, handler.ErrBindings) {
				p.logf("insufficient bindings to call handler %v: %v", pending.handler.Name(), err)
			} else {
				p.logf("handler %v failed: %v", pending.handler.Name(), err)
			}
		}
	}
	p.jobs.items = kept
}

// PendingJobs returns the number of jobs awaiting an admissible label.
func (p *Process) PendingJobs() int {
	return p.jobs.pending()
}
