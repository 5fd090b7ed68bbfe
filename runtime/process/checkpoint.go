package process

import (
	"context"
	"errors"
	"time"

	"github.com/saquib-ali-khan/distalgo/internal/clock"
	"github.com/saquib-ali-khan/distalgo/pattern"
	"github.com/saquib-ali-khan/distalgo/service/fault"
	"github.com/saquib-ali-khan/distalgo/service/messaging"
	"github.com/saquib-ali-khan/distalgo/tracing"
)

// Reserved checkpoint names controlling usage accounting.
const (
	LabelStart = "start"
	LabelEnd   = "end"
)

type labelOptions struct {
	block      bool
	timeout    time.Duration
	hasTimeout bool
}

// LabelOption customizes one checkpoint.
type LabelOption func(*labelOptions)

// WithBlock makes the checkpoint wait for an event instead of polling.
func WithBlock() LabelOption {
	return func(o *labelOptions) {
		o.block = true
	}
}

// WithTimeout makes the checkpoint wait up to the remainder of the shared
// checkpoint timer, starting the timer if none is running.
func WithTimeout(timeout time.Duration) LabelOption {
	return func(o *labelOptions) {
		o.block = true
		o.timeout = timeout
		o.hasTimeout = true
	}
}

// Label marks a checkpoint, the only point where queued events dispatch and
// queued handler jobs run. The reserved names start and end open and close
// usage accounting. A crash fault terminates the process here with
// CrashExitCode. Label must be called from the process goroutine.
func (p *Process) Label(name string, options ...LabelOption) {
	if p.ctx.Err() != nil {
		p.logf("interrupted at label %v, exiting", name)
		p.Exit(0)
	}
	_, span := tracing.StartSpan(p.ctx, "process.Label "+name, "INTERNAL")
	defer tracing.EndSpan(span, nil)

	opts := &labelOptions{}
	for _, option := range options {
		option(opts)
	}

	switch name {
	case LabelStart:
		p.usage.Start()
	case LabelEnd:
		p.usage.Stop()
	}
	if p.recorder != nil {
		p.recorder.RecordLabel(name, p.clock.Current())
	}
	if p.injector.Fails(fault.Crash) {
		p.Output("stuck in label: " + name)
		p.Exit(CrashExitCode)
	}

	block := opts.block
	wait, hasDeadline := time.Duration(0), false
	if opts.hasTimeout {
		if p.timerAt.IsZero() {
			p.timerAt = clock.Now()
			p.timerExpired = false
		}
		remaining := opts.timeout - clock.Since(p.timerAt)
		if remaining <= 0 {
			p.timerAt = time.Time{}
			p.timerExpired = true
			block = false
		} else {
			wait, hasDeadline = remaining, true
		}
	} else if block {
		if timeout := p.eventTimeout(); timeout > 0 {
			wait, hasDeadline = timeout, true
		}
	}

	p.processOne(block, wait, hasDeadline)
	p.runJobs(name)
}

// TimerExpired reports whether the shared checkpoint timer ran out. Await
// loops poll it after each timed checkpoint; starting a fresh timer clears
// it.
func (p *Process) TimerExpired() bool {
	return p.timerExpired
}

// ClearTimer stops the shared checkpoint timer without marking it expired.
func (p *Process) ClearTimer() {
	p.timerAt = time.Time{}
	p.timerExpired = false
}

// processOne dispatches at most one queued event: poll when not blocking,
// otherwise wait bounded by the supplied deadline. An empty wait has no
// effect.
func (p *Process) processOne(block bool, wait time.Duration, hasDeadline bool) {
	var ev *pattern.Event
	if !block {
		msg, ok := p.events.Poll()
		if !ok {
			return
		}
		_ = msg.Ack()
		ev = msg.T()
	} else {
		ctx := p.ctx
		if hasDeadline {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(p.ctx, wait)
			defer cancel()
		}
		msg, err := p.events.Consume(ctx)
		if err != nil {
			switch {
			case errors.Is(err, context.DeadlineExceeded),
				errors.Is(err, context.Canceled),
				errors.Is(err, messaging.ErrClosed):
			default:
				p.logf("error while waiting for events: %v", err)
			}
			return
		}
		_ = msg.Ack()
		ev = msg.T()
	}

	p.clock.Witness(ev.Timestamp)
	if ev.Kind == pattern.KindReceived {
		p.rememberReceived(ev.Payload)
	}
	p.trigger(ev)
}
