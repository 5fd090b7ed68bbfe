package process

import (
	"github.com/saquib-ali-khan/distalgo/pattern"
	"github.com/saquib-ali-khan/distalgo/service/fault"
	"github.com/saquib-ali-khan/distalgo/service/transport"
	"github.com/saquib-ali-khan/distalgo/stats"
	"github.com/saquib-ali-khan/distalgo/tracing"
)

// Send delivers payload to one or more destinations and reports whether
// every destination accepted the envelope. The logical clock advances
// exactly once per call. A send suppressed by fault injection or refused by
// the transport still advances the clock, still triggers the local sent
// event and is still counted in the report to the parent; it only returns
// false.
func (p *Process) Send(payload interface{}, to ...transport.Address) bool {
	_, span := tracing.StartSpan(p.ctx, "process.Send", "PRODUCER")
	defer tracing.EndSpan(span, nil)

	clockValue := p.clock.Tick()
	ok := true
	if p.injector.Fails(fault.Send) {
		p.logf("send suppressed by fault injection")
		ok = false
	} else {
		for _, dest := range to {
			if dest == nil {
				ok = false
				continue
			}
			if err := dest.Send(payload, p.ID(), clockValue); err != nil {
				p.logf("send to %v failed: %v", dest.ID(), err)
				ok = false
			}
		}
	}

	ev := &pattern.Event{
		Kind:      pattern.KindSent,
		Payload:   payload,
		Timestamp: clockValue,
		Source:    p.ID(),
	}
	if len(to) == 1 && to[0] != nil {
		ev.Destination = to[0].ID()
	}
	p.trigger(ev)
	p.reportRaw(stats.TagSent, 1)
	return ok
}

// Resolve reconstructs a peer handle from a wire identity, e.g. a sender
// captured by a pattern.
func (p *Process) Resolve(id string) transport.Address {
	return p.env.Channel.Resolve(id)
}

// reportRaw sends one reporting tuple to the parent, bypassing the logical
// clock and the fault injector. Reports are best effort.
func (p *Process) reportRaw(tag string, value float64) {
	parent := p.ParentAddress()
	if parent == nil {
		return
	}
	if err := parent.Send(stats.Report(tag, value), p.ID(), p.clock.Current()); err != nil {
		p.logf("failed to report %v: %v", tag, err)
	}
}

// reportUsage sends the final usage totals and memory footprint.
func (p *Process) reportUsage() {
	usr, sys, wall := p.usage.Totals()
	p.reportRaw(stats.TagUserTime, usr)
	p.reportRaw(stats.TagSystemTime, sys)
	p.reportRaw(stats.TagWallTime, wall.Seconds())
	p.reportRaw(stats.TagMemory, stats.MemoryKB())
}

// ReportMemory reports the current memory footprint on demand.
func (p *Process) ReportMemory() {
	p.reportRaw(stats.TagMemory, stats.MemoryKB())
}
