package process

import (
	"errors"

	"github.com/saquib-ali-khan/distalgo/pattern"
	"github.com/saquib-ali-khan/distalgo/service/fault"
	"github.com/saquib-ali-khan/distalgo/service/transport"
	"github.com/saquib-ali-khan/distalgo/stats"
)

// pump is the background receive loop: it drains the transport mailbox into
// the event queue so senders never block on this process's dispatch pace.
// Reporting tuples are relayed toward the master without touching the clock
// or the fault injector; everything else becomes a received event dispatched
// at checkpoints.
func (p *Process) pump() {
	addr := p.Address()
	for {
		envelope, err := addr.Recv(p.ctx)
		if err != nil {
			if !errors.Is(err, transport.ErrClosed) && p.ctx.Err() == nil {
				p.logf("receive failed: %v", err)
			}
			return
		}
		if _, _, ok := stats.Parse(envelope.Payload); ok {
			p.relayReport(envelope)
			continue
		}
		if p.injector.Fails(fault.Receive) {
			continue
		}
		ev := &pattern.Event{
			Kind:      pattern.KindReceived,
			Payload:   envelope.Payload,
			Timestamp: envelope.Clock,
			Source:    envelope.From,
		}
		if err := p.events.Publish(p.ctx, ev); err != nil {
			return
		}
	}
}

// relayReport forwards a child's reporting tuple to this process's own
// parent, preserving the original sender, so reports always reach the
// master collector.
func (p *Process) relayReport(envelope *transport.Envelope) {
	parent := p.ParentAddress()
	if parent == nil {
		return
	}
	if err := parent.Send(envelope.Payload, envelope.From, envelope.Clock); err != nil {
		p.logf("failed to relay report from %v: %v", envelope.From, err)
	}
}
