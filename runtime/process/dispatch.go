package process

import (
	"fmt"

	"github.com/saquib-ali-khan/distalgo/pattern"
)

// Register adds pattern rules to the process. Rules may only be registered
// before the start command releases the process, typically from Setup.
func (p *Process) Register(rules ...*pattern.Rule) error {
	if p.Running() {
		return fmt.Errorf("cannot register rules on a running process")
	}
	for _, rule := range rules {
		if err := rule.Validate(); err != nil {
			return err
		}
		if !rule.History.Disabled() {
			p.history.Register(rule.Name, rule.Kind)
		}
		p.rules = append(p.rules, rule)
	}
	return nil
}

// trigger matches one event against every registered rule. Each match starts
// from fresh bindings, applies the rule's history policy and queues one job
// per handler with its own copy of the bindings.
func (p *Process) trigger(ev *pattern.Event) {
	if p.recorder != nil {
		p.recorder.RecordEvent(ev, p.clock.Current())
	}
	view := p.session.View()
	for _, rule := range p.rules {
		if !rule.Observes(ev.Kind) {
			continue
		}
		bindings, ok := rule.Pattern.Match(ev, view)
		if !ok {
			continue
		}
		if !rule.History.Disabled() {
			p.history.Update(rule.Name, rule.History, ev.Tuple())
		}
		for _, h := range rule.Handlers {
			p.jobs.enqueue(h, bindings.Clone())
		}
	}
}

// rememberReceived keeps dispatched message payloads for HasReceived.
func (p *Process) rememberReceived(payload interface{}) {
	p.receivedLog = append(p.receivedLog, payload)
}

// HasReceived reports whether a message equal to payload was dispatched and
// consumes one occurrence: asking again requires another delivery.
func (p *Process) HasReceived(payload interface{}) bool {
	for i, recorded := range p.receivedLog {
		if pattern.Equal(recorded, payload) {
			p.receivedLog = append(p.receivedLog[:i], p.receivedLog[i+1:]...)
			return true
		}
	}
	return false
}

// PurgeReceived clears every history container recording received events and
// the HasReceived log.
func (p *Process) PurgeReceived() {
	p.history.Purge(pattern.KindReceived)
	p.receivedLog = nil
}

// PurgeSent clears every history container recording sent events.
func (p *Process) PurgeSent() {
	p.history.Purge(pattern.KindSent)
}
