// Package pattern implements the event vocabulary of the runtime: events,
// the match capability that turns an event into variable bindings, history
// recording policies and a small text form for tuple patterns.
package pattern

// Bindings maps pattern variable names to the values a match captured.
type Bindings map[string]interface{}

// Clone returns a shallow copy so each queued job owns its bindings.
func (b Bindings) Clone() Bindings {
	if b == nil {
		return nil
	}
	ret := make(Bindings, len(b))
	for name, value := range b {
		ret[name] = value
	}
	return ret
}

// StateView is a read-only accessor over a process's named fields. Patterns
// use it to resolve bound variable references against process state without
// enumerating attributes reflectively.
type StateView interface {
	Lookup(name string) (interface{}, bool)
}

// Pattern decides whether an event matches and produces the bindings the
// match captured. Every attempt starts from fresh bindings: variables bound
// by an earlier event never constrain a later one.
type Pattern interface {
	Match(event *Event, view StateView) (Bindings, bool)
}

// Func adapts a plain function to the Pattern interface.
type Func func(event *Event, view StateView) (Bindings, bool)

// Match implements Pattern.
func (f Func) Match(event *Event, view StateView) (Bindings, bool) {
	return f(event, view)
}

// MessagePattern matches an event's payload against a tuple element, with an
// optional constraint on the message source.
type MessagePattern struct {
	payload Element
	source  Element
}

// MessageOption customizes a message pattern.
type MessageOption func(*MessagePattern)

// WithSource constrains the event source, e.g. WithSource(Bind("sender")) to
// capture it or WithSource(Ref("coordinator")) to require a known peer.
func WithSource(element Element) MessageOption {
	return func(p *MessagePattern) {
		p.source = element
	}
}

// NewMessage creates a pattern matching events whose payload satisfies the
// supplied element.
func NewMessage(payload Element, options ...MessageOption) *MessagePattern {
	ret := &MessagePattern{payload: payload}
	for _, option := range options {
		option(ret)
	}
	return ret
}

// Match implements Pattern.
func (p *MessagePattern) Match(event *Event, view StateView) (Bindings, bool) {
	s := &scope{bindings: Bindings{}, view: view}
	if p.payload != nil && !p.payload.match(event.Payload, s) {
		return nil, false
	}
	if p.source != nil && !p.source.match(event.Source, s) {
		return nil, false
	}
	return s.bindings, true
}
