package pattern

import (
	"fmt"

	"github.com/saquib-ali-khan/distalgo/service/handler"
)

// Rule binds a named pattern to the handlers it fires and to the history
// policy applied on every match. Rules are registered on a process before it
// starts; only their history containers mutate afterwards.
type Rule struct {
	// Name identifies the rule's history container and shows up in logs.
	Name string
	// Kind is the event kind the rule observes; empty observes both.
	Kind Kind
	// Pattern decides whether an event matches and which values it captures.
	Pattern Pattern
	// History controls what each match records.
	History HistoryPolicy
	// Handlers are queued as jobs on every match, one job per handler.
	Handlers []*handler.Handler
}

// NewRule creates a rule observing events of the supplied kind.
func NewRule(name string, kind Kind, p Pattern, options ...RuleOption) *Rule {
	rule := &Rule{Name: name, Kind: kind, Pattern: p, History: NoHistory()}
	for _, option := range options {
		option(rule)
	}
	return rule
}

// RuleOption customizes a rule.
type RuleOption func(*Rule)

// WithHistory sets the rule's history policy.
func WithHistory(policy HistoryPolicy) RuleOption {
	return func(r *Rule) {
		r.History = policy
	}
}

// WithHandlers appends handlers fired on every match.
func WithHandlers(handlers ...*handler.Handler) RuleOption {
	return func(r *Rule) {
		r.Handlers = append(r.Handlers, handlers...)
	}
}

// Observes reports whether the rule applies to events of the given kind.
func (r *Rule) Observes(kind Kind) bool {
	return r.Kind == "" || r.Kind == kind
}

// Validate checks the rule is complete enough to register.
func (r *Rule) Validate() error {
	if r == nil {
		return fmt.Errorf("rule was nil")
	}
	if r.Name == "" {
		return fmt.Errorf("rule name was empty")
	}
	if r.Pattern == nil {
		return fmt.Errorf("rule %v had no pattern", r.Name)
	}
	switch r.Kind {
	case "", KindSent, KindReceived:
	default:
		return fmt.Errorf("rule %v observes unknown kind %q", r.Name, r.Kind)
	}
	return nil
}
