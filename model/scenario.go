package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/saquib-ali-khan/distalgo/model/state"
	"github.com/saquib-ali-khan/distalgo/service/fault"
)

// Peer selection modes for group setup arguments.
const (
	// PeersNone omits member addresses from the setup arguments.
	PeersNone = ""
	// PeersOthers appends the addresses of every other group member.
	PeersOthers = "others"
	// PeersAll appends the addresses of every member, the process itself
	// included.
	PeersAll = "all"
)

// Scenario describes one run of a distributed algorithm: the transport that
// carries messages, default fault rates, and the process groups to spawn.
type Scenario struct {

	// Source provides information about the origin of the scenario
	Source *Source `json:"source,omitempty" yaml:"source,omitempty"`

	// Name is the unique identifier for the scenario
	Name string `json:"name" yaml:"name"`

	// Description provides a human-readable description of the scenario
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// Transport selects the channel vendor; empty means the in-memory channel
	Transport string `json:"transport,omitempty" yaml:"transport,omitempty"`

	// Faults holds the default fault rates (percent per class) applied to
	// every group
	Faults map[string]int `json:"faults,omitempty" yaml:"faults,omitempty"`

	// EventTimeout bounds each blocking checkpoint wait, e.g. "250ms"
	EventTimeout string `json:"eventTimeout,omitempty" yaml:"eventTimeout,omitempty"`

	// Groups lists the process groups to spawn
	Groups []*Group `json:"groups" yaml:"groups"`
}

// Group describes a uniform set of processes sharing one behavior type.
type Group struct {

	// Type is the registered behavior type name
	Type string `json:"type" yaml:"type"`

	// Count is the number of group members; zero means one
	Count int `json:"count,omitempty" yaml:"count,omitempty"`

	// Name is the display-name template; a %d verb receives the one-based
	// member index
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	// Setup holds positional arguments passed to the behavior setup
	Setup []interface{} `json:"setup,omitempty" yaml:"setup,omitempty"`

	// Vars seeds the process session before setup runs
	Vars state.Parameters `json:"vars,omitempty" yaml:"vars,omitempty"`

	// Peers selects which member addresses are appended to the setup
	// arguments: "others", "all" or empty for none
	Peers string `json:"peers,omitempty" yaml:"peers,omitempty"`

	// Faults overrides scenario fault rates for this group
	Faults map[string]int `json:"faults,omitempty" yaml:"faults,omitempty"`

	// EventTimeout overrides the scenario event timeout for this group
	EventTimeout string `json:"eventTimeout,omitempty" yaml:"eventTimeout,omitempty"`
}

// Source describes where a scenario definition was loaded from.
type Source struct {
	URL string `json:"url,omitempty" yaml:"url,omitempty"`
}

// NewScenario creates a new scenario with the given name.
func NewScenario(name string) *Scenario {
	return &Scenario{Name: name}
}

// WithTransport sets the transport vendor.
func (s *Scenario) WithTransport(vendor string) *Scenario {
	s.Transport = vendor
	return s
}

// WithFault sets a default fault rate.
func (s *Scenario) WithFault(class string, rate int) *Scenario {
	if s.Faults == nil {
		s.Faults = make(map[string]int)
	}
	s.Faults[class] = rate
	return s
}

// AddGroup appends a process group.
func (s *Scenario) AddGroup(group *Group) *Scenario {
	s.Groups = append(s.Groups, group)
	return s
}

// Total returns the number of processes the scenario spawns.
func (s *Scenario) Total() int {
	total := 0
	for _, group := range s.Groups {
		total += group.Members()
	}
	return total
}

// EffectiveFaults merges scenario-level fault rates with the group overrides
// and converts the keys to fault classes.
func (s *Scenario) EffectiveFaults(group *Group) map[fault.Class]int {
	merged := make(map[fault.Class]int, len(s.Faults)+len(group.Faults))
	for class, rate := range s.Faults {
		merged[fault.Class(class)] = rate
	}
	for class, rate := range group.Faults {
		merged[fault.Class(class)] = rate
	}
	return merged
}

// EffectiveEventTimeout returns the group override when present, the scenario
// default otherwise.
func (s *Scenario) EffectiveEventTimeout(group *Group) string {
	if group.EventTimeout != "" {
		return group.EventTimeout
	}
	return s.EventTimeout
}

// Validate performs a best-effort structural validation of the scenario. The
// returned slice is empty when the scenario is sound; otherwise it contains
// human-readable error descriptions.
func (s *Scenario) Validate() []error {
	var issues []error

	if s.Name == "" {
		issues = append(issues, fmt.Errorf("scenario name is empty"))
	}
	issues = append(issues, validateFaults("scenario", s.Faults)...)
	issues = append(issues, validateTimeout("scenario", s.EventTimeout)...)

	if len(s.Groups) == 0 {
		issues = append(issues, fmt.Errorf("scenario has no groups"))
		return issues
	}

	seen := map[string]bool{}
	for i, group := range s.Groups {
		scope := fmt.Sprintf("group[%d]", i)
		if group == nil {
			issues = append(issues, fmt.Errorf("%s is nil", scope))
			continue
		}
		if group.Type == "" {
			issues = append(issues, fmt.Errorf("%s has no behavior type", scope))
		}
		if group.Count < 0 {
			issues = append(issues, fmt.Errorf("%s has negative count %d", scope, group.Count))
		}
		switch group.Peers {
		case PeersNone, PeersOthers, PeersAll:
		default:
			issues = append(issues, fmt.Errorf("%s has unknown peers mode %q", scope, group.Peers))
		}
		if group.Members() > 1 && group.Name != "" && !strings.Contains(group.Name, "%d") {
			issues = append(issues, fmt.Errorf("%s name template %q lacks a %%d member index", scope, group.Name))
		}
		if !group.Vars.IsUnique() {
			issues = append(issues, fmt.Errorf("%s declares a duplicate var", scope))
		}
		for _, v := range group.Vars {
			if v == nil || v.Name == "" {
				issues = append(issues, fmt.Errorf("%s declares an unnamed var", scope))
			}
		}
		issues = append(issues, validateFaults(scope, group.Faults)...)
		issues = append(issues, validateTimeout(scope, group.EventTimeout)...)

		for j := 0; j < group.Members(); j++ {
			name := group.MemberName(j)
			if seen[name] {
				issues = append(issues, fmt.Errorf("duplicate member name %s", name))
			}
			seen[name] = true
		}
	}
	return issues
}

func validateFaults(scope string, faults map[string]int) []error {
	var issues []error
	for class, rate := range faults {
		switch fault.Class(class) {
		case fault.Send, fault.Receive, fault.Crash:
		default:
			issues = append(issues, fmt.Errorf("%s has unknown fault class %q", scope, class))
		}
		if rate < 0 || rate > 100 {
			issues = append(issues, fmt.Errorf("%s has fault rate %d for %q outside 0..100", scope, rate, class))
		}
	}
	return issues
}

func validateTimeout(scope string, value string) []error {
	if value == "" {
		return nil
	}
	if _, err := time.ParseDuration(value); err != nil {
		return []error{fmt.Errorf("%s has invalid event timeout: %w", scope, err)}
	}
	return nil
}

// Members returns the effective member count; unset counts mean one member.
func (g *Group) Members() int {
	if g.Count < 1 {
		return 1
	}
	return g.Count
}

// MemberName renders the display name of the member at the given zero-based
// index. Templates use a one-based %d verb; template-less multi-member groups
// get a numeric suffix.
func (g *Group) MemberName(index int) string {
	name := g.Name
	if name == "" {
		name = defaultGroupName(g.Type)
	}
	if strings.Contains(name, "%d") {
		return fmt.Sprintf(name, index+1)
	}
	if g.Members() == 1 {
		return name
	}
	return fmt.Sprintf("%s-%d", name, index+1)
}

func defaultGroupName(typeName string) string {
	if idx := strings.LastIndex(typeName, "/"); idx != -1 {
		typeName = typeName[idx+1:]
	}
	return strings.ToLower(typeName)
}

// Clone creates a deep copy of the scenario.
func (s *Scenario) Clone() *Scenario {
	if s == nil {
		return nil
	}
	clone := &Scenario{
		Name:         s.Name,
		Description:  s.Description,
		Transport:    s.Transport,
		EventTimeout: s.EventTimeout,
	}
	if s.Source != nil {
		source := *s.Source
		clone.Source = &source
	}
	if s.Faults != nil {
		clone.Faults = make(map[string]int, len(s.Faults))
		for class, rate := range s.Faults {
			clone.Faults[class] = rate
		}
	}
	for _, group := range s.Groups {
		clone.Groups = append(clone.Groups, group.Clone())
	}
	return clone
}

// Clone creates a deep copy of the group.
func (g *Group) Clone() *Group {
	if g == nil {
		return nil
	}
	clone := &Group{
		Type:         g.Type,
		Count:        g.Count,
		Name:         g.Name,
		Peers:        g.Peers,
		EventTimeout: g.EventTimeout,
	}
	if g.Setup != nil {
		clone.Setup = make([]interface{}, len(g.Setup))
		copy(clone.Setup, g.Setup)
	}
	if g.Vars != nil {
		clone.Vars = make(state.Parameters, len(g.Vars))
		copy(clone.Vars, g.Vars)
	}
	if g.Faults != nil {
		clone.Faults = make(map[string]int, len(g.Faults))
		for class, rate := range g.Faults {
			clone.Faults[class] = rate
		}
	}
	return clone
}
