// Package fault implements synthetic fault injection for message sends,
// message receives and forced crashes, driven by a per-class percentage
// table.
package fault

import (
	"math/rand"
	"sync"
)

// Class identifies an operation class subject to fault injection.
type Class string

const (
	// Send faults suppress outbound message transmission.
	Send Class = "send"
	// Receive faults silently discard inbound messages.
	Receive Class = "receive"
	// Crash faults force the process to terminate at a checkpoint.
	Crash Class = "crash"
)

// Injector decides per operation whether it is forced to fail. Rates are
// integer percentages: 0 never fails, 100 always fails. Classes absent from
// the table never fail.
type Injector struct {
	mu    sync.RWMutex
	rates map[Class]int
	draw  func() int
}

// Option customizes an injector.
type Option func(*Injector)

// WithDraw overrides the random draw. The supplied function must return
// values in [0,100); tests use it for deterministic outcomes.
func WithDraw(draw func() int) Option {
	return func(i *Injector) {
		i.draw = draw
	}
}

// WithRates seeds the rate table.
func WithRates(rates map[Class]int) Option {
	return func(i *Injector) {
		for class, rate := range rates {
			i.rates[class] = clamp(rate)
		}
	}
}

// New creates an injector with all known classes at rate 0.
func New(options ...Option) *Injector {
	ret := &Injector{
		rates: map[Class]int{Send: 0, Receive: 0, Crash: 0},
		draw:  func() int { return rand.Intn(100) },
	}
	for _, option := range options {
		option(ret)
	}
	return ret
}

// Fails draws a uniform random integer in [0,100) and reports whether the
// operation of the supplied class is faulty. Unknown classes never fail.
func (i *Injector) Fails(class Class) bool {
	i.mu.RLock()
	rate, ok := i.rates[class]
	i.mu.RUnlock()
	if !ok {
		return false
	}
	return i.draw() < rate
}

// SetRate updates the rate for a class, clamping it to [0,100].
func (i *Injector) SetRate(class Class, rate int) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.rates[class] = clamp(rate)
}

// Rate returns the configured rate for a class.
func (i *Injector) Rate(class Class) (int, bool) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	rate, ok := i.rates[class]
	return rate, ok
}

// Rates returns a snapshot of the rate table.
func (i *Injector) Rates() map[Class]int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	ret := make(map[Class]int, len(i.rates))
	for class, rate := range i.rates {
		ret[class] = rate
	}
	return ret
}

func clamp(rate int) int {
	if rate < 0 {
		return 0
	}
	if rate > 100 {
		return 100
	}
	return rate
}
