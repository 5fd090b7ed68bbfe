package extension

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/saquib-ali-khan/distalgo/runtime/process"
	"github.com/viant/x"
)

// ErrUnknownBehavior indicates a behavior type name nothing was registered
// under.
var ErrUnknownBehavior = errors.New("unknown behavior type")

// Factory creates a fresh behavior instance for one spawned process.
type Factory func() process.Behavior

// Behaviors resolves behavior type names to fresh instances. Behaviors are
// registered either as explicit factories or as types instantiated
// reflectively.
type Behaviors struct {
	mu        sync.RWMutex
	factories map[string]Factory
	types     *Types
}

// NewBehaviors creates a behavior registry backed by the supplied type
// registry.
func NewBehaviors(types *Types) *Behaviors {
	if types == nil {
		types = NewTypes()
	}
	return &Behaviors{
		factories: map[string]Factory{},
		types:     types,
	}
}

// Register binds a behavior type name to a factory.
func (b *Behaviors) Register(name string, factory Factory) error {
	if name == "" {
		return fmt.Errorf("behavior name was empty")
	}
	if factory == nil {
		return fmt.Errorf("behavior %v factory was nil", name)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.factories[name]; ok {
		return fmt.Errorf("behavior %v already registered", name)
	}
	b.factories[name] = factory
	return nil
}

// RegisterType registers a behavior by its type; fresh instances are created
// reflectively per spawn. The type has to implement process.Behavior on its
// pointer receiver.
func (b *Behaviors) RegisterType(dataType *x.Type) error {
	if dataType == nil {
		return fmt.Errorf("behavior type was nil")
	}
	rType := dataType.Type
	if rType.Kind() == reflect.Ptr {
		rType = rType.Elem()
	}
	if _, ok := reflect.New(rType).Interface().(process.Behavior); !ok {
		return fmt.Errorf("type %v does not implement a process behavior", dataType.Name)
	}
	b.types.Register(dataType)
	return b.Register(dataType.Name, func() process.Behavior {
		return reflect.New(rType).Interface().(process.Behavior)
	})
}

// New returns a fresh instance of the named behavior.
func (b *Behaviors) New(typeName string) (process.Behavior, error) {
	b.mu.RLock()
	factory, ok := b.factories[typeName]
	b.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrUnknownBehavior, typeName)
	}
	return factory(), nil
}

// Names lists the registered behavior type names.
func (b *Behaviors) Names() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	ret := make([]string, 0, len(b.factories))
	for name := range b.factories {
		ret = append(ret, name)
	}
	sort.Strings(ret)
	return ret
}

// Types returns the backing type registry.
func (b *Behaviors) Types() *Types {
	return b.types
}

var _ process.BehaviorRegistry = &Behaviors{}
