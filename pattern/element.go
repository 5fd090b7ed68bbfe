package pattern

import (
	"reflect"
)

// Element matches one value inside a tuple pattern, possibly binding
// variables while it does so.
type Element interface {
	match(value interface{}, s *scope) bool
}

// scope carries the bindings accumulated so far plus the process state view
// used to resolve references.
type scope struct {
	bindings Bindings
	view     StateView
}

func (s *scope) bind(name string, value interface{}) bool {
	if existing, ok := s.bindings[name]; ok {
		return equal(existing, value)
	}
	s.bindings[name] = value
	return true
}

func (s *scope) resolve(name string) (interface{}, bool) {
	if value, ok := s.bindings[name]; ok {
		return value, true
	}
	if s.view != nil {
		return s.view.Lookup(name)
	}
	return nil, false
}

type constElement struct {
	value interface{}
}

func (e *constElement) match(value interface{}, s *scope) bool {
	return equal(e.value, value)
}

// Const matches a value equal to v.
func Const(v interface{}) Element {
	return &constElement{value: v}
}

type bindElement struct {
	name string
}

func (e *bindElement) match(value interface{}, s *scope) bool {
	return s.bind(e.name, value)
}

// Bind matches any value and captures it under name. A name repeated within
// one pattern must capture equal values.
func Bind(name string) Element {
	return &bindElement{name: name}
}

type refElement struct {
	name string
}

func (e *refElement) match(value interface{}, s *scope) bool {
	expected, ok := s.resolve(e.name)
	if !ok {
		return false
	}
	return equal(expected, value)
}

// Ref matches a value equal to a name already bound in this match or, failing
// that, to a process field of that name. An unresolvable name never matches.
func Ref(name string) Element {
	return &refElement{name: name}
}

type anyElement struct{}

func (e *anyElement) match(interface{}, *scope) bool { return true }

// Any matches every value.
func Any() Element {
	return &anyElement{}
}

type tupleElement struct {
	elements []Element
}

func (e *tupleElement) match(value interface{}, s *scope) bool {
	items, ok := asSlice(value)
	if !ok || len(items) != len(e.elements) {
		return false
	}
	for i, element := range e.elements {
		if !element.match(items[i], s) {
			return false
		}
	}
	return true
}

// Tuple matches an ordered sequence of the supplied elements.
func Tuple(elements ...Element) Element {
	return &tupleElement{elements: elements}
}

func asSlice(value interface{}) ([]interface{}, bool) {
	if items, ok := value.([]interface{}); ok {
		return items, true
	}
	rv := reflect.ValueOf(value)
	if !rv.IsValid() || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return nil, false
	}
	items := make([]interface{}, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		items[i] = rv.Index(i).Interface()
	}
	return items, true
}

// Equal compares two payload values structurally, normalizing numeric kinds
// so that values surviving a JSON round trip still compare equal to
// literals.
func Equal(a, b interface{}) bool {
	return equal(a, b)
}

func equal(a, b interface{}) bool {
	if reflect.DeepEqual(a, b) {
		return true
	}
	if af, ok := asFloat(a); ok {
		if bf, ok := asFloat(b); ok {
			return af == bf
		}
		return false
	}
	as, aok := asSlice(a)
	bs, bok := asSlice(b)
	if aok && bok {
		if len(as) != len(bs) {
			return false
		}
		for i := range as {
			if !equal(as[i], bs[i]) {
				return false
			}
		}
		return true
	}
	return false
}

func asFloat(value interface{}) (float64, bool) {
	switch actual := value.(type) {
	case int:
		return float64(actual), true
	case int8:
		return float64(actual), true
	case int16:
		return float64(actual), true
	case int32:
		return float64(actual), true
	case int64:
		return float64(actual), true
	case uint:
		return float64(actual), true
	case uint8:
		return float64(actual), true
	case uint16:
		return float64(actual), true
	case uint32:
		return float64(actual), true
	case uint64:
		return float64(actual), true
	case float32:
		return float64(actual), true
	case float64:
		return actual, true
	}
	return 0, false
}
