// Package handler implements the callable units pattern rules fire. A
// handler couples a function with the label filters that decide where its
// queued invocations may run and with the conversion of captured bindings
// into the function's typed input.
package handler

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"github.com/viant/structology/conv"
)

// ErrBindings indicates the captured bindings cannot satisfy the handler's
// declared input. Jobs failing this way are dropped, not retried.
var ErrBindings = errors.New("unsatisfiable bindings")

// Func is the untyped handler form: it receives the captured bindings as is.
type Func func(ctx context.Context, bindings map[string]interface{}) error

var (
	ctxType = reflect.TypeOf((*context.Context)(nil)).Elem()
	errType = reflect.TypeOf((*error)(nil)).Elem()
)

var converter = newConverter()

func newConverter() *conv.Converter {
	options := conv.DefaultOptions()
	options.ClonePointerData = true
	options.IgnoreUnmapped = true
	options.AccessUnexported = true
	return conv.NewConverter(options)
}

// Handler is one callable attached to a pattern rule. Matching a rule queues
// a job per handler; the job runs at the first subsequent checkpoint whose
// label the handler admits.
type Handler struct {
	name      string
	labels    map[string]bool
	notLabels map[string]bool

	fn        Func
	typed     reflect.Value
	inputType reflect.Type
}

// Option customizes a handler.
type Option func(*Handler)

// WithLabels restricts execution to the named checkpoints.
func WithLabels(labels ...string) Option {
	return func(h *Handler) {
		h.labels = stringSet(labels)
	}
}

// WithoutLabels blocks execution at the named checkpoints.
func WithoutLabels(labels ...string) Option {
	return func(h *Handler) {
		h.notLabels = stringSet(labels)
	}
}

// New creates a handler from fn. fn is either the untyped Func form or a
// typed form func(ctx context.Context, input *T) error where T is a struct
// populated from the captured bindings by field name.
func New(name string, fn interface{}, options ...Option) (*Handler, error) {
	if name == "" {
		return nil, fmt.Errorf("handler name was empty")
	}
	if fn == nil {
		return nil, fmt.Errorf("handler %v function was nil", name)
	}
	h := &Handler{name: name}
	switch actual := fn.(type) {
	case Func:
		h.fn = actual
	case func(ctx context.Context, bindings map[string]interface{}) error:
		h.fn = actual
	default:
		if err := h.initTyped(fn); err != nil {
			return nil, fmt.Errorf("handler %v: %w", name, err)
		}
	}
	for _, option := range options {
		option(h)
	}
	return h, nil
}

// MustNew is New for static registrations; it panics on an invalid handler.
func MustNew(name string, fn interface{}, options ...Option) *Handler {
	h, err := New(name, fn, options...)
	if err != nil {
		panic(err)
	}
	return h
}

func (h *Handler) initTyped(fn interface{}) error {
	fnType := reflect.TypeOf(fn)
	if fnType.Kind() != reflect.Func {
		return fmt.Errorf("unsupported handler type: %T", fn)
	}
	if fnType.NumIn() != 2 || fnType.NumOut() != 1 {
		return fmt.Errorf("invalid signature %v, expected func(ctx, *T) error", fnType)
	}
	if !fnType.In(0).Implements(ctxType) && fnType.In(0) != ctxType {
		return fmt.Errorf("invalid signature %v, first argument has to be context.Context", fnType)
	}
	if !fnType.Out(0).Implements(errType) {
		return fmt.Errorf("invalid signature %v, return value has to be error", fnType)
	}
	input := fnType.In(1)
	if input.Kind() != reflect.Ptr || input.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("invalid signature %v, second argument has to be a struct pointer", fnType)
	}
	h.typed = reflect.ValueOf(fn)
	h.inputType = input.Elem()
	return nil
}

// Name returns the handler name used in logs and diagnostics.
func (h *Handler) Name() string {
	return h.name
}

// Admits reports whether a job for this handler may run at the named
// checkpoint.
func (h *Handler) Admits(label string) bool {
	if h.labels != nil && !h.labels[label] {
		return false
	}
	if h.notLabels != nil && h.notLabels[label] {
		return false
	}
	return true
}

// Invoke calls the handler with the captured bindings. For typed handlers
// the bindings are converted into a fresh input instance first; a binding
// that cannot satisfy the declared input wraps ErrBindings.
func (h *Handler) Invoke(ctx context.Context, bindings map[string]interface{}) error {
	if h.fn != nil {
		return h.fn(ctx, bindings)
	}
	input, err := h.buildInput(bindings)
	if err != nil {
		return err
	}
	results := h.typed.Call([]reflect.Value{reflect.ValueOf(ctx), input})
	if errValue := results[0].Interface(); errValue != nil {
		return errValue.(error)
	}
	return nil
}

func (h *Handler) buildInput(bindings map[string]interface{}) (reflect.Value, error) {
	instance := reflect.New(h.inputType)
	declared := map[string]interface{}{}
	for i := 0; i < h.inputType.NumField(); i++ {
		field := h.inputType.Field(i)
		if !field.IsExported() {
			continue
		}
		name, skip := bindingName(field)
		if skip {
			continue
		}
		value, ok := lookupBinding(bindings, name)
		if !ok {
			return reflect.Value{}, fmt.Errorf("%w: no binding for %v.%v", ErrBindings, h.inputType.Name(), name)
		}
		declared[field.Name] = value
	}
	if err := converter.Convert(declared, instance.Interface()); err != nil {
		return reflect.Value{}, fmt.Errorf("%w: %v", ErrBindings, err)
	}
	return instance, nil
}

// bindingName derives the binding key a struct field consumes: the json tag
// name when present, the field name with a lowered first rune otherwise.
func bindingName(field reflect.StructField) (name string, skip bool) {
	if tag, ok := field.Tag.Lookup("json"); ok {
		tagName := strings.Split(tag, ",")[0]
		if tagName == "-" {
			return "", true
		}
		if tagName != "" {
			return tagName, false
		}
	}
	runes := []rune(field.Name)
	runes[0] = unicode.ToLower(runes[0])
	return string(runes), false
}

func lookupBinding(bindings map[string]interface{}, name string) (interface{}, bool) {
	if value, ok := bindings[name]; ok {
		return value, true
	}
	runes := []rune(name)
	runes[0] = unicode.ToUpper(runes[0])
	value, ok := bindings[string(runes)]
	return value, ok
}

func stringSet(items []string) map[string]bool {
	result := make(map[string]bool, len(items))
	for _, item := range items {
		result[item] = true
	}
	return result
}
