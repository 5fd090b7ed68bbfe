package process

import (
	"context"
	"reflect"
)

// Context decorates a parent context with the owning process, letting
// handlers reach their process without threading it explicitly.
type Context struct {
	proc *Process
	context.Context
}

// ProcessKey is the context key under which the owning process travels.
var ProcessKey = KeyOf[*Process]()

func (c *Context) Value(key any) any {
	if key == ProcessKey {
		return c.proc
	}
	return c.Context.Value(key)
}

// NewContext returns ctx decorated with the supplied process.
func NewContext(ctx context.Context, proc *Process) *Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Context{Context: ctx, proc: proc}
}

// FromContext returns the process a handler runs for, or nil.
func FromContext(ctx context.Context) *Process {
	return ContextValue[*Process](ctx)
}

// ContextValue returns the value of the provided type from the context.
func ContextValue[T any](ctx context.Context) T {
	key := KeyOf[T]()
	if value := ctx.Value(key); value != nil {
		return value.(T)
	}
	var t T
	return t
}

// KeyOf returns the reflect.Type of the provided type.
func KeyOf[T any]() reflect.Type {
	var a T
	return reflect.TypeOf(a)
}
