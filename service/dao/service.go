// Package dao defines the generic persistence contract shared by the
// runtime's record stores: keyed access plus parameterized listing.
package dao

import (
	"context"
	"errors"
)

// Sentinel errors shared by store implementations so callers can test for
// failure modes with errors.Is.
var (
	ErrNilEntity = errors.New("dao: nil entity")
	ErrInvalidID = errors.New("dao: invalid id")
)

type Service[K comparable, T any] interface {
	Save(ctx context.Context, t *T) error

	Load(ctx context.Context, id K) (*T, error)

	Delete(ctx context.Context, id K) error

	List(ctx context.Context, parameters ...*Parameter) ([]*T, error)
}

// Parameter narrows List results by field name. A single value matches
// exactly, several values match any of them.
type Parameter struct {
	Name  string
	Value interface{}
}

// NewParameter builds a listing filter from one or more accepted values.
func NewParameter(name string, values ...string) *Parameter {
	parameter := &Parameter{Name: name}
	if len(values) == 1 {
		parameter.Value = values[0]
	} else {
		parameter.Value = values
	}
	return parameter
}
