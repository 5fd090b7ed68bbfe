package pattern

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type mapView map[string]interface{}

func (v mapView) Lookup(name string) (interface{}, bool) {
	value, ok := v[name]
	return value, ok
}

func TestElement_Match(t *testing.T) {
	testCases := []struct {
		description string
		element     Element
		payload     interface{}
		view        StateView
		expectMatch bool
		expectBound Bindings
	}{
		{
			description: "constant equality",
			element:     Const("ping"),
			payload:     "ping",
			expectMatch: true,
			expectBound: Bindings{},
		},
		{
			description: "constant mismatch",
			element:     Const("ping"),
			payload:     "pong",
			expectMatch: false,
		},
		{
			description: "numeric constants compare across kinds",
			element:     Const(7),
			payload:     float64(7),
			expectMatch: true,
			expectBound: Bindings{},
		},
		{
			description: "wildcard matches anything",
			element:     Any(),
			payload:     map[string]interface{}{"k": 1},
			expectMatch: true,
			expectBound: Bindings{},
		},
		{
			description: "free variable binds value",
			element:     Bind("x"),
			payload:     42,
			expectMatch: true,
			expectBound: Bindings{"x": 42},
		},
		{
			description: "tuple with mixed elements",
			element:     Tuple(Const("request"), Bind("ts"), Bind("origin")),
			payload:     []interface{}{"request", uint64(9), "p1"},
			expectMatch: true,
			expectBound: Bindings{"ts": uint64(9), "origin": "p1"},
		},
		{
			description: "tuple arity mismatch",
			element:     Tuple(Const("request"), Bind("ts")),
			payload:     []interface{}{"request", uint64(9), "extra"},
			expectMatch: false,
		},
		{
			description: "non tuple payload against tuple element",
			element:     Tuple(Const("request")),
			payload:     "request",
			expectMatch: false,
		},
		{
			description: "repeated variable must capture equal values",
			element:     Tuple(Bind("x"), Bind("x")),
			payload:     []interface{}{1, 2},
			expectMatch: false,
		},
		{
			description: "repeated variable with equal values",
			element:     Tuple(Bind("x"), Bind("x")),
			payload:     []interface{}{3, 3},
			expectMatch: true,
			expectBound: Bindings{"x": 3},
		},
		{
			description: "reference resolved from process state",
			element:     Tuple(Const("token"), Ref("self")),
			payload:     []interface{}{"token", "p9"},
			view:        mapView{"self": "p9"},
			expectMatch: true,
			expectBound: Bindings{},
		},
		{
			description: "reference mismatch against process state",
			element:     Tuple(Const("token"), Ref("self")),
			payload:     []interface{}{"token", "p1"},
			view:        mapView{"self": "p9"},
			expectMatch: false,
		},
		{
			description: "unresolvable reference never matches",
			element:     Ref("ghost"),
			payload:     "anything",
			expectMatch: false,
		},
		{
			description: "reference prefers in-pattern binding",
			element:     Tuple(Bind("v"), Ref("v")),
			payload:     []interface{}{5, 5},
			view:        mapView{"v": 99},
			expectMatch: true,
			expectBound: Bindings{"v": 5},
		},
		{
			description: "nested tuples",
			element:     Tuple(Const("vote"), Tuple(Bind("round"), Any())),
			payload:     []interface{}{"vote", []interface{}{2, "payload"}},
			expectMatch: true,
			expectBound: Bindings{"round": 2},
		},
		{
			description: "typed slice payload",
			element:     Tuple(Const("a"), Const("b")),
			payload:     []string{"a", "b"},
			expectMatch: true,
			expectBound: Bindings{},
		},
	}

	for _, testCase := range testCases {
		s := &scope{bindings: Bindings{}, view: testCase.view}
		actual := testCase.element.match(testCase.payload, s)
		assert.Equal(t, testCase.expectMatch, actual, testCase.description)
		if testCase.expectMatch && testCase.expectBound != nil {
			assert.Equal(t, testCase.expectBound, s.bindings, testCase.description)
		}
	}
}

func TestBindings_Clone(t *testing.T) {
	original := Bindings{"a": 1, "b": "two"}
	cloned := original.Clone()
	assert.Equal(t, original, cloned)
	cloned["a"] = 99
	assert.Equal(t, 1, original["a"], "clone mutation must not leak back")

	var empty Bindings
	assert.Nil(t, empty.Clone())
}
