package pattern

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	testCases := []struct {
		description string
		input       string
		payload     interface{}
		view        StateView
		expectMatch bool
		expectBound Bindings
	}{
		{
			description: "tagged tuple with free variables",
			input:       `("request", ts, origin)`,
			payload:     []interface{}{"request", 4, "p2"},
			expectMatch: true,
			expectBound: Bindings{"ts": 4, "origin": "p2"},
		},
		{
			description: "single quoted tag",
			input:       `('release', _)`,
			payload:     []interface{}{"release", "whatever"},
			expectMatch: true,
			expectBound: Bindings{},
		},
		{
			description: "bound reference against state",
			input:       `("ack", =self)`,
			payload:     []interface{}{"ack", "p7"},
			view:        mapView{"self": "p7"},
			expectMatch: true,
			expectBound: Bindings{},
		},
		{
			description: "numeric literals",
			input:       `(1, -2, 3.5)`,
			payload:     []interface{}{1, -2, 3.5},
			expectMatch: true,
			expectBound: Bindings{},
		},
		{
			description: "boolean and nil literals",
			input:       `(true, nil)`,
			payload:     []interface{}{true, nil},
			expectMatch: true,
			expectBound: Bindings{},
		},
		{
			description: "nested tuple",
			input:       `("vote", (round, _))`,
			payload:     []interface{}{"vote", []interface{}{3, "x"}},
			expectMatch: true,
			expectBound: Bindings{"round": 3},
		},
		{
			description: "empty tuple",
			input:       `()`,
			payload:     []interface{}{},
			expectMatch: true,
			expectBound: Bindings{},
		},
		{
			description: "trailing comma",
			input:       `("a", b,)`,
			payload:     []interface{}{"a", 1},
			expectMatch: true,
			expectBound: Bindings{"b": 1},
		},
		{
			description: "bare literal pattern",
			input:       `"ping"`,
			payload:     "ping",
			expectMatch: true,
			expectBound: Bindings{},
		},
		{
			description: "tag mismatch",
			input:       `("request", _)`,
			payload:     []interface{}{"release", "x"},
			expectMatch: false,
		},
	}

	for _, testCase := range testCases {
		element, err := Parse(testCase.input)
		require.NoError(t, err, testCase.description)

		s := &scope{bindings: Bindings{}, view: testCase.view}
		actual := element.match(testCase.payload, s)
		assert.Equal(t, testCase.expectMatch, actual, testCase.description)
		if testCase.expectMatch {
			assert.Equal(t, testCase.expectBound, s.bindings, testCase.description)
		}
	}
}

func TestParse_Errors(t *testing.T) {
	testCases := []struct {
		description string
		input       string
	}{
		{description: "unbalanced tuple", input: `("a", b`},
		{description: "missing reference name", input: `("a", =)`},
		{description: "trailing garbage", input: `("a") extra`},
		{description: "unterminated string", input: `("a`},
		{description: "missing separator", input: `("a" "b")`},
	}

	for _, testCase := range testCases {
		_, err := Parse(testCase.input)
		assert.Error(t, err, testCase.description)
	}
}
