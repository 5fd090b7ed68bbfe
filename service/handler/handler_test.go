package handler

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandler_Admits(t *testing.T) {
	testCases := []struct {
		description string
		options     []Option
		label       string
		expect      bool
	}{
		{
			description: "no filters admit every label",
			label:       "anything",
			expect:      true,
		},
		{
			description: "inclusion filter admits listed label",
			options:     []Option{WithLabels("ack", "release")},
			label:       "release",
			expect:      true,
		},
		{
			description: "inclusion filter blocks unlisted label",
			options:     []Option{WithLabels("ack")},
			label:       "request",
			expect:      false,
		},
		{
			description: "exclusion filter blocks listed label",
			options:     []Option{WithoutLabels("request")},
			label:       "request",
			expect:      false,
		},
		{
			description: "exclusion filter admits unlisted label",
			options:     []Option{WithoutLabels("request")},
			label:       "ack",
			expect:      true,
		},
		{
			description: "empty inclusion admits nothing",
			options:     []Option{WithLabels()},
			label:       "ack",
			expect:      false,
		},
	}

	noop := func(ctx context.Context, bindings map[string]interface{}) error { return nil }
	for _, testCase := range testCases {
		h, err := New("h", noop, testCase.options...)
		require.NoError(t, err, testCase.description)
		assert.Equal(t, testCase.expect, h.Admits(testCase.label), testCase.description)
	}
}

func TestHandler_InvokeUntyped(t *testing.T) {
	var seen map[string]interface{}
	h, err := New("collect", func(ctx context.Context, bindings map[string]interface{}) error {
		seen = bindings
		return nil
	})
	require.NoError(t, err)
	err = h.Invoke(context.Background(), map[string]interface{}{"ts": 7, "source": "p1"})
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"ts": 7, "source": "p1"}, seen)
}

func TestHandler_InvokeTyped(t *testing.T) {
	type request struct {
		Timestamp int    `json:"ts"`
		Source    string `json:"source"`
	}
	var seen *request
	h, err := New("onRequest", func(ctx context.Context, input *request) error {
		seen = input
		return nil
	})
	require.NoError(t, err)

	err = h.Invoke(context.Background(), map[string]interface{}{"ts": float64(7), "source": "p1"})
	require.NoError(t, err)
	require.NotNil(t, seen)
	assert.Equal(t, 7, seen.Timestamp)
	assert.Equal(t, "p1", seen.Source)
}

func TestHandler_InvokeMissingBinding(t *testing.T) {
	type request struct {
		Timestamp int `json:"ts"`
	}
	h, err := New("onRequest", func(ctx context.Context, input *request) error {
		return nil
	})
	require.NoError(t, err)

	err = h.Invoke(context.Background(), map[string]interface{}{"source": "p1"})
	assert.ErrorIs(t, err, ErrBindings)
}

func TestHandler_InvokeError(t *testing.T) {
	h, err := New("failing", func(ctx context.Context, bindings map[string]interface{}) error {
		return fmt.Errorf("boom")
	})
	require.NoError(t, err)
	assert.EqualError(t, h.Invoke(context.Background(), nil), "boom")
}

func TestNew_Invalid(t *testing.T) {
	testCases := []struct {
		description string
		name        string
		fn          interface{}
	}{
		{description: "empty name", name: "", fn: func(ctx context.Context, bindings map[string]interface{}) error { return nil }},
		{description: "nil function", name: "h", fn: nil},
		{description: "not a function", name: "h", fn: 42},
		{description: "missing context", name: "h", fn: func(input *struct{}) error { return nil }},
		{description: "non pointer input", name: "h", fn: func(ctx context.Context, input struct{}) error { return nil }},
		{description: "missing error result", name: "h", fn: func(ctx context.Context, input *struct{}) {}},
	}
	for _, testCase := range testCases {
		_, err := New(testCase.name, testCase.fn)
		assert.Error(t, err, testCase.description)
	}
}
