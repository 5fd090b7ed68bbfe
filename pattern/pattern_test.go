package pattern

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvent_Tuple(t *testing.T) {
	event := &Event{
		Kind:      KindReceived,
		Payload:   []interface{}{"request", 4},
		Timestamp: 9,
		Source:    "p1",
	}
	assert.Equal(t,
		[]interface{}{"received", []interface{}{"request", 4}, uint64(9), "p1", ""},
		event.Tuple())
}

func TestMessagePattern_Match(t *testing.T) {
	element, err := Parse(`("request", ts)`)
	require.NoError(t, err)

	p := NewMessage(element, WithSource(Bind("origin")))

	event := &Event{
		Kind:      KindReceived,
		Payload:   []interface{}{"request", 11},
		Timestamp: 11,
		Source:    "p3",
	}
	bindings, ok := p.Match(event, nil)
	require.True(t, ok)
	assert.Equal(t, Bindings{"ts": 11, "origin": "p3"}, bindings)

	miss := &Event{Kind: KindReceived, Payload: []interface{}{"release", 11}, Source: "p3"}
	_, ok = p.Match(miss, nil)
	assert.False(t, ok)
}

func TestMessagePattern_FreshBindingsPerEvent(t *testing.T) {
	p := NewMessage(Tuple(Const("seen"), Bind("v")))

	first := &Event{Kind: KindReceived, Payload: []interface{}{"seen", 1}}
	second := &Event{Kind: KindReceived, Payload: []interface{}{"seen", 2}}

	bindings1, ok := p.Match(first, nil)
	require.True(t, ok)
	bindings2, ok := p.Match(second, nil)
	require.True(t, ok)

	assert.Equal(t, 1, bindings1["v"])
	assert.Equal(t, 2, bindings2["v"], "a variable bound by an earlier event must rebind freely")
}

func TestMessagePattern_SourceAgainstState(t *testing.T) {
	p := NewMessage(Tuple(Const("grant")), WithSource(Ref("coordinator")))
	view := mapView{"coordinator": "p0"}

	granted := &Event{Kind: KindReceived, Payload: []interface{}{"grant"}, Source: "p0"}
	_, ok := p.Match(granted, view)
	assert.True(t, ok)

	impostor := &Event{Kind: KindReceived, Payload: []interface{}{"grant"}, Source: "p4"}
	_, ok = p.Match(impostor, view)
	assert.False(t, ok)
}

func TestFunc_Match(t *testing.T) {
	p := Func(func(event *Event, view StateView) (Bindings, bool) {
		if event.Timestamp < 5 {
			return nil, false
		}
		return Bindings{"ts": event.Timestamp}, true
	})

	_, ok := p.Match(&Event{Timestamp: 3}, nil)
	assert.False(t, ok)

	bindings, ok := p.Match(&Event{Timestamp: 8}, nil)
	require.True(t, ok)
	assert.Equal(t, uint64(8), bindings["ts"])
}
