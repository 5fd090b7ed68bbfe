package fault

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInjector_Fails(t *testing.T) {
	testCases := []struct {
		description string
		rates       map[Class]int
		draw        int
		class       Class
		expect      bool
	}{
		{
			description: "draw below rate fails",
			rates:       map[Class]int{Send: 50},
			draw:        49,
			class:       Send,
			expect:      true,
		},
		{
			description: "draw at rate succeeds",
			rates:       map[Class]int{Send: 50},
			draw:        50,
			class:       Send,
			expect:      false,
		},
		{
			description: "zero rate never fails",
			rates:       map[Class]int{Receive: 0},
			draw:        0,
			class:       Receive,
			expect:      false,
		},
		{
			description: "full rate always fails",
			rates:       map[Class]int{Crash: 100},
			draw:        99,
			class:       Crash,
			expect:      true,
		},
		{
			description: "unknown class never fails",
			rates:       map[Class]int{},
			draw:        0,
			class:       Class("partition"),
			expect:      false,
		},
	}

	for _, testCase := range testCases {
		injector := New(
			WithRates(testCase.rates),
			WithDraw(func() int { return testCase.draw }),
		)
		actual := injector.Fails(testCase.class)
		assert.Equal(t, testCase.expect, actual, testCase.description)
	}
}

func TestInjector_SetRateClamps(t *testing.T) {
	injector := New()
	injector.SetRate(Send, 150)
	rate, ok := injector.Rate(Send)
	assert.True(t, ok)
	assert.Equal(t, 100, rate)

	injector.SetRate(Send, -5)
	rate, _ = injector.Rate(Send)
	assert.Equal(t, 0, rate)
}

func TestInjector_RatesSnapshot(t *testing.T) {
	injector := New(WithRates(map[Class]int{Send: 10, Crash: 20}))
	snapshot := injector.Rates()
	assert.Equal(t, 10, snapshot[Send])
	assert.Equal(t, 20, snapshot[Crash])
	assert.Equal(t, 0, snapshot[Receive])

	snapshot[Send] = 99
	rate, _ := injector.Rate(Send)
	assert.Equal(t, 10, rate, "snapshot mutation must not leak back")
}

func TestInjector_DefaultsNeverFail(t *testing.T) {
	injector := New()
	for i := 0; i < 100; i++ {
		assert.False(t, injector.Fails(Send))
		assert.False(t, injector.Fails(Receive))
		assert.False(t, injector.Fails(Crash))
	}
}
