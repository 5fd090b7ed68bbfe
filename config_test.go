package distalgo

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/saquib-ali-khan/distalgo/service/fault"
)

func TestConfig_Validate(t *testing.T) {
	testCases := []struct {
		description string
		config      *Config
		expectError bool
	}{
		{description: "defaults", config: DefaultConfig()},
		{description: "nats transport", config: &Config{Transport: TransportConfig{Vendor: VendorNATS}}},
		{description: "unknown transport", config: &Config{Transport: TransportConfig{Vendor: "carrier-pigeon"}}, expectError: true},
		{description: "unknown events vendor", config: &Config{Events: EventsConfig{Vendor: "nats"}}, expectError: true},
		{description: "fault rates", config: &Config{Faults: map[string]int{"send": 10, "crash": 5}}},
		{description: "unknown fault class", config: &Config{Faults: map[string]int{"flip": 10}}, expectError: true},
		{description: "fault rate out of range", config: &Config{Faults: map[string]int{"send": 101}}, expectError: true},
		{description: "timeouts", config: &Config{SpawnTimeout: "5s", EventTimeout: "250ms"}},
		{description: "bad timeout", config: &Config{EventTimeout: "soon"}, expectError: true},
	}
	for _, tc := range testCases {
		err := tc.config.Validate()
		if tc.expectError {
			assert.Error(t, err, tc.description)
			continue
		}
		assert.NoError(t, err, tc.description)
	}
}

func TestConfig_FaultRates(t *testing.T) {
	config := &Config{Faults: map[string]int{"send": 10, "receive": 20}}
	rates := config.FaultRates()
	assert.Equal(t, 10, rates[fault.Send])
	assert.Equal(t, 20, rates[fault.Receive])
	_, ok := rates[fault.Crash]
	assert.False(t, ok)
}
