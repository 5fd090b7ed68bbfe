package scenario

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpandEnv(t *testing.T) {
	t.Setenv("SCN_TRANSPORT", "nats")
	t.Setenv("SCN_URL", "nats://127.0.0.1:4222")

	var testCases = []struct {
		description string
		input       string
		expect      string
	}{
		{
			description: "no placeholders",
			input:       "transport: memory",
			expect:      "transport: memory",
		},
		{
			description: "single placeholder",
			input:       "transport: ${env.SCN_TRANSPORT}",
			expect:      "transport: nats",
		},
		{
			description: "repeated and mixed placeholders",
			input:       "${env.SCN_TRANSPORT} at ${env.SCN_URL} via ${env.SCN_TRANSPORT}",
			expect:      "nats at nats://127.0.0.1:4222 via nats",
		},
		{
			description: "unset key expands to empty",
			input:       "region: ${env.SCN_REGION}!",
			expect:      "region: !",
		},
		{
			description: "empty key expands to empty",
			input:       "odd ${env.} value",
			expect:      "odd  value",
		},
		{
			description: "unterminated placeholder stays literal",
			input:       "keep ${env.SCN_TRANSPORT as is, expand ${env.SCN_TRANSPORT}",
			expect:      "keep ${env.SCN_TRANSPORT as is, expand nats",
		},
		{
			description: "punctuated key stays literal",
			input:       "keep ${env.not-a-key} as is",
			expect:      "keep ${env.not-a-key} as is",
		},
	}

	for _, testCase := range testCases {
		assert.Equal(t, testCase.expect, expandEnv(testCase.input), testCase.description)
	}
}
