// Package criteria matches records against listing parameters.
package criteria

import (
	"github.com/saquib-ali-khan/distalgo/service/dao"
)

// Filter reports whether a record with the given state and behavior type
// passes all supplied parameters. Recognized parameter names are State and
// Type, with string or []string values; unrecognized parameters never
// filter.
func Filter(state, behaviorType string, parameters []*dao.Parameter) bool {
	for _, parameter := range parameters {
		switch parameter.Name {
		case "State":
			if !matches(state, parameter.Value) {
				return false
			}
		case "Type":
			if !matches(behaviorType, parameter.Value) {
				return false
			}
		}
	}
	return true
}

func matches(value string, expected interface{}) bool {
	switch actual := expected.(type) {
	case string:
		return value == actual
	case []string:
		for _, candidate := range actual {
			if value == candidate {
				return true
			}
		}
		return false
	}
	return true
}
