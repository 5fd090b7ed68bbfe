// Package yml exposes yaml document trees through small traversal helpers
// used by the scenario parser.
package yml

import (
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Node aliases yaml.Node so traversal helpers can hang off the raw tree.
type Node yaml.Node

// Pairs walks a mapping node, invoking the callback once per key/value pair.
func (n *Node) Pairs(callback func(key string, value *Node) error) error {
	for i := 0; i+1 < len(n.Content); i += 2 {
		if err := callback(n.Content[i].Value, (*Node)(n.Content[i+1])); err != nil {
			return err
		}
	}
	return nil
}

// Items walks a sequence node, invoking the callback once per element.
func (n *Node) Items(callback func(index int, item *Node) error) error {
	for i, item := range n.Content {
		if err := callback(i, (*Node)(item)); err != nil {
			return err
		}
	}
	return nil
}

// Interface decodes the subtree into plain Go values: scalars become string,
// int, float64, bool or nil, mappings become map[string]interface{} and
// sequences become []interface{}. Aliases resolve to their anchor values.
func (n *Node) Interface() interface{} {
	switch n.Kind {
	case yaml.ScalarNode:
		return scalar(n.Tag, n.Value)
	case yaml.MappingNode:
		result := make(map[string]interface{}, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			result[n.Content[i].Value] = (*Node)(n.Content[i+1]).Interface()
		}
		return result
	case yaml.SequenceNode:
		result := make([]interface{}, 0, len(n.Content))
		for _, item := range n.Content {
			result = append(result, (*Node)(item).Interface())
		}
		return result
	case yaml.DocumentNode:
		if len(n.Content) > 0 {
			return (*Node)(n.Content[0]).Interface()
		}
	case yaml.AliasNode:
		if n.Alias != nil {
			return (*Node)(n.Alias).Interface()
		}
	}
	return nil
}

// scalar converts a resolved scalar to its Go value. Malformed numbers keep
// their textual form rather than turning into zeros.
func scalar(tag, text string) interface{} {
	switch tag {
	case "!!null":
		return nil
	case "!!bool":
		return strings.EqualFold(text, "true")
	case "!!int":
		if value, err := strconv.Atoi(text); err == nil {
			return value
		}
	case "!!float":
		if value, err := strconv.ParseFloat(text, 64); err == nil {
			return value
		}
	}
	return text
}
