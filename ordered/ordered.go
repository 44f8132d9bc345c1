// Package ordered provides an association-list map with unique string
// keys. Insertion order of first appearance is preserved and survives a
// YAML round trip, which plain Go maps cannot guarantee.
package ordered

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Map is a string-keyed mapping that remembers the order in which keys
// were first set. The zero value is not usable; call New.
type Map struct {
	keys   []string
	values map[string]any
}

// New returns an empty Map.
func New() *Map {
	return &Map{values: make(map[string]any)}
}

// Set binds key to value. A new key is appended to the iteration order;
// an existing key keeps its original position.
func (m *Map) Set(key string, value any) {
	if _, exists := m.values[key]; !exists {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

// Get returns the value bound to key and whether the key is present.
func (m *Map) Get(key string) (any, bool) {
	v, ok := m.values[key]
	return v, ok
}

// Has reports whether key is present.
func (m *Map) Has(key string) bool {
	_, ok := m.values[key]
	return ok
}

// Delete removes key if present.
func (m *Map) Delete(key string) {
	if _, ok := m.values[key]; !ok {
		return
	}
	delete(m.values, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the keys in iteration order. The slice is a copy.
func (m *Map) Keys() []string {
	keys := make([]string, len(m.keys))
	copy(keys, m.keys)
	return keys
}

// Len returns the number of entries.
func (m *Map) Len() int {
	return len(m.keys)
}

// UnmarshalYAML decodes a YAML mapping node, preserving document order.
func (m *Map) UnmarshalYAML(node *yaml.Node) error {
	decoded, err := DecodeNode(node)
	if err != nil {
		return err
	}
	om, ok := decoded.(*Map)
	if !ok {
		return fmt.Errorf("cannot decode %s into an ordered map", kindName(node.Kind))
	}
	*m = *om
	return nil
}

// MarshalYAML encodes the map as a YAML mapping node in iteration order.
func (m *Map) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, k := range m.keys {
		keyNode := &yaml.Node{}
		if err := keyNode.Encode(k); err != nil {
			return nil, err
		}
		valueNode := &yaml.Node{}
		if err := valueNode.Encode(m.values[k]); err != nil {
			return nil, err
		}
		node.Content = append(node.Content, keyNode, valueNode)
	}
	return node, nil
}

// DecodeNode converts a YAML node into Go values: mappings become *Map,
// sequences become []any, scalars decode to their resolved type.
// Mapping keys must be scalars; duplicate keys are rejected.
func DecodeNode(node *yaml.Node) (any, error) {
	switch node.Kind {
	case yaml.DocumentNode:
		if len(node.Content) == 0 {
			return nil, nil
		}
		return DecodeNode(node.Content[0])
	case yaml.AliasNode:
		return DecodeNode(node.Alias)
	case yaml.MappingNode:
		m := New()
		for i := 0; i+1 < len(node.Content); i += 2 {
			keyNode := node.Content[i]
			if keyNode.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("line %d: mapping key is not a scalar", keyNode.Line)
			}
			key := keyNode.Value
			if m.Has(key) {
				return nil, fmt.Errorf("line %d: duplicate key %q", keyNode.Line, key)
			}
			value, err := DecodeNode(node.Content[i+1])
			if err != nil {
				return nil, err
			}
			m.Set(key, value)
		}
		return m, nil
	case yaml.SequenceNode:
		seq := make([]any, 0, len(node.Content))
		for _, item := range node.Content {
			value, err := DecodeNode(item)
			if err != nil {
				return nil, err
			}
			seq = append(seq, value)
		}
		return seq, nil
	case yaml.ScalarNode:
		var v any
		if err := node.Decode(&v); err != nil {
			return nil, err
		}
		return v, nil
	default:
		return nil, fmt.Errorf("line %d: unsupported YAML node", node.Line)
	}
}

func kindName(kind yaml.Kind) string {
	switch kind {
	case yaml.DocumentNode:
		return "document"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.MappingNode:
		return "mapping"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	}
	return "unknown"
}
