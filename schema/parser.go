package schema

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"confit/converter"
	"confit/ordered"
)

// Pair is one (key, rule specification) entry of a specification. The
// Spec slice holds 3 or 4 elements: converter, example, doc, and an
// optional default. The converter element is a name (string), a choice
// sequence ([]any) or a choice mapping (*ordered.Map or
// map[string]any).
type Pair struct {
	Key  string
	Spec []any
}

// Parse loads a specification from YAML text. The document must be a
// mapping or a sequence of single-entry mappings (a YAML omap); either
// way the declared order of keys is preserved. Caller-supplied
// converters override built-ins of the same name.
func Parse(content []byte, converters converter.Registry) (*Schema, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(content, &doc); err != nil {
		return nil, schemaErrorf("invalid YAML: %v", err)
	}
	if doc.Kind == 0 {
		// Empty document.
		return FromPairs(nil, converters)
	}

	root := &doc
	for root.Kind == yaml.DocumentNode {
		if len(root.Content) == 0 {
			return FromPairs(nil, converters)
		}
		root = root.Content[0]
	}

	pairs, err := specPairs(root)
	if err != nil {
		return nil, err
	}
	return FromPairs(pairs, converters)
}

// LoadFile reads and parses a specification from the named file.
func LoadFile(path string, converters converter.Registry) (*Schema, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read specification: %w", err)
	}
	return Parse(content, converters)
}

// FromPairs builds a Schema from already-parsed (key, rule) pairs with
// unique keys, preserving their order.
func FromPairs(pairs []Pair, converters converter.Registry) (*Schema, error) {
	merged := converter.Builtins().Merge(converters)

	s := &Schema{index: make(map[string]int, len(pairs))}
	for _, pair := range pairs {
		if pair.Key == "" {
			return nil, schemaErrorf("rule with empty name")
		}
		if s.Has(pair.Key) {
			return nil, schemaErrorf("duplicate key %q", pair.Key)
		}
		rule, err := resolveRule(pair, merged)
		if err != nil {
			return nil, err
		}
		s.index[pair.Key] = len(s.rules)
		s.rules = append(s.rules, rule)
	}
	return s, nil
}

// FromMap builds a Schema from a plain map. Go maps carry no order, so
// rules are sorted by key; use FromPairs or Parse when declared order
// matters.
func FromMap(spec map[string][]any, converters converter.Registry) (*Schema, error) {
	keys := make([]string, 0, len(spec))
	for k := range spec {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]Pair, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, Pair{Key: k, Spec: spec[k]})
	}
	return FromPairs(pairs, converters)
}

// resolveRule turns one specification entry into a Rule, resolving its
// converter against the merged registry.
func resolveRule(pair Pair, merged converter.Registry) (Rule, error) {
	if len(pair.Spec) < 3 || len(pair.Spec) > 4 {
		return Rule{}, schemaErrorf("rule %q must have 3 or 4 elements, got %d", pair.Key, len(pair.Spec))
	}

	rule := Rule{Name: pair.Key, Example: pair.Spec[1]}
	if rule.Example == nil {
		return Rule{}, schemaErrorf("rule %q has no example value", pair.Key)
	}

	switch doc := pair.Spec[2].(type) {
	case nil:
	case string:
		rule.Doc = doc
	default:
		return Rule{}, schemaErrorf("rule %q: doc must be a string or null", pair.Key)
	}

	if len(pair.Spec) == 4 {
		rule.Default = pair.Spec[3]
		rule.HasDefault = true
	}

	switch spec := pair.Spec[0].(type) {
	case string:
		name := spec
		if inner, ok := listOptionalName(name); ok {
			rule.ListOptional = true
			name = inner
		}
		fn, found := merged.Lookup(name)
		if !found {
			return Rule{}, schemaErrorf("rule %q: no such converter: %q", pair.Key, name)
		}
		rule.Converter = namedFunc{name: name, fn: fn}
	case []any:
		if len(spec) == 0 {
			return Rule{}, schemaErrorf("rule %q: empty choice set", pair.Key)
		}
		rule.Converter = choiceSet{values: spec}
	case *ordered.Map:
		if spec.Len() == 0 {
			return Rule{}, schemaErrorf("rule %q: empty choice map", pair.Key)
		}
		rule.Converter = choiceMap{entries: spec}
	case map[string]any:
		entries := ordered.New()
		keys := make([]string, 0, len(spec))
		for k := range spec {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			entries.Set(k, spec[k])
		}
		if entries.Len() == 0 {
			return Rule{}, schemaErrorf("rule %q: empty choice map", pair.Key)
		}
		rule.Converter = choiceMap{entries: entries}
	default:
		return Rule{}, schemaErrorf("rule %q: converter must be a name, sequence or mapping", pair.Key)
	}

	return rule, nil
}

// listOptionalName reports whether name is wrapped in a single
// matching pair of angle brackets, and returns the inner name.
func listOptionalName(name string) (string, bool) {
	if len(name) < 3 || !strings.HasPrefix(name, "<") || !strings.HasSuffix(name, ">") {
		return "", false
	}
	inner := name[1 : len(name)-1]
	if strings.ContainsAny(inner, "<>") {
		return "", false
	}
	return inner, true
}

// specPairs extracts ordered (key, rule) pairs from the root node of a
// specification document.
func specPairs(root *yaml.Node) ([]Pair, error) {
	switch root.Kind {
	case yaml.MappingNode:
		var pairs []Pair
		for i := 0; i+1 < len(root.Content); i += 2 {
			pair, err := specPair(root.Content[i], root.Content[i+1])
			if err != nil {
				return nil, err
			}
			pairs = append(pairs, pair)
		}
		return pairs, nil
	case yaml.SequenceNode:
		// A sequence of single-entry mappings, tagged !!omap or not.
		var pairs []Pair
		for _, item := range root.Content {
			if item.Kind != yaml.MappingNode || len(item.Content) != 2 {
				return nil, schemaErrorf("line %d: specification entry is not a single-entry mapping", item.Line)
			}
			pair, err := specPair(item.Content[0], item.Content[1])
			if err != nil {
				return nil, err
			}
			pairs = append(pairs, pair)
		}
		return pairs, nil
	default:
		return nil, schemaErrorf("specification is not a mapping or sequence of mappings")
	}
}

func specPair(keyNode, valueNode *yaml.Node) (Pair, error) {
	if keyNode.Kind != yaml.ScalarNode {
		return Pair{}, schemaErrorf("line %d: rule name is not a scalar", keyNode.Line)
	}
	if valueNode.Kind != yaml.SequenceNode {
		return Pair{}, schemaErrorf("rule %q is not a sequence", keyNode.Value)
	}
	spec := make([]any, 0, len(valueNode.Content))
	for _, item := range valueNode.Content {
		value, err := ordered.DecodeNode(item)
		if err != nil {
			return Pair{}, schemaErrorf("rule %q: %v", keyNode.Value, err)
		}
		spec = append(spec, value)
	}
	return Pair{Key: keyNode.Value, Spec: spec}, nil
}
