// Package source reads raw configuration mappings for validation:
// from a document, from a settings file, or from a command-line
// override string. Parsed mappings preserve document order.
package source

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"confit/ordered"
	"confit/schema"
)

// ErrNotMapping is returned when a configuration document or override
// string does not describe a key/value mapping.
var ErrNotMapping = errors.New("not a mapping")

// ParseConfig parses a raw configuration document. An empty document
// yields an empty mapping.
func ParseConfig(content []byte) (*ordered.Map, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(content, &doc); err != nil {
		return nil, fmt.Errorf("invalid configuration document: %w", err)
	}
	if doc.Kind == 0 {
		// Empty document.
		return ordered.New(), nil
	}

	root := &doc
	for root.Kind == yaml.DocumentNode {
		if len(root.Content) == 0 {
			return ordered.New(), nil
		}
		root = root.Content[0]
	}

	if root.Kind == yaml.ScalarNode && root.Tag == "!!null" {
		return ordered.New(), nil
	}
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("configuration document is %w", ErrNotMapping)
	}

	decoded, err := ordered.DecodeNode(root)
	if err != nil {
		return nil, fmt.Errorf("invalid configuration document: %w", err)
	}
	return decoded.(*ordered.Map), nil
}

// LoadFile reads and parses the named settings file.
func LoadFile(path string) (*ordered.Map, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("settings file %q does not exist", path)
		}
		return nil, fmt.Errorf("problem reading settings file %q: %w", path, err)
	}
	return ParseConfig(content)
}

// FromMap builds an ordered raw configuration from a plain map, with
// keys sorted for determinism.
func FromMap(raw map[string]any) *ordered.Map {
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	m := ordered.New()
	for _, k := range keys {
		m.Set(k, raw[k])
	}
	return m
}

// overrideEscapes maps the escape sequences accepted in override
// strings, so multi-entry overrides can be written on one shell line.
var overrideEscapes = strings.NewReplacer(`\n`, "\n", `\t`, "\t")

// ParseOverride parses a command-line override into a mapping. The
// override is a YAML flow mapping whose outermost braces may be
// omitted, e.g. "opt1: foo, opt2: bar".
func ParseOverride(override string) (*ordered.Map, error) {
	text := overrideEscapes.Replace(override)

	m, err := ParseConfig([]byte(text))
	if err == nil {
		return m, nil
	}

	m, err = ParseConfig([]byte("{" + text + "}"))
	if err != nil {
		return nil, fmt.Errorf("override %q is %w", override, ErrNotMapping)
	}
	return m, nil
}

// Apply copies override entries into cfg. Overriding a key the schema
// does not declare is an error.
func Apply(cfg *ordered.Map, override *ordered.Map, s *schema.Schema) error {
	for _, key := range override.Keys() {
		if !s.Has(key) {
			return fmt.Errorf("override %q is not a recognized setting", key)
		}
		value, _ := override.Get(key)
		cfg.Set(key, value)
	}
	return nil
}
