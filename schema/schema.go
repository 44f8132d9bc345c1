// Package schema loads declarative parameter specifications into an
// immutable, ordered set of validation rules. A specification names,
// for each configuration key, a converter, an example value, an
// optional doc string and an optional default.
package schema

import (
	"fmt"
	"reflect"

	"confit/converter"
	"confit/ordered"
)

// Error reports a malformed specification: wrong arity, duplicate
// keys, an unresolvable converter name or an unrecognized converter
// shape. It is always fatal to loading.
type Error struct {
	Msg string
}

func (e *Error) Error() string {
	return "schema error: " + e.Msg
}

func schemaErrorf(format string, args ...any) *Error {
	return &Error{Msg: fmt.Sprintf(format, args...)}
}

// Converter is a rule's raw-to-converted value transformation. The
// three implementations (named function, choice set, choice map) are
// resolved once at load time and never re-inspected during validation.
type Converter interface {
	Convert(value any) (any, error)
}

// Enumerable is implemented by converters whose accepted raw values
// can be listed, in declared order. Sample generation uses it to emit
// a choices comment.
type Enumerable interface {
	Choices() []any
}

// namedFunc applies a conversion function looked up by name in the
// merged registry at load time.
type namedFunc struct {
	name string
	fn   converter.Func
}

func (c namedFunc) Convert(value any) (any, error) {
	return c.fn(value)
}

// choiceSet accepts only values equal to one of its members and
// converts them to themselves.
type choiceSet struct {
	values []any
}

func (c choiceSet) Convert(value any) (any, error) {
	for _, choice := range c.values {
		if valueEqual(choice, value) {
			return value, nil
		}
	}
	return nil, fmt.Errorf("%w: %v is not a recognized choice", converter.ErrBadValue, value)
}

func (c choiceSet) Choices() []any {
	return c.values
}

// choiceMap accepts only its keys and converts each to the mapped
// value. Keys are compared by their scalar spelling.
type choiceMap struct {
	entries *ordered.Map
}

func (c choiceMap) Convert(value any) (any, error) {
	key, ok := value.(string)
	if !ok {
		key = fmt.Sprint(value)
	}
	mapped, found := c.entries.Get(key)
	if !found {
		return nil, fmt.Errorf("%w: %v is not a recognized choice", converter.ErrKeyNotFound, value)
	}
	return mapped, nil
}

func (c choiceMap) Choices() []any {
	keys := c.entries.Keys()
	choices := make([]any, len(keys))
	for i, k := range keys {
		choices[i] = k
	}
	return choices
}

// Rule describes one configuration key.
type Rule struct {
	Name         string
	Converter    Converter
	ListOptional bool // apply the converter per element of a coerced sequence
	Example      any
	Doc          string // empty means no doc string
	Default      any
	HasDefault   bool // false means the key is required
}

// Schema is an ordered sequence of rules, immutable after
// construction. It owns no configuration state, so concurrent
// validation against one Schema is safe.
type Schema struct {
	rules []Rule
	index map[string]int
}

// Rules returns the rules in declared order. Callers must not modify
// the returned slice.
func (s *Schema) Rules() []Rule {
	return s.rules
}

// Rule returns the rule named name.
func (s *Schema) Rule(name string) (Rule, bool) {
	i, ok := s.index[name]
	if !ok {
		return Rule{}, false
	}
	return s.rules[i], true
}

// Has reports whether a rule named name exists.
func (s *Schema) Has(name string) bool {
	_, ok := s.index[name]
	return ok
}

// Len returns the number of rules.
func (s *Schema) Len() int {
	return len(s.rules)
}

func valueEqual(a, b any) bool {
	return reflect.DeepEqual(a, b)
}
