// Package validator applies a loaded schema to a raw configuration
// mapping, producing converted values in schema order, and generates
// documented sample configurations from the same rules.
package validator

import (
	"confit/converter"
	"confit/ordered"
	"confit/schema"
)

// Configuration is the validation result: converted values keyed in
// schema-declared order, plus the pre-conversion raw values of the
// keys that were actually supplied (not defaulted). Each call to
// Validate builds a fresh Configuration owned by the caller, which may
// add derived keys afterward.
type Configuration struct {
	*ordered.Map

	// Original holds the raw values of keys that came from the input,
	// letting a program report what the user wrote after conversion.
	Original *ordered.Map
}

// Validate checks raw against s rule by rule, in schema order. Each
// value is converted by its rule's converter; missing keys fall back
// to the rule's default or fail with a MissingConfigError. The first
// failure aborts validation. Keys in raw that no rule names are
// dropped.
func Validate(s *schema.Schema, raw *ordered.Map) (*Configuration, error) {
	config := &Configuration{Map: ordered.New(), Original: ordered.New()}

	for _, rule := range s.Rules() {
		value, supplied := raw.Get(rule.Name)
		if !supplied {
			if !rule.HasDefault {
				return nil, &MissingConfigError{Key: rule.Name}
			}
			value = rule.Default
		}

		converted, err := convertValue(rule, value)
		if err != nil {
			return nil, err
		}

		config.Set(rule.Name, converted)
		if supplied {
			config.Original.Set(rule.Name, value)
		}
	}

	return config, nil
}

// convertValue applies a rule's converter, element-wise for
// list-optional rules. Sanctioned converter failures become
// ConversionErrors naming the key; anything else propagates untouched.
func convertValue(rule schema.Rule, value any) (any, error) {
	if !rule.ListOptional {
		return applyConverter(rule, value)
	}

	seq, ok := value.([]any)
	if !ok {
		seq = []any{value}
	}
	converted := make([]any, 0, len(seq))
	for _, item := range seq {
		c, err := applyConverter(rule, item)
		if err != nil {
			return nil, err
		}
		converted = append(converted, c)
	}
	return converted, nil
}

func applyConverter(rule schema.Rule, value any) (any, error) {
	converted, err := rule.Converter.Convert(value)
	if err != nil {
		if converter.Sanctioned(err) {
			return nil, &ConversionError{Key: rule.Name, Err: err}
		}
		return nil, err
	}
	return converted, nil
}
