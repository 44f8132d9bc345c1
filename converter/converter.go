// Package converter defines the conversion contract used by schema
// rules: a one-argument function from a raw configuration value to a
// converted value. A converter may only fail in one of three sanctioned
// ways, each marked by a sentinel error; any other failure is treated
// as a bug in the converter, not as bad user input.
package converter

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"time"

	"confit/ordered"
)

// The three sanctioned failure kinds. Converter errors must wrap
// exactly one of these to be reported as a configuration problem.
var (
	// ErrKeyNotFound marks a failed lookup of a recognized choice key.
	ErrKeyNotFound = errors.New("key not found")
	// ErrWrongType marks a value whose type cannot be converted.
	ErrWrongType = errors.New("wrong type")
	// ErrBadValue marks a value of acceptable type but unacceptable
	// range or format.
	ErrBadValue = errors.New("bad value")
)

// Sanctioned reports whether err wraps one of the three sanctioned
// failure kinds.
func Sanctioned(err error) bool {
	return errors.Is(err, ErrKeyNotFound) ||
		errors.Is(err, ErrWrongType) ||
		errors.Is(err, ErrBadValue)
}

// Func converts a raw configuration value into its validated form.
type Func func(value any) (any, error)

// Registry maps converter names to conversion functions.
type Registry map[string]Func

// Merge returns a new Registry holding the entries of r overlaid with
// those of other. Names in other win on collision.
func (r Registry) Merge(other Registry) Registry {
	merged := make(Registry, len(r)+len(other))
	for name, fn := range r {
		merged[name] = fn
	}
	for name, fn := range other {
		merged[name] = fn
	}
	return merged
}

// Lookup returns the converter registered under name.
func (r Registry) Lookup(name string) (Func, bool) {
	fn, ok := r[name]
	return fn, ok
}

// Builtins returns the built-in converter set. Names follow the YAML
// type vocabulary, with aliases for the matching Go-flavored names.
func Builtins() Registry {
	return Registry{
		"bool":      asBool,
		"int":       asInt,
		"float":     asFloat,
		"str":       asString,
		"seq":       asSeq,
		"list":      asSeq,
		"tuple":     asSeq,
		"set":       asSet,
		"map":       asMap,
		"dict":      asMap,
		"omap":      asOMap,
		"odict":     asOMap,
		"pairs":     asPairs,
		"timestamp": asTimestamp,
	}
}

// Float coerces a raw scalar into a float64. Exposed so user-supplied
// converters can rely on the same coercion the built-ins use.
func Float(value any) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case uint64:
		return float64(v), nil
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q is not a number", ErrBadValue, v)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("%w: cannot convert %v to a number", ErrWrongType, value)
	}
}

// Int coerces a raw scalar into an int. Fractional floats truncate
// toward zero.
func Int(value any) (int, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case uint64:
		if v > math.MaxInt {
			return 0, fmt.Errorf("%w: %d overflows int", ErrBadValue, v)
		}
		return int(v), nil
	case float64:
		return int(v), nil
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("%w: %q is not an integer", ErrBadValue, v)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("%w: cannot convert %v to an integer", ErrWrongType, value)
	}
}

func asBool(value any) (any, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case string:
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a boolean", ErrBadValue, v)
		}
		return b, nil
	default:
		return nil, fmt.Errorf("%w: cannot convert %v to a boolean", ErrWrongType, value)
	}
}

func asInt(value any) (any, error) {
	return Int(value)
}

func asFloat(value any) (any, error) {
	return Float(value)
}

func asString(value any) (any, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case int, int64, uint64, float64, float32, bool:
		return fmt.Sprint(v), nil
	default:
		return nil, fmt.Errorf("%w: cannot convert %v to a string", ErrWrongType, value)
	}
}

func asSeq(value any) (any, error) {
	seq, ok := value.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: value %v is not a sequence", ErrWrongType, value)
	}
	return seq, nil
}

// asSet keeps the first appearance of each distinct element.
func asSet(value any) (any, error) {
	seq, ok := value.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: value %v is not a sequence", ErrWrongType, value)
	}
	set := make([]any, 0, len(seq))
	for _, item := range seq {
		if !containsValue(set, item) {
			set = append(set, item)
		}
	}
	return set, nil
}

func asMap(value any) (any, error) {
	switch v := value.(type) {
	case *ordered.Map:
		plain := make(map[string]any, v.Len())
		for _, k := range v.Keys() {
			item, _ := v.Get(k)
			plain[k] = item
		}
		return plain, nil
	case map[string]any:
		return v, nil
	default:
		return nil, fmt.Errorf("%w: value %v is not a mapping", ErrWrongType, value)
	}
}

func asOMap(value any) (any, error) {
	switch v := value.(type) {
	case *ordered.Map:
		return v, nil
	case []any:
		// A sequence of pairs or single-entry mappings, as a YAML
		// omap may parse either way.
		m := ordered.New()
		for _, item := range v {
			key, val, err := entryOf(item)
			if err != nil {
				return nil, err
			}
			if m.Has(key) {
				return nil, fmt.Errorf("%w: duplicate key %q", ErrBadValue, key)
			}
			m.Set(key, val)
		}
		return m, nil
	default:
		return nil, fmt.Errorf("%w: value %v is not an ordered mapping", ErrWrongType, value)
	}
}

func asPairs(value any) (any, error) {
	seq, ok := value.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: value %v is not a sequence", ErrWrongType, value)
	}
	pairs := make([][2]any, 0, len(seq))
	for _, item := range seq {
		key, val, err := entryOf(item)
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, [2]any{key, val})
	}
	return pairs, nil
}

var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func asTimestamp(value any) (any, error) {
	switch v := value.(type) {
	case time.Time:
		return v, nil
	case string:
		for _, layout := range timestampLayouts {
			if t, err := time.Parse(layout, v); err == nil {
				return t, nil
			}
		}
		return nil, fmt.Errorf("%w: %q is not a timestamp", ErrBadValue, v)
	default:
		return nil, fmt.Errorf("%w: cannot convert %v to a timestamp", ErrWrongType, value)
	}
}

// entryOf extracts the key/value of a pair element, which may be a
// two-element sequence or a single-entry mapping.
func entryOf(item any) (string, any, error) {
	switch e := item.(type) {
	case []any:
		if len(e) != 2 {
			return "", nil, fmt.Errorf("%w: item %v is not a pair", ErrBadValue, item)
		}
		key, ok := e[0].(string)
		if !ok {
			key = fmt.Sprint(e[0])
		}
		return key, e[1], nil
	case *ordered.Map:
		if e.Len() != 1 {
			return "", nil, fmt.Errorf("%w: item with %d entries is not a pair", ErrBadValue, e.Len())
		}
		key := e.Keys()[0]
		val, _ := e.Get(key)
		return key, val, nil
	default:
		return "", nil, fmt.Errorf("%w: item %v is not a pair", ErrWrongType, item)
	}
}

func containsValue(seq []any, value any) bool {
	for _, item := range seq {
		if reflect.DeepEqual(item, value) {
			return true
		}
	}
	return false
}
