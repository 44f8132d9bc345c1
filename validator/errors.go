package validator

import "fmt"

// MissingConfigError reports a required key (no default) absent from
// the raw configuration. It is a user-facing configuration error, not
// a programming error.
type MissingConfigError struct {
	Key string
}

func (e *MissingConfigError) Error() string {
	return fmt.Sprintf("configuration must supply a value for %q", e.Key)
}

// ConversionError reports a supplied value that failed conversion in
// one of the three sanctioned ways. It carries the offending key and
// wraps the converter's error.
type ConversionError struct {
	Key string
	Err error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("bad value for %q: %v", e.Key, e.Err)
}

func (e *ConversionError) Unwrap() error {
	return e.Err
}
