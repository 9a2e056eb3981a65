package template

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingKey is the reason for a schema error about an absent key.
	ErrMissingKey = errors.New("missing key")
	// ErrUnexpectedValue is the reason for a schema error about a key holding a value outside its domain.
	ErrUnexpectedValue = errors.New("unexpected value")

	// ErrTooLarge is returned by Compress when the envelope exceeds MaxEnvelopeLen.
	ErrTooLarge = errors.New("compressed template too large")
)

// SchemaError reports a malformed item, block or template document.
type SchemaError struct {
	Scope string // "item", "block" or "template"
	Key   string
	Err   error // ErrMissingKey or ErrUnexpectedValue
}

func (e *SchemaError) Error() string {
	if errors.Is(e.Err, ErrMissingKey) {
		return fmt.Sprintf("malformed %s json: no '%s' key present", e.Scope, e.Key)
	}
	return fmt.Sprintf("malformed %s json: unexpected value for '%s'", e.Scope, e.Key)
}

func (e *SchemaError) Unwrap() error { return e.Err }

func missing(scope, key string) error {
	return &SchemaError{Scope: scope, Key: key, Err: ErrMissingKey}
}

func unexpected(scope, key string) error {
	return &SchemaError{Scope: scope, Key: key, Err: ErrUnexpectedValue}
}
