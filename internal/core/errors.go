package core

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a record or blob does not exist.
var ErrNotFound = errors.New("not found")

// ValidationError reports invalid user input. Message is safe to show inline.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Unwrap() error { return e.Err }

// LoadError wraps a failure to read the record set.
type LoadError struct {
	Err error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load investments: %v", e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// PersistenceError wraps a failed write to the record or blob store.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// IsValidation reports whether err carries a ValidationError and returns it.
func IsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
