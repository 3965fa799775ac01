// Package errors is logview's sentinel-error and wrapping vocabulary,
// shared by every core package instead of ad hoc fmt.Errorf strings.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for the core's recoverable, user-caused conditions (§7).
var (
	// ErrNotFound is returned by searches that found nothing. A normal,
	// expected outcome - never treated as a failure by callers.
	ErrNotFound = errors.New("not found")

	// ErrNotReachedYet is returned by line registry queries that ask about
	// a byte range beyond the registry's crawled watermark.
	ErrNotReachedYet = errors.New("requested range not indexed yet")

	// ErrCancelled is returned by a background task that observed its
	// interrupt signal. Listeners treat it as a silent no-op.
	ErrCancelled = errors.New("task cancelled")

	// ErrLengthUnknown is returned by a filtered source whose eager scan
	// has not completed, so its total virtual length isn't known yet.
	ErrLengthUnknown = errors.New("filtered source length not known yet")

	// ErrParse is returned by go-to and filter input parsing failures.
	ErrParse = errors.New("parse error")

	// ErrInvalidArgument covers malformed arguments to core operations
	// (e.g. a negative neighbourhood, an empty pattern).
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInvalidState flags a programmer error: an impossible state
	// transition or an invariant violation. Core code panics on these
	// rather than returning them, per §7; the sentinel exists so panic
	// messages and any tests asserting on them share one identity.
	ErrInvalidState = errors.New("invalid internal state")
)

// Wrap wraps an error with additional context, preserving errors.Is/As.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// New creates a new error with a formatted message.
func New(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}

// Is checks if an error is of a specific kind.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As attempts to extract a specific error type.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Unwrap returns the wrapped error.
func Unwrap(err error) error {
	return errors.Unwrap(err)
}

// MultiError collects multiple errors from an operation with several
// independent failure points (e.g. closing several background readers).
type MultiError struct {
	errors []error
}

// NewMultiError creates an empty MultiError.
func NewMultiError() *MultiError {
	return &MultiError{}
}

// Add appends err if non-nil.
func (m *MultiError) Add(err error) {
	if err != nil {
		m.errors = append(m.errors, err)
	}
}

// HasErrors reports whether any error was added.
func (m *MultiError) HasErrors() bool {
	return len(m.errors) > 0
}

// Error implements the error interface.
func (m *MultiError) Error() string {
	switch len(m.errors) {
	case 0:
		return ""
	case 1:
		return m.errors[0].Error()
	default:
		return fmt.Sprintf("multiple errors occurred: %v", m.errors)
	}
}

// Errors returns all collected errors.
func (m *MultiError) Errors() []error {
	return m.errors
}

// ErrorOrNil returns nil if no errors were added, otherwise m.
func (m *MultiError) ErrorOrNil() error {
	if m.HasErrors() {
		return m
	}
	return nil
}
