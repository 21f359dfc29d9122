// Package cferr defines the failure taxonomy for exactcf.
//
// Every error returned by the arithmetic core, the expression parser, the
// configuration loader or the CLI maps to exactly one FailureClass, which
// determines the exit code and lets tests assert on the kind of failure
// rather than only on its presence.
package cferr

import (
	"errors"
	"fmt"
)

// FailureClass is a stable failure category.
type FailureClass string

const (
	// DivideByZero is a zero denominator in a rational, a division by an
	// exact zero, or 1/0 met while expanding a continued fraction.
	DivideByZero FailureClass = "DIVIDE_BY_ZERO"
	// Domain is a mathematically undefined operation: 0^0, 0^-n, a negative
	// value where a non-negative one is required, a non-finite float, or a
	// malformed finite continued fraction.
	Domain FailureClass = "DOMAIN"
	// StateMisuse is a protocol violation on a generator, such as calling
	// Next after HasNext reported false.
	StateMisuse FailureClass = "STATE_MISUSE"
	// InvalidExpression is a syntax or bound violation in cfexpr input.
	InvalidExpression FailureClass = "INVALID_EXPRESSION"
	// BoundExceeded is a caller-supplied iteration bound running out
	// before a result was decided.
	BoundExceeded FailureClass = "BOUND_EXCEEDED"
	// InvalidConfig is a configuration document that fails to decode or
	// validate.
	InvalidConfig FailureClass = "INVALID_CONFIG"
	CLIUsage      FailureClass = "CLI_USAGE"
	InternalIO    FailureClass = "INTERNAL_IO"
	InternalError FailureClass = "INTERNAL_ERROR"
)

// ExitCode returns the process exit code for this failure class.
func (fc FailureClass) ExitCode() int {
	switch fc {
	case InternalIO, InternalError:
		return 10
	default:
		return 2
	}
}

// Error is the structured error type for all exactcf failures.
type Error struct {
	Class   FailureClass
	Offset  int
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var s string
	if e.Offset >= 0 {
		s = fmt.Sprintf("cferr: %s at byte %d: %s", e.Class, e.Offset, e.Message)
	} else {
		s = fmt.Sprintf("cferr: %s: %s", e.Class, e.Message)
	}
	if e.Cause != nil {
		s += ": " + e.Cause.Error()
	}
	return s
}

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given class and message.
func New(class FailureClass, offset int, message string) *Error {
	return &Error{Class: class, Offset: offset, Message: message}
}

// Newf is New with a format string and no offset.
func Newf(class FailureClass, format string, args ...any) *Error {
	return &Error{Class: class, Offset: -1, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(class FailureClass, offset int, message string, cause error) *Error {
	return &Error{Class: class, Offset: offset, Message: message, Cause: cause}
}

// ClassOf returns the class of the first *Error in err's chain, or
// InternalError if err carries none. A nil err has no class.
func ClassOf(err error) FailureClass {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Class
	}
	return InternalError
}

// Is reports whether err carries the given failure class.
func Is(err error, class FailureClass) bool {
	return err != nil && ClassOf(err) == class
}
