// Package domainerrors provides coded errors for the service's failure
// taxonomy. Services attach a Code so transport layers can map failures to
// status codes without string matching, and callers can branch with HasCode.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies a failure. Keep the set small; a new code should only be
// added when a caller needs to react differently to it.
type Code string

const (
	// CodeValidation marks malformed or missing required input.
	CodeValidation Code = "validation"
	// CodeInvalidInput marks input rejected at a trust boundary (bad IDs,
	// unparseable values).
	CodeInvalidInput Code = "invalid_input"
	// CodeBadRequest marks requests that could not be decoded at all.
	CodeBadRequest Code = "bad_request"
	// CodeInvariantViolation marks a domain invariant breach detected by a
	// model constructor or transition guard.
	CodeInvariantViolation Code = "invariant_violation"
	// CodeUnauthorized marks a missing or invalid session.
	CodeUnauthorized Code = "unauthorized"
	// CodeForbidden marks an authenticated caller lacking the required role.
	CodeForbidden Code = "forbidden"
	// CodeNotFound marks a referenced entity that does not exist.
	CodeNotFound Code = "not_found"
	// CodeConflict marks a request valid in isolation but invalid against
	// current state, including invalid lifecycle transitions.
	CodeConflict Code = "conflict"
	// CodeUnavailable marks a dependency that is temporarily unreachable.
	CodeUnavailable Code = "unavailable"
	// CodeInternal marks everything the caller cannot act on.
	CodeInternal Code = "internal"
)

// Error is a coded domain error. It may wrap an underlying cause.
type Error struct {
	code  Code
	msg   string
	cause error
}

func New(code Code, msg string) *Error {
	return &Error{code: code, msg: msg}
}

func Newf(code Code, format string, args ...any) *Error {
	return &Error{code: code, msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error, preserving the
// cause for errors.Is/errors.As chains.
func Wrap(err error, code Code, msg string) *Error {
	return &Error{code: code, msg: msg, cause: err}
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.msg + ": " + e.cause.Error()
	}
	return e.msg
}

func (e *Error) Unwrap() error { return e.cause }

func (e *Error) Code() Code { return e.code }

// HasCode reports whether err or anything it wraps carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.code == code
	}
	return false
}

// Is is an alias for HasCode kept for call-site readability.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// CodeOf extracts the code from err, defaulting to CodeInternal for uncoded
// errors so unexpected failures never leak as client faults.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.code
	}
	return CodeInternal
}
