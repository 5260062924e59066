// Package domainerrors carries typed error codes from the service layer to the
// transport layer. Services translate infrastructure sentinels into these
// codes; handlers map codes to HTTP statuses without inspecting messages.
package domainerrors

import "errors"

// Code identifies a class of domain failure.
type Code string

const (
	// Movement taxonomy.
	CodeNotFound          Code = "not_found"
	CodeInvalidKind       Code = "invalid_kind"
	CodeRedundantMovement Code = "redundant_movement"
	CodeUnavailable       Code = "unavailable"
	CodeConflict          Code = "conflict"

	// Request and access failures.
	CodeBadRequest         Code = "bad_request"
	CodeValidation         Code = "validation_error"
	CodeInvariantViolation Code = "invariant_violation"
	CodeUnauthorized       Code = "unauthorized"
	CodeForbidden          Code = "forbidden"
	CodeTimeout            Code = "timeout"
	CodeRateLimited        Code = "rate_limited"
	CodeInternal           Code = "internal_error"
)

// Error is a coded domain error. The message is safe to show to clients
// unless the code is CodeInternal.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is a domain error with the same code and message.
// This lets tests use require.ErrorIs against a freshly built error.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

// New creates a domain error with the given code.
func New(code Code, msg string) error {
	return &Error{Code: code, Message: msg}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, msg string) error {
	return &Error{Code: code, Message: msg, Err: err}
}

// CodeOf returns the outermost domain code in the chain, or CodeInternal when
// the error carries none.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// HasCode reports whether the outermost domain error in the chain has code.
func HasCode(err error, code Code) bool {
	if err == nil {
		return false
	}
	var de *Error
	if !errors.As(err, &de) {
		return false
	}
	return de.Code == code
}

// Is is shorthand for HasCode kept for handler readability.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// Message returns the client-facing message for err.
func Message(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return "internal error"
}
