// Package goerror defines the structured error type shared by all modules.
//
// Every user-facing failure is an *Error carrying a type (server, business,
// validation), a stable code, and a safe message. Outbound layers translate
// driver errors into the sentinel values below; inbound layers map codes to
// HTTP statuses.
package goerror

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotFound signals that the requested record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrConflict signals a uniqueness or compare-and-swap conflict.
	ErrConflict = errors.New("record conflict")
)

// Type buckets errors by who has to act on them.
type Type int

const (
	// TypeServer is an internal failure the caller cannot fix.
	TypeServer Type = iota
	// TypeBusiness is a rule violation with a safe, user-facing message.
	TypeBusiness
	// TypeValidation is malformed or out-of-contract input.
	TypeValidation
)

// String returns the wire representation of the type.
func (t Type) String() string {
	switch t {
	case TypeBusiness:
		return "ERROR_TYPE_BUSINESS"
	case TypeValidation:
		return "ERROR_TYPE_VALIDATION"
	default:
		return "ERROR_TYPE_SERVER"
	}
}

// Code is a stable identifier used to map errors onto HTTP statuses.
type Code int

const (
	// CodeInternal is an unspecified internal error.
	CodeInternal Code = iota
	// CodeInvalidFormat is an unparseable or malformed request.
	CodeInvalidFormat
	// CodeInvalidInput is a well-formed request that fails validation.
	CodeInvalidInput
	// CodeNotFound is a missing resource.
	CodeNotFound
	// CodeConflict is a duplicate or concurrent-update conflict.
	CodeConflict
	// CodeTooManyRequest is throttling (issuance cooldown).
	CodeTooManyRequest
	// CodeUnauthorized is an authentication failure.
	CodeUnauthorized
	// CodeForbidden is an authorization failure.
	CodeForbidden
	// CodeUnavailable is a dependency outage; the caller may retry.
	CodeUnavailable
)

// String returns the wire representation of the code.
func (c Code) String() string {
	switch c {
	case CodeInvalidFormat:
		return "ERROR_CODE_INVALID_FORMAT"
	case CodeInvalidInput:
		return "ERROR_CODE_INVALID_INPUT"
	case CodeNotFound:
		return "ERROR_CODE_NOT_FOUND"
	case CodeConflict:
		return "ERROR_CODE_CONFLICT"
	case CodeTooManyRequest:
		return "ERROR_CODE_TOO_MANY_REQUESTS"
	case CodeUnauthorized:
		return "ERROR_CODE_UNAUTHORIZED"
	case CodeForbidden:
		return "ERROR_CODE_FORBIDDEN"
	case CodeUnavailable:
		return "ERROR_CODE_UNAVAILABLE"
	default:
		return "ERROR_CODE_INTERNAL"
	}
}

// Error is the structured application error.
//
// It wraps an optional underlying cause and carries a message safe to show to
// callers. The cause is logged, never serialized.
type Error struct {
	err     error
	msg     string
	errType Type
	code    Code
	fields  map[string]string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.err != nil {
		return e.err.Error()
	}
	if e.msg != "" {
		return e.msg
	}
	return "unknown error"
}

// String renders a verbose form for logs.
func (e *Error) String() string {
	return fmt.Sprintf("type=%s code=%s msg=%q cause=%v", e.errType, e.code, e.msg, e.err)
}

// Msg returns the user-facing message.
func (e *Error) Msg() string { return e.msg }

// Type returns the error bucket.
func (e *Error) Type() Type { return e.errType }

// Code returns the stable error code.
func (e *Error) Code() Code { return e.code }

// Fields returns per-field validation messages, if any.
func (e *Error) Fields() map[string]string { return e.fields }

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error { return e.err }

// StatusCode maps the error code to an HTTP status.
func (e *Error) StatusCode() int {
	switch e.code {
	case CodeInvalidFormat, CodeInvalidInput:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	case CodeTooManyRequest:
		return http.StatusTooManyRequests
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func newError(err error, msg string, et Type, code Code) *Error {
	return &Error{err: err, msg: msg, errType: et, code: code}
}

// NewServer wraps an internal failure. The caller sees a generic message.
func NewServer(err error) error {
	return newError(err, "Internal server error", TypeServer, CodeInternal)
}

// NewUnavailable wraps a dependency outage as a retriable service error.
func NewUnavailable(err error) error {
	return newError(err, "Service temporarily unavailable", TypeServer, CodeUnavailable)
}

// NewBusiness creates a rule-violation error with a safe message.
func NewBusiness(msg string, code Code) error {
	return newError(nil, msg, TypeBusiness, code)
}

// NewInvalidInput wraps a validation failure.
func NewInvalidInput(err error) error {
	return newError(err, "Validation error", TypeValidation, CodeInvalidInput)
}

// NewInvalidFormat creates a malformed-request error, optionally with a
// specific message.
func NewInvalidFormat(msgs ...string) error {
	msg := "Invalid request body"
	if len(msgs) > 0 {
		msg = msgs[0]
	}
	return newError(nil, msg, TypeValidation, CodeInvalidFormat)
}
