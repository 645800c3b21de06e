// Package errors defines the coded error type every layer of the service
// speaks. A Code classifies the failure; Metadata tells transport layers how
// to surface it. Handlers never inspect error strings.
package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
)

// Code is the stable machine-readable classification of a failure.
type Code string

const (
	// CodeValidation covers rejected input: bad payloads, disallowed mime
	// types, oversize uploads. Never retryable.
	CodeValidation Code = "VALIDATION_ERROR"
	// CodeUnauthorized and CodeForbidden split missing identity from
	// insufficient rights.
	CodeUnauthorized Code = "UNAUTHORIZED"
	CodeForbidden    Code = "FORBIDDEN"
	CodeNotFound     Code = "NOT_FOUND"
	// CodeConflict is a uniqueness clash; CodeStateConflict a disallowed
	// lifecycle transition (order status, photo reorder on a sold item).
	CodeConflict      Code = "CONFLICT"
	CodeStateConflict Code = "STATE_CONFLICT"
	CodeIdempotency   Code = "IDEMPOTENCY_KEY_REUSED"
	CodeRateLimit     Code = "RATE_LIMIT_EXCEEDED"
	// CodeInternal is an unexpected fault in this process; CodeDependency a
	// fault in something it calls (postgres, redis, object storage, the
	// payment gateway). Both are retryable.
	CodeInternal   Code = "INTERNAL_ERROR"
	CodeDependency Code = "DEPENDENCY_ERROR"
)

// Metadata is the transport contract for a code.
type Metadata struct {
	HTTPStatus     int
	Retryable      bool
	PublicMessage  string
	DetailsAllowed bool
}

var codeMeta = map[Code]Metadata{
	CodeValidation:    {http.StatusBadRequest, false, "validation failed", true},
	CodeUnauthorized:  {http.StatusUnauthorized, false, "authentication required", false},
	CodeForbidden:     {http.StatusForbidden, false, "access denied", false},
	CodeNotFound:      {http.StatusNotFound, false, "resource not found", false},
	CodeConflict:      {http.StatusConflict, false, "conflict detected", false},
	CodeStateConflict: {http.StatusUnprocessableEntity, false, "state transition disallowed", true},
	CodeIdempotency:   {http.StatusConflict, false, "idempotency key reused", true},
	CodeRateLimit:     {http.StatusTooManyRequests, false, "rate limit exceeded", false},
	CodeInternal:      {http.StatusInternalServerError, true, "internal server error", false},
	CodeDependency:    {http.StatusServiceUnavailable, true, "dependency unavailable", true},
}

// MetadataFor returns the transport metadata for a code. Unknown codes get
// the internal-error metadata so a bad constant can never leak details.
func MetadataFor(code Code) Metadata {
	if meta, ok := codeMeta[code]; ok {
		return meta
	}
	return codeMeta[CodeInternal]
}

// Error carries a code, an operator-facing message, optional structured
// details, and the wrapped cause. Fields are unexported; mutation happens
// only through WithDetails.
type Error struct {
	code    Code
	message string
	details any
	cause   error
}

// New builds a coded error with no cause.
func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

// Wrap attaches a code and message to an underlying cause. A nil cause
// degrades to New so call sites need not branch.
func Wrap(code Code, err error, message string) *Error {
	if err == nil {
		return New(code, message)
	}
	return &Error{code: code, message: message, cause: err}
}

// As walks the chain and returns the first coded error, or nil.
func As(err error) *Error {
	if err == nil {
		return nil
	}
	var typed *Error
	if stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}

func (e *Error) Code() Code {
	if e == nil {
		return CodeInternal
	}
	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *Error) Details() any {
	if e == nil {
		return nil
	}
	return e.details
}

// WithDetails attaches a structured payload. Whether it reaches clients is
// gated by the code's DetailsAllowed metadata, not by the caller.
func (e *Error) WithDetails(details any) *Error {
	if e == nil {
		return nil
	}
	e.details = details
	return e
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}
