// Package domainerrors provides coded errors for the service layer.
//
// Stores report infrastructure facts via pkg/platform/sentinel; services
// translate those facts (and their own rule violations) into coded errors,
// and the HTTP layer maps codes onto status codes with ToHTTPStatus. Codes
// travel through wrapping, so handlers can branch with HasCode without
// caring how deep the error originated.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies a domain error.
type Code string

const (
	// CodeValidation marks malformed or invalid field values, including
	// unparseable dates.
	CodeValidation Code = "validation_failed"
	// CodeWrongDateOrder marks a date range whose end precedes its start.
	// Conceptually distinct from CodeValidation, same transport status.
	CodeWrongDateOrder Code = "wrong_date_order"
	// CodeBadRequest marks requests that are structurally unusable
	// (bad JSON, bad query parameters).
	CodeBadRequest Code = "bad_request"
	// CodeNotFound covers both genuinely absent records and records owned
	// by another principal. The two are never distinguishable to callers.
	CodeNotFound     Code = "not_found"
	CodeUnauthorized Code = "unauthorized"
	CodeForbidden    Code = "forbidden"
	CodeTimeout      Code = "timeout"
	CodeInternal     Code = "internal_error"
)

// Error is a coded domain error with an optional wrapped cause.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New creates a coded error without a cause.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates a coded error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether err carries the given code anywhere in its chain.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf extracts the code from an error chain, defaulting to CodeInternal.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// MessageOf extracts the domain message from an error chain. Falls back to a
// generic message so driver internals never leak to clients.
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return "internal error"
}

// ToHTTPStatus maps a domain error code to its transport status.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeValidation, CodeWrongDateOrder, CodeBadRequest:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
