// Package apperr defines the error taxonomy shared by the data layer and the
// HTTP boundary. Handlers translate any error into the response envelope via
// StatusOf and Message; internal detail (wrapped causes, connection strings)
// never reaches the caller.
package apperr

import (
	"errors"
	"net/http"
)

// Kind classifies an error for HTTP translation.
type Kind int

const (
	KindInternal Kind = iota
	KindAuthentication
	KindAuthorization
	KindValidation
	KindConnection
	KindNotFound
	KindProvisioning
)

// Error carries a caller-safe message alongside a classification and the
// wrapped cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Authentication returns an authentication error. The message is always the
// same generic one so that nothing leaks about which check failed.
func Authentication() *Error {
	return &Error{Kind: KindAuthentication, Message: "Not authorized"}
}

// Authorization returns a forbidden error for a valid credential with the
// wrong role.
func Authorization() *Error {
	return &Error{Kind: KindAuthorization, Message: "Not authorized"}
}

// Validation returns a recoverable bad-input error with a descriptive message.
func Validation(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

// NotFound returns an error for a missing tenant or order.
func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

// Connection wraps a database connectivity failure.
func Connection(err error, message string) *Error {
	return &Error{Kind: KindConnection, Message: message, Err: err}
}

// Provisioning wraps a tenant provisioning failure.
func Provisioning(err error, message string) *Error {
	return &Error{Kind: KindProvisioning, Message: message, Err: err}
}

// Internal wraps an unclassified failure behind a generic message.
func Internal(err error, message string) *Error {
	return &Error{Kind: KindInternal, Message: message, Err: err}
}

// KindOf extracts the classification of err, defaulting to KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// StatusOf maps an error to the HTTP status the boundary should respond with.
func StatusOf(err error) int {
	switch KindOf(err) {
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindAuthorization:
		return http.StatusForbidden
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConnection, KindProvisioning:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the caller-safe message for err. Errors outside the
// taxonomy collapse to a generic message.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "An unexpected error occurred"
}
