// Package servererrors defines the error taxonomy shared by every module and
// its mapping onto HTTP status codes.
package servererrors

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"net"
	"net/http"
)

// Kind classifies a failure so callers can decide how to surface it.
type Kind string

const (
	KindValidation        Kind = "ValidationFailure"
	KindAuth              Kind = "AuthFailure"
	KindForbidden         Kind = "Forbidden"
	KindNotFound          Kind = "NotFound"
	KindConflict          Kind = "Conflict"
	KindInsufficientStock Kind = "InsufficientStock"
	KindCartState         Kind = "CartStateFailure"
	KindConnection        Kind = "ConnectionFailure"
	KindRemote            Kind = "RemoteCallFailure"
)

// ServerError carries a user-visible message together with its Kind and,
// for validation failures, per-field messages.
type ServerError struct {
	Kind    Kind
	Message string
	Fields  map[string]string
	cause   error
}

// New returns a ServerError of the given kind.
func New(kind Kind, message string) *ServerError {
	return &ServerError{Kind: kind, Message: message}
}

// Wrap attaches kind and message to an underlying error.
func Wrap(kind Kind, err error, message string) *ServerError {
	return &ServerError{Kind: kind, Message: message, cause: err}
}

// Validation builds a ValidationFailure with per-field messages.
func Validation(message string, fields map[string]string) *ServerError {
	return &ServerError{Kind: KindValidation, Message: message, Fields: fields}
}

func (e *ServerError) Error() string {
	if e.cause != nil && e.Message == "" {
		return e.cause.Error()
	}
	return e.Message
}

func (e *ServerError) Unwrap() error { return e.cause }

// StatusCode maps the error kind onto an HTTP status.
func (e *ServerError) StatusCode() int {
	return StatusFor(e.Kind)
}

// StatusFor maps a Kind onto an HTTP status.
func StatusFor(kind Kind) int {
	switch kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuth:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict, KindInsufficientStock, KindCartState:
		return http.StatusConflict
	case KindConnection:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// KindOf classifies any error. Errors that carry no ServerError are treated
// as connection failures when they come from a broken transport and as
// remote call failures otherwise.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var se *ServerError
	if errors.As(err, &se) {
		return se.Kind
	}
	if IsConnectionError(err) {
		return KindConnection
	}
	return KindRemote
}

// Is reports whether err is of the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// FieldsOf returns the per-field messages of a validation failure, if any.
func FieldsOf(err error) map[string]string {
	var se *ServerError
	if errors.As(err, &se) {
		return se.Fields
	}
	return nil
}

// IsConnectionError reports whether err means the backing store could not be reached.
func IsConnectionError(err error) bool {
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
