// Package apierr defines the error taxonomy shared by the gateway and the controllers.
package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Error kinds. Every *Error matches exactly one of these via errors.Is.
var (
	// ErrAuth covers invalid credentials and expired or invalid tokens.
	ErrAuth = errors.New("authentication failed")
	// ErrValidation covers field values rejected by the client or the server.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound is returned when operating on an id the server does not know.
	ErrNotFound = errors.New("not found")
	// ErrNetwork is a transport failure without a structured server response.
	ErrNetwork = errors.New("network error")
	// ErrUnexpected is any other non-2xx server response.
	ErrUnexpected = errors.New("unexpected server response")
)

// Error is a classified failure.
type Error struct {
	Kind      error
	Status    int    // HTTP status, 0 for client-side failures
	Detail    string // human readable message, from the server when available
	Field     string // offending field for validation failures
	RequestID string
	Err       error // underlying cause, if any
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.Error())
	if e.Field != "" {
		b.WriteString(": ")
		b.WriteString(e.Field)
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if e.Err != nil && e.Detail == "" {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Auth builds an authentication failure.
func Auth(detail string) *Error {
	return &Error{Kind: ErrAuth, Detail: detail}
}

// Validation builds a client-side validation failure for field.
func Validation(field, format string, args ...any) *Error {
	return &Error{Kind: ErrValidation, Field: field, Detail: fmt.Sprintf(format, args...)}
}

// NotFound builds a not-found failure.
func NotFound(detail string) *Error {
	return &Error{Kind: ErrNotFound, Status: http.StatusNotFound, Detail: detail}
}

// Network wraps a transport failure.
func Network(err error) *Error {
	return &Error{Kind: ErrNetwork, Err: err}
}

// FromStatus classifies a non-2xx HTTP status.
func FromStatus(status int, detail string) *Error {
	e := &Error{Status: status, Detail: detail}
	switch status {
	case http.StatusBadRequest, http.StatusConflict, http.StatusUnprocessableEntity:
		e.Kind = ErrValidation
	case http.StatusUnauthorized, http.StatusForbidden:
		e.Kind = ErrAuth
	case http.StatusNotFound:
		e.Kind = ErrNotFound
	case http.StatusTooManyRequests:
		e.Kind = ErrNetwork
	default:
		e.Kind = ErrUnexpected
		if detail == "" {
			e.Detail = fmt.Sprintf("status %d", status)
		}
	}
	return e
}

// IsAuth reports whether err is an authentication failure.
func IsAuth(err error) bool { return errors.Is(err, ErrAuth) }

// IsValidation reports whether err is a validation failure.
func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }

// IsNotFound reports whether err is a not-found failure.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsNetwork reports whether err is a transient transport failure.
func IsNetwork(err error) bool { return errors.Is(err, ErrNetwork) }
