// Package apperr is the error taxonomy shared by the lifecycle core, the HTTP
// boundary and the sync engine. Only KindTransient errors may be absorbed
// into the offline mutation queue.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindValidation    Kind = "validation"
	KindAuthorization Kind = "authorization"
	KindConflict      Kind = "conflict"
	KindTransient     Kind = "transient"
	KindNotFound      Kind = "not_found"
	KindInternal      Kind = "internal"
)

// Error carries a Kind and a user-facing message.
type Error struct {
	Kind    Kind
	Message string
	Err     error
	// Status overrides the HTTP code derived from Kind.
	Status int
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same Kind, so errors.Is(err, apperr.ErrConflict) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Message == "" && t.Kind == e.Kind
}

// Kind sentinels for errors.Is.
var (
	ErrValidation    = &Error{Kind: KindValidation}
	ErrAuthorization = &Error{Kind: KindAuthorization}
	ErrConflict      = &Error{Kind: KindConflict}
	ErrTransient     = &Error{Kind: KindTransient}
	ErrNotFound      = &Error{Kind: KindNotFound}
)

func Validation(format string, args ...any) error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func Authorization(format string, args ...any) error {
	return &Error{Kind: KindAuthorization, Message: fmt.Sprintf(format, args...)}
}

func Conflict(format string, args ...any) error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...any) error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// Unauthenticated is an authorization failure caused by a missing or
// unknown session; it maps to 401 instead of 403.
func Unauthenticated(format string, args ...any) error {
	return &Error{Kind: KindAuthorization, Message: fmt.Sprintf(format, args...), Status: http.StatusUnauthorized}
}

// Transient wraps a network-level failure.
func Transient(err error, format string, args ...any) error {
	return &Error{Kind: KindTransient, Message: fmt.Sprintf(format, args...), Err: err}
}

// Internal wraps an unexpected storage or programming failure.
func Internal(err error, format string, args ...any) error {
	return &Error{Kind: KindInternal, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf returns the Kind of err, KindInternal for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsTransient reports whether err may be retried later.
func IsTransient(err error) bool {
	return KindOf(err) == KindTransient
}

// Message returns the user-facing message of err.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return "Internal Server Error"
}

// HTTPStatus maps err to the response code used at the transport boundary.
func HTTPStatus(err error) int {
	var e *Error
	if errors.As(err, &e) && e.Status != 0 {
		return e.Status
	}
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuthorization:
		return http.StatusForbidden
	case KindConflict:
		return http.StatusConflict
	case KindNotFound:
		return http.StatusNotFound
	case KindTransient:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// FromHTTPStatus classifies a remote response code. Network failures never reach
// here; the caller wraps them with Transient directly.
func FromHTTPStatus(status int, message string) error {
	if message == "" {
		message = fmt.Sprintf("Request failed (%d)", status)
	}
	switch {
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return &Error{Kind: KindValidation, Message: message}
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return &Error{Kind: KindAuthorization, Message: message}
	case status == http.StatusNotFound:
		return &Error{Kind: KindNotFound, Message: message}
	case status == http.StatusConflict:
		return &Error{Kind: KindConflict, Message: message}
	case status == http.StatusTooManyRequests || status >= 500:
		return &Error{Kind: KindTransient, Message: message}
	default:
		return &Error{Kind: KindInternal, Message: message}
	}
}
