package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind classifies domain failures independently of the transport.
type Kind string

const (
	KindNotFound         Kind = "NOT_FOUND"
	KindInvalidReference Kind = "INVALID_REFERENCE"
	KindValidation       Kind = "VALIDATION_FAILED"
	KindConflict         Kind = "CONFLICT"
	KindForbidden        Kind = "FORBIDDEN"
	KindInternal         Kind = "INTERNAL_ERROR"
)

// Error is a typed domain error carrying an optional list of details.
type Error struct {
	Kind    Kind     `json:"code"`
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
	Err     error    `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches errors of the same kind so callers can test against the sentinels below.
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) || e == nil {
		return false
	}
	return e.Kind == other.Kind
}

// Status maps the error kind onto an HTTP status code.
func (e *Error) Status() int {
	if e == nil {
		return http.StatusInternalServerError
	}
	switch e.Kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindInvalidReference, KindValidation:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// Sentinels usable with errors.Is.
var (
	ErrNotFound         = New(KindNotFound, "resource not found")
	ErrInvalidReference = New(KindInvalidReference, "invalid identifier")
	ErrValidation       = New(KindValidation, "validation failed")
	ErrConflict         = New(KindConflict, "conflict")
	ErrForbidden        = New(KindForbidden, "forbidden")
	ErrInternal         = New(KindInternal, "internal server error")
)

// New creates an error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap attaches a kind and message to an underlying error.
func Wrap(err error, kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// NotFound reports a missing entity, e.g. NotFound("session").
func NotFound(entity string) *Error {
	return New(KindNotFound, entity+" not found")
}

// InvalidReference reports a malformed identifier.
func InvalidReference(field string) *Error {
	return New(KindInvalidReference, "invalid "+field)
}

// Conflict reports a domain level duplicate or a lost concurrent update.
func Conflict(message string) *Error {
	return New(KindConflict, message)
}

// Forbidden reports an authenticated caller lacking access.
func Forbidden(message string) *Error {
	return New(KindForbidden, message)
}

// Validation aggregates every detected problem into a single error.
func Validation(details []string) *Error {
	message := ErrValidation.Message
	if len(details) > 0 {
		message = strings.Join(details, ", ")
	}
	return &Error{Kind: KindValidation, Message: message, Details: append([]string(nil), details...)}
}

// Internal wraps an unexpected failure.
func Internal(err error, message string) *Error {
	return Wrap(err, KindInternal, message)
}

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, KindInternal, ErrInternal.Message)
}
