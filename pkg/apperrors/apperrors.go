// Package apperrors defines the typed errors the coordination engine returns
// to its callers. Handlers map kinds to HTTP statuses; raw store or transport
// errors never cross that boundary.
package apperrors

import (
	"errors"
	"fmt"

	"github.com/aidos-dev/meetsync/internal/models"
)

// Kind classifies an error for the caller.
type Kind string

const (
	KindInvalidArgument Kind = "INVALID_ARGUMENT"
	KindNotFound        Kind = "NOT_FOUND"
	KindPermission      Kind = "PERMISSION"
	KindConflict        Kind = "CONFLICT"
	KindInvalidState    Kind = "INVALID_STATE"
	KindUnavailable     Kind = "UNAVAILABLE"
)

// Error is a kind-tagged error. Conflict errors additionally carry the
// interval that caused the clash so the caller can display it.
type Error struct {
	Kind     Kind                 `json:"kind"`
	Message  string               `json:"message"`
	Conflict *models.TimeInterval `json:"conflict,omitempty"`
	Err      error                `json:"-"`
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// InvalidArgument reports malformed input.
func InvalidArgument(format string, args ...interface{}) *Error {
	return &Error{Kind: KindInvalidArgument, Message: fmt.Sprintf(format, args...)}
}

// NotFound reports a missing user, relationship or meeting.
func NotFound(format string, args ...interface{}) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// Permission reports an operation the relationship state does not allow.
func Permission(format string, args ...interface{}) *Error {
	return &Error{Kind: KindPermission, Message: fmt.Sprintf(format, args...)}
}

// Conflict reports a duplicate record or time clash. interval may be nil when
// the conflict is not a time overlap.
func Conflict(interval *models.TimeInterval, format string, args ...interface{}) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...), Conflict: interval}
}

// InvalidState reports an illegal lifecycle transition.
func InvalidState(format string, args ...interface{}) *Error {
	return &Error{Kind: KindInvalidState, Message: fmt.Sprintf(format, args...)}
}

// Unavailable reports an external dependency failure.
func Unavailable(err error, format string, args ...interface{}) *Error {
	return &Error{Kind: KindUnavailable, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf returns the kind of err, or the empty string for untyped errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
