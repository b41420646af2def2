package fault

import (
	"errors"
	"fmt"
)

// Kind classifies every failure the core can return. Operations never panic
// across the package boundary; callers branch on the kind with errors.Is and
// map it to a transport status.
type Kind string

const (
	KindInvalid   Kind = "invalid"
	KindForbidden Kind = "forbidden"
	KindConflict  Kind = "conflict"
	KindNotFound  Kind = "not_found"
)

type Error struct {
	Kind    Kind
	Message string
	wrapped error
}

func (e *Error) Error() string {
	if e.wrapped != nil {
		return e.Message + ": " + e.wrapped.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.wrapped
}

// Is lets errors.Is match any fault of the same kind against the kind
// sentinels below, as well as exact error values.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return t.Kind == e.Kind && (t.Message == "" || t.Message == e.Message)
	}
	return false
}

// Kind sentinels for errors.Is checks.
var (
	Invalid   = &Error{Kind: KindInvalid}
	Forbidden = &Error{Kind: KindForbidden}
	Conflict  = &Error{Kind: KindConflict}
	NotFound  = &Error{Kind: KindNotFound}
)

func Invalidf(format string, args ...any) error {
	return &Error{Kind: KindInvalid, Message: fmt.Sprintf(format, args...)}
}

func Forbiddenf(format string, args ...any) error {
	return &Error{Kind: KindForbidden, Message: fmt.Sprintf(format, args...)}
}

func Conflictf(format string, args ...any) error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

func NotFoundf(format string, args ...any) error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind to an underlying error while keeping it reachable for
// errors.Is/errors.As.
func Wrap(kind Kind, err error, message string) error {
	return &Error{Kind: kind, Message: message, wrapped: err}
}

// KindOf reports the kind of err, or an empty kind for plain errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
