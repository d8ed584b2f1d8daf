// Package apperrors defines the typed failures surfaced by the account and
// statistics services.
package apperrors

import (
	"errors"
	"fmt"
)

// Kind classifies an application error.
type Kind string

const (
	KindDuplicateUsername  Kind = "DUPLICATE_USERNAME"
	KindInvalidCredentials Kind = "INVALID_CREDENTIALS"
	KindInvalidSession     Kind = "INVALID_SESSION"
	KindUserNotFound       Kind = "USER_NOT_FOUND"
	KindValidation         Kind = "VALIDATION_FAILURE"
	KindStorage            Kind = "STORAGE_FAILURE"
	KindSync               Kind = "SYNC_FAILURE"
)

// Error is a typed failure with a human-readable message.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so sentinels below work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

var (
	ErrDuplicateUsername  = &Error{Kind: KindDuplicateUsername, Message: "username is already taken"}
	ErrInvalidCredentials = &Error{Kind: KindInvalidCredentials, Message: "Invalid username or password."}
	ErrInvalidSession     = &Error{Kind: KindInvalidSession, Message: "invalid or expired session"}
	ErrUserNotFound       = &Error{Kind: KindUserNotFound, Message: "user not found"}
	ErrValidation         = &Error{Kind: KindValidation, Message: "validation failed"}
	ErrStorage            = &Error{Kind: KindStorage, Message: "storage unavailable"}
	ErrSync               = &Error{Kind: KindSync, Message: "external sync failed"}
)

// New returns an error of the given kind with a custom message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap returns an error of the given kind that keeps err as its cause.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Validation is shorthand for a ValidationFailure with a formatted message.
func Validation(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// Storage wraps a backend error as a StorageFailure.
func Storage(err error) *Error {
	return Wrap(KindStorage, "storage unavailable", err)
}

// KindOf reports the kind of err, or "" when err is not an *Error.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return ""
}

// Message returns the human-readable message of err without its cause.
func Message(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}
