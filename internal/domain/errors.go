package domain

import (
	"errors"
	"fmt"
)

// Error kinds shared by every workflow, the API maps them to HTTP statuses
var (
	ErrInvalidInput           = errors.New("invalid input")
	ErrUnauthenticated        = errors.New("unauthenticated")
	ErrNotFound               = errors.New("not found")
	ErrDuplicateName          = errors.New("duplicate name")
	ErrConflictingTransaction = errors.New("conflicting transaction")
	ErrProtectedCategory      = errors.New("protected category")
	ErrQuotaExceeded          = errors.New("quota exceeded")
	ErrTranslationFailed      = errors.New("translation failed")
	ErrExternalService        = errors.New("external service error")
	ErrPayloadTooLarge        = errors.New("payload too large")
)

// Error pairs a kind with a message that is safe to show to clients
type Error struct {
	Kind    error
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap lets errors.Is match both the kind and the cause
func (e *Error) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Kind, e.Cause}
	}
	return []error{e.Kind}
}

// Errorf builds a client-facing error of the given kind
func Errorf(kind error, format string, args ...any) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches an internal cause to a client-facing error
func Wrap(kind error, cause error, message string) error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// Message returns the client-safe message carried by err, or fallback
func Message(err error, fallback string) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return fallback
}
