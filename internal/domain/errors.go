package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies every failure a catalog operation can surface.
type ErrorKind string

const (
	KindValidation          ErrorKind = "validation_error"
	KindDuplicateKey        ErrorKind = "duplicate_key"
	KindInvalidReference    ErrorKind = "invalid_reference"
	KindNotFound            ErrorKind = "not_found"
	KindReferentialConflict ErrorKind = "referential_conflict"
	KindInternal            ErrorKind = "internal_error"
)

// Error is a classified catalog failure. Field names the offending input for
// validation errors. Err keeps the store error for diagnostics.
type Error struct {
	Kind    ErrorKind
	Field   string
	Message string
	Err     error
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

// Is matches any *Error of the same kind, so errors.Is(err, ErrNotFound) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

var (
	ErrValidation          = &Error{Kind: KindValidation, Message: "invalid input"}
	ErrDuplicateKey        = &Error{Kind: KindDuplicateKey, Message: "a record with that identifier already exists"}
	ErrInvalidReference    = &Error{Kind: KindInvalidReference, Message: "invalid reference to another record"}
	ErrNotFound            = &Error{Kind: KindNotFound, Message: "record not found"}
	ErrReferentialConflict = &Error{Kind: KindReferentialConflict, Message: "record is still referenced by other records"}
	ErrInternal            = &Error{Kind: KindInternal, Message: "internal server error"}
)

// NewValidationError reports a rejected field before any store call.
func NewValidationError(field, message string) *Error {
	return &Error{Kind: KindValidation, Field: field, Message: message}
}

// Wrap classifies cause under kind, keeping the canonical message of that kind.
func Wrap(kind ErrorKind, cause error) *Error {
	return &Error{Kind: kind, Message: messageFor(kind), Err: cause}
}

// KindOf returns the kind of a classified error and KindInternal for anything else.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func messageFor(kind ErrorKind) string {
	switch kind {
	case KindValidation:
		return ErrValidation.Message
	case KindDuplicateKey:
		return ErrDuplicateKey.Message
	case KindInvalidReference:
		return ErrInvalidReference.Message
	case KindNotFound:
		return ErrNotFound.Message
	case KindReferentialConflict:
		return ErrReferentialConflict.Message
	default:
		return ErrInternal.Message
	}
}
