package core

import (
	"errors"
	"fmt"
)

// ErrorKind categorizes every failure an invocation can surface. The kind is
// part of the error payload returned to the transport, so values are stable
// wire identifiers.
type ErrorKind string

const (
	// ErrValidation marks malformed or missing invocation arguments.
	ErrValidation ErrorKind = "ValidationError"
	// ErrUnknownFunction marks a request for an operation that is not registered.
	ErrUnknownFunction ErrorKind = "UnknownFunctionError"
	// ErrConflict marks a duplicate unique key (e.g. patient phone number).
	ErrConflict ErrorKind = "ConflictError"
	// ErrSlotUnavailable marks a booking attempt against a slot that is no longer open.
	ErrSlotUnavailable ErrorKind = "SlotUnavailableError"
	// ErrNotFound marks a reference to an absent (or already cancelled) entity.
	ErrNotFound ErrorKind = "NotFoundError"
	// ErrInternal marks unexpected failures, including storage faults and panics.
	ErrInternal ErrorKind = "InternalError"
)

// DomainError is the typed error carried across the store and dispatch
// boundaries. Message is safe to relay to the conversational model verbatim.
type DomainError struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
	Err     error     `json:"-"` // Wrapped cause, not serialized
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the wrapped cause for errors.Is / errors.As chains.
func (e *DomainError) Unwrap() error { return e.Err }

// NewDomainError builds a DomainError of the given kind with a formatted message.
func NewDomainError(kind ErrorKind, format string, args ...any) *DomainError {
	return &DomainError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WrapInternal wraps an unexpected error as an InternalError, keeping the
// cause for logs while presenting a stable message outward.
func WrapInternal(msg string, err error) *DomainError {
	return &DomainError{Kind: ErrInternal, Message: msg, Err: err}
}

// Classify maps an arbitrary error to its ErrorKind. Non-domain errors are
// treated as internal failures.
func Classify(err error) ErrorKind {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind
	}
	return ErrInternal
}

// UserMessage returns the caller-safe message for an error. Raw internal
// errors are replaced by a generic message so stack details never leak into
// the conversation.
func UserMessage(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Message
	}
	return "an unexpected internal error occurred"
}
