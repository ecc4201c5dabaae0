package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for the HTTP boundary. The mapping to a
// status code happens exactly once, in the handler layer.
type Kind int

const (
	// Validation covers missing or malformed input.
	Validation Kind = iota
	// NotFound covers missing classes, users and the like.
	NotFound
	// Unauthorized covers bad credentials.
	Unauthorized
	// Forbidden covers ownership failures.
	Forbidden
	// Conflict covers duplicate same-day attendance.
	Conflict
	// Store covers failures in the backing store.
	Store
)

// Error is a classified application error with the two message fields
// the API exposes: a short error label and a longer human message.
type Error struct {
	Kind    Kind
	Label   string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Label, e.Err)
	}
	if e.Message != "" {
		return e.Label + ": " + e.Message
	}
	return e.Label
}

// Unwrap exposes the wrapped cause.
func (e *Error) Unwrap() error { return e.Err }

// New builds a classified error.
func New(kind Kind, label, message string) *Error {
	return &Error{Kind: kind, Label: label, Message: message}
}

// Wrap classifies an underlying error, keeping it for Unwrap.
func Wrap(kind Kind, label string, err error) *Error {
	return &Error{Kind: kind, Label: label, Err: err}
}

// KindOf extracts the Kind from err; unclassified errors count as
// Store failures so nothing escapes the taxonomy.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Store
}

// AsError returns the classified error inside err, or a Store-kind
// wrapper around it.
func AsError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{Kind: Store, Label: "Error del servidor", Message: err.Error(), Err: err}
}
