// Package apperr defines the error taxonomy shared by the registry, loaders
// and retrieval code. Callers classify failures with errors.Is against the
// four kinds rather than matching message strings.
package apperr

import (
	"errors"
	"fmt"
)

// Kind partitions every surfaced failure into one of four conditions.
type Kind int

const (
	// KindValidation covers missing parameters, unsupported extensions and
	// schema preconditions. Nothing is mutated before the rejection.
	KindValidation Kind = iota
	// KindConflict covers duplicate-name collisions on upload.
	KindConflict
	// KindNotFound covers absent sessions, files and unbuilt indexes.
	KindNotFound
	// KindProvider covers embedding/completion failures from the model
	// provider. Never retried here; state is left as it was before the call.
	KindProvider
)

// Error wraps an underlying cause with its taxonomy kind.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Validation returns a validation error with a formatted message.
func Validation(format string, args ...any) error {
	return &Error{Kind: KindValidation, Msg: fmt.Sprintf(format, args...)}
}

// Conflict returns a conflict error with a formatted message.
func Conflict(format string, args ...any) error {
	return &Error{Kind: KindConflict, Msg: fmt.Sprintf(format, args...)}
}

// NotFound returns a not-found error with a formatted message.
func NotFound(format string, args ...any) error {
	return &Error{Kind: KindNotFound, Msg: fmt.Sprintf(format, args...)}
}

// Provider wraps a model-provider failure.
func Provider(err error, msg string) error {
	return &Error{Kind: KindProvider, Msg: msg, Err: err}
}

// KindOf reports the taxonomy kind of err, or KindProvider for untyped
// errors, which map to an internal failure at the HTTP boundary.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindProvider
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Kind == kind
}
