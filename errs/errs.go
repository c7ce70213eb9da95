package errs

import (
	"errors"
	"fmt"
)

// Kind tags an error with the failure category callers branch on.
type Kind string

const (
	// SourceUnavailable: the external generation service is unreachable or errored.
	SourceUnavailable Kind = "source_unavailable"
	// MalformedGeneration: the generation response could not be parsed into the required structure.
	MalformedGeneration Kind = "malformed_generation"
	// ValidationFailed: parsed but semantically invalid input or generation output.
	ValidationFailed Kind = "validation_failed"
	// TransactionAborted: a storage statement failed mid-transaction.
	TransactionAborted Kind = "transaction_aborted"
	// PersistenceFailed: the fallback write path failed after recovery.
	PersistenceFailed Kind = "persistence_failed"
	// InconsistentQuizState: stored quiz data is missing options or a valid correct label.
	InconsistentQuizState Kind = "inconsistent_quiz_state"
	// NotFound: the requested entity does not exist.
	NotFound Kind = "not_found"
	// Internal: anything without a more specific category.
	Internal Kind = "internal"
)

// Error is the single structured error surfaced above the service layer.
type Error struct {
	Kind   Kind
	Detail string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Detail, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Detail: fmt.Sprintf(format, args...), Err: err}
}

// KindOf extracts the kind from err, or Internal when err carries none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
