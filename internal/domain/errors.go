package domain

import "errors"

// Core error taxonomy. Repositories wrap these with context via fmt.Errorf("%w: ...").
var (
	// ErrValidation is returned for malformed input. Caller's fault, never retried.
	ErrValidation = errors.New("invalid input")

	// ErrNotFound is returned when a referenced entity does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrInvalidState is returned when an operation is attempted from the
	// wrong lifecycle state. Signals a caller ordering bug.
	ErrInvalidState = errors.New("invalid lifecycle state")

	// ErrDuplicatePublication is returned when a publication record already
	// exists for the (idea, channel) pair. Callers should treat this as
	// "already done", not as a failure requiring retry.
	ErrDuplicatePublication = errors.New("idea already published to this channel")
)
