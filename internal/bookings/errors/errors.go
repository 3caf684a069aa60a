package errors

import "errors"

var (
	ErrNotFound = errors.New("booking request not found")

	ErrInvalidID = errors.New("invalid booking request ID format")

	// ErrStatusConflict marks a line-item transition whose precondition no
	// longer holds, either because the caller raced another staff action or
	// because the requested transition is not in the state machine.
	ErrStatusConflict = errors.New("line item is not in the required status")

	ErrItemAbsent = errors.New("booking request has no line item of that kind")
)
