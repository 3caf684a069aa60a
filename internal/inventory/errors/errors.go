package errors

import (
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
)

var (
	// ErrAssetNotFound is a normal, non-exceptional outcome of identity
	// resolution: the orchestrator skips calendar work and carries on.
	ErrAssetNotFound = errors.New("inventory asset not found")

	// ErrUpdateConflict marks a contended calendar write that should be
	// retried with fresh state.
	ErrUpdateConflict = errors.New("concurrent calendar update conflict")
)

// IsRetryable reports whether a calendar write failure is worth another
// attempt before surfacing a reconciliation gap.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrUpdateConflict) {
		return true
	}
	if mongo.IsTimeout(err) || mongo.IsNetworkError(err) {
		return true
	}

	var serverErr mongo.ServerError
	if errors.As(err, &serverErr) {
		return serverErr.HasErrorLabel("TransientTransactionError") ||
			serverErr.HasErrorLabel("RetryableWriteError")
	}
	return false
}
