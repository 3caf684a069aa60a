package calendar

import (
	"context"
	"time"

	inventoryerrors "voyara/internal/inventory/errors"
	"voyara/internal/inventory/repository"
	"voyara/pkg/logger"
)

// Reconciler keeps an asset's blocked-dates set consistent with approved line
// items. The union/difference itself is atomic in the store; the reconciler
// adds a bounded retry for contended or transient failures before the caller
// has to record a reconciliation gap.
type Reconciler struct {
	repo        repository.AssetRepository
	log         *logger.Logger
	maxAttempts int
	retryDelay  time.Duration
}

func NewReconciler(repo repository.AssetRepository, log *logger.Logger, maxAttempts int, retryDelay time.Duration) *Reconciler {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Reconciler{
		repo:        repo,
		log:         log,
		maxAttempts: maxAttempts,
		retryDelay:  retryDelay,
	}
}

// Block merges days into the asset's blocked set. Blocking already-blocked
// days is a no-op by construction.
func (r *Reconciler) Block(ctx context.Context, assetID string, days []string) error {
	return r.mergeWithRetry(ctx, assetID, days, "block", r.repo.BlockDates)
}

// Unblock removes days from the asset's blocked set. Days this engine never
// blocked (manual holds, other bookings) are not listed and therefore
// survive; unblocking absent days is a no-op.
func (r *Reconciler) Unblock(ctx context.Context, assetID string, days []string) error {
	return r.mergeWithRetry(ctx, assetID, days, "unblock", r.repo.UnblockDates)
}

func (r *Reconciler) mergeWithRetry(
	ctx context.Context,
	assetID string,
	days []string,
	op string,
	merge func(ctx context.Context, id string, days []string) error,
) error {
	if len(days) == 0 {
		return nil
	}

	var lastErr error
	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		lastErr = merge(ctx, assetID, days)
		if lastErr == nil {
			if attempt > 1 {
				r.log.Info("Calendar reconciliation succeeded after retry",
					"op", op,
					"asset_id", assetID,
					"attempt", attempt,
				)
			}
			return nil
		}

		if !inventoryerrors.IsRetryable(lastErr) {
			return lastErr
		}

		r.log.Warn("Calendar reconciliation attempt failed",
			"op", op,
			"asset_id", assetID,
			"attempt", attempt,
			"max_attempts", r.maxAttempts,
			"error", lastErr,
		)

		if attempt < r.maxAttempts {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(r.retryDelay):
			}
		}
	}

	return lastErr
}
