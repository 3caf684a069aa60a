package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	bookingserrors "voyara/internal/bookings/errors"
	"voyara/internal/bookings/status"
	"voyara/internal/inventory/calendar"
	inventoryerrors "voyara/internal/inventory/errors"
	apperrors "voyara/pkg/errors"
	"voyara/pkg/model"
	"voyara/pkg/pricing"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
)

// TransitionResult reports a lifecycle operation's outcome. The status
// mutation and the calendar/ledger side effects succeed or fail
// independently: Reconciled is false when any calendar or ledger step was
// skipped or failed, with one Gaps entry per miss. The status change itself
// is never rolled back because of a reconciliation gap.
type TransitionResult struct {
	BookingID        string              `json:"booking_id"`
	Kind             model.AssetKind     `json:"kind,omitempty"`
	ItemStatus       model.ItemStatus    `json:"item_status,omitempty"`
	BookingStatus    model.BookingStatus `json:"booking_status,omitempty"`
	LedgerDeltaCents int64               `json:"ledger_delta_cents"`
	Reconciled       bool                `json:"reconciled"`
	Gaps             []string            `json:"gaps,omitempty"`
}

func (r *TransitionResult) addGap(format string, args ...any) {
	r.Reconciled = false
	r.Gaps = append(r.Gaps, fmt.Sprintf(format, args...))
}

// ApproveItem transitions a pending line item to approved, blocks the
// asset's calendar days, credits the customer ledger, and records the
// action. A failed calendar or ledger step becomes a gap, not a rollback.
func (s *bookingService) ApproveItem(ctx context.Context, id string, kind model.AssetKind, actor string) (*TransitionResult, error) {
	booking, item, err := s.loadItem(ctx, id, kind)
	if err != nil {
		return nil, err
	}

	if item.Status != model.ItemPending {
		// Approved <-> declined never happens directly; staff must reset to
		// pending first.
		return nil, apperrors.Conflict(fmt.Sprintf("Only a pending %s can be approved (currently %s)", kind, item.Status))
	}

	if err := s.repo.SetItemStatus(ctx, id, kind, model.ItemPending, model.ItemApproved); err != nil {
		return nil, s.mapTransitionError(err, id, kind)
	}
	item.Status = model.ItemApproved

	result := &TransitionResult{
		BookingID:  id,
		Kind:       kind,
		ItemStatus: model.ItemApproved,
		Reconciled: true,
	}

	days := calendar.ExpandDays(item.StartTime, item.EndTime)
	s.blockItemDays(ctx, booking, kind, item, days, result)

	if err := s.customers.AdjustLifetimeValue(ctx, booking.Customer.ID, item.PriceCents); err != nil {
		s.cfg.Log.Error("Failed to credit customer ledger",
			"id", id,
			"customer_id", booking.Customer.ID,
			"delta_cents", item.PriceCents,
			"error", err,
		)
		result.addGap("ledger credit of %s missed for customer %s", pricing.FormatCents(item.PriceCents), booking.Customer.ID)
	} else {
		result.LedgerDeltaCents = item.PriceCents
	}

	s.appendActivity(ctx, id, fmt.Sprintf("Approved %s", kind), actor)

	result.BookingStatus = status.DeriveBooking(booking, time.Now().UTC())
	s.logTransition("approve", result)
	return result, nil
}

// DeclineItem transitions a pending line item to declined. Declining never
// touches the calendar or the ledger: a pending item holds no claim yet.
func (s *bookingService) DeclineItem(ctx context.Context, id string, kind model.AssetKind, actor string) (*TransitionResult, error) {
	booking, item, err := s.loadItem(ctx, id, kind)
	if err != nil {
		return nil, err
	}

	if item.Status != model.ItemPending {
		return nil, apperrors.Conflict(fmt.Sprintf("Only a pending %s can be declined (currently %s)", kind, item.Status))
	}

	if err := s.repo.SetItemStatus(ctx, id, kind, model.ItemPending, model.ItemDeclined); err != nil {
		return nil, s.mapTransitionError(err, id, kind)
	}
	item.Status = model.ItemDeclined

	s.appendActivity(ctx, id, fmt.Sprintf("Declined %s", kind), actor)

	result := &TransitionResult{
		BookingID:     id,
		Kind:          kind,
		ItemStatus:    model.ItemDeclined,
		BookingStatus: status.DeriveBooking(booking, time.Now().UTC()),
		Reconciled:    true,
	}
	s.logTransition("decline", result)
	return result, nil
}

// UndoItem resets an approved or declined line item to pending. When the
// prior status was approved, the asset's days are unblocked and the ledger
// credit is reversed.
func (s *bookingService) UndoItem(ctx context.Context, id string, kind model.AssetKind, actor string) (*TransitionResult, error) {
	booking, item, err := s.loadItem(ctx, id, kind)
	if err != nil {
		return nil, err
	}

	prior := item.Status
	if prior == model.ItemPending {
		return nil, apperrors.Conflict(fmt.Sprintf("The %s item is already pending", kind))
	}

	if err := s.repo.SetItemStatus(ctx, id, kind, prior, model.ItemPending); err != nil {
		return nil, s.mapTransitionError(err, id, kind)
	}
	item.Status = model.ItemPending

	result := &TransitionResult{
		BookingID:  id,
		Kind:       kind,
		ItemStatus: model.ItemPending,
		Reconciled: true,
	}

	if prior == model.ItemApproved {
		days := calendar.ExpandDays(item.StartTime, item.EndTime)
		s.unblockItemDays(ctx, kind, item, days, result)

		if err := s.customers.AdjustLifetimeValue(ctx, booking.Customer.ID, -item.PriceCents); err != nil {
			s.cfg.Log.Error("Failed to reverse customer ledger credit",
				"id", id,
				"customer_id", booking.Customer.ID,
				"delta_cents", -item.PriceCents,
				"error", err,
			)
			result.addGap("ledger reversal of %s missed for customer %s", pricing.FormatCents(item.PriceCents), booking.Customer.ID)
		} else {
			result.LedgerDeltaCents = -item.PriceCents
		}
	}

	s.appendActivity(ctx, id, fmt.Sprintf("Reset %s to pending", kind), actor)

	result.BookingStatus = status.DeriveBooking(booking, time.Now().UTC())
	s.logTransition("undo", result)
	return result, nil
}

// DeleteBooking removes a booking request. Every currently approved line
// item's days are unblocked first, best-effort; the accumulated ledger
// reversal and the document deletion then commit together. A failed calendar
// cleanup never blocks the delete.
func (s *bookingService) DeleteBooking(ctx context.Context, id string, actor string) (*TransitionResult, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapRepoError(err, id)
	}

	result := &TransitionResult{
		BookingID:  id,
		Reconciled: true,
	}

	var refundCents int64
	for kind, item := range booking.Items() {
		if item.Status != model.ItemApproved {
			continue
		}
		refundCents += item.PriceCents

		days := calendar.ExpandDays(item.StartTime, item.EndTime)
		s.unblockItemDays(ctx, kind, item, days, result)
	}

	// One accumulated decrement, atomic with the deletion so the ledger can
	// never double-reverse a booking that is already gone.
	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if refundCents > 0 && booking.Customer.ID != "" {
			if err := s.customers.AdjustLifetimeValue(sessCtx, booking.Customer.ID, -refundCents); err != nil {
				return apperrors.Internal("Failed to reverse customer ledger", err)
			}
		}
		if err := s.repo.Delete(sessCtx, id); err != nil {
			if errors.Is(err, bookingserrors.ErrNotFound) {
				return apperrors.NotFoundWithID("Booking request", id)
			}
			return apperrors.Internal("Failed to delete booking request", err)
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to delete booking request", "id", id, "error", err)
		return nil, err
	}
	result.LedgerDeltaCents = -refundCents

	s.cfg.Log.Info("Booking request deleted",
		"id", id,
		"actor", defaultActor(actor),
		"refund_cents", refundCents,
		"reconciled", result.Reconciled,
	)
	return result, nil
}

// --- Shared lifecycle plumbing ---

func (s *bookingService) loadItem(ctx context.Context, id string, kind model.AssetKind) (*model.BookingRequest, *model.LineItem, error) {
	if id == "" {
		return nil, nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, nil, s.mapRepoError(err, id)
	}

	item := booking.Item(kind)
	if item == nil {
		return nil, nil, apperrors.InvalidInput(fmt.Sprintf("Booking has no %s line item", kind))
	}

	return booking, item, nil
}

// blockItemDays resolves the item's asset and merges its days into the
// blocked set. A missing asset or a failed merge is recorded as a gap; the
// approval stands either way.
func (s *bookingService) blockItemDays(ctx context.Context, booking *model.BookingRequest, kind model.AssetKind, item *model.LineItem, days []string, result *TransitionResult) {
	asset := s.resolveItemAsset(ctx, booking.ID, kind, item, result)
	if asset == nil {
		return
	}

	if err := s.reconciler.Block(ctx, asset.ID, days); err != nil {
		s.cfg.Log.Error("Failed to block asset calendar days",
			"id", booking.ID,
			"asset_id", asset.ID,
			"days", len(days),
			"error", err,
		)
		result.addGap("calendar block failed for %s %q", kind, item.AssetName)
	}
}

func (s *bookingService) unblockItemDays(ctx context.Context, kind model.AssetKind, item *model.LineItem, days []string, result *TransitionResult) {
	asset := s.resolveItemAsset(ctx, result.BookingID, kind, item, result)
	if asset == nil {
		return
	}

	if err := s.reconciler.Unblock(ctx, asset.ID, days); err != nil {
		s.cfg.Log.Error("Failed to unblock asset calendar days",
			"id", result.BookingID,
			"asset_id", asset.ID,
			"days", len(days),
			"error", err,
		)
		result.addGap("calendar unblock failed for %s %q", kind, item.AssetName)
	}
}

func (s *bookingService) resolveItemAsset(ctx context.Context, bookingID string, kind model.AssetKind, item *model.LineItem, result *TransitionResult) *model.InventoryAsset {
	asset, err := s.resolver.Resolve(ctx, kind, item.AssetID, item.AssetName)
	if err != nil {
		if errors.Is(err, inventoryerrors.ErrAssetNotFound) {
			s.cfg.Log.Warn("Asset not found during reconciliation",
				"id", bookingID,
				"kind", kind,
				"asset_name", item.AssetName,
			)
			result.addGap("calendar step skipped: no %s asset matches %q", kind, item.AssetName)
		} else {
			s.cfg.Log.Error("Asset lookup failed during reconciliation",
				"id", bookingID,
				"kind", kind,
				"asset_name", item.AssetName,
				"error", err,
			)
			result.addGap("calendar step failed: %s asset lookup error", kind)
		}
		return nil
	}

	if item.AssetID == "" {
		// Cache the name-resolved id so the next operation takes the O(1)
		// path. Losing this write is only a perf regression.
		if err := s.repo.SetItemAssetID(ctx, bookingID, kind, asset.ID); err != nil {
			s.cfg.Log.Warn("Failed to persist resolved asset id",
				"id", bookingID,
				"kind", kind,
				"asset_id", asset.ID,
				"error", err,
			)
		}
		item.AssetID = asset.ID
	}

	return asset
}

func (s *bookingService) appendActivity(ctx context.Context, id string, action string, actor string) {
	entry := model.ActivityEntry{
		ID:        uuid.New().String(),
		Action:    action,
		Author:    defaultActor(actor),
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
	}
	if err := s.repo.AppendActivity(ctx, id, entry); err != nil {
		s.cfg.Log.Error("Failed to append activity entry", "id", id, "action", action, "error", err)
	}
}

func (s *bookingService) mapTransitionError(err error, id string, kind model.AssetKind) error {
	switch {
	case errors.Is(err, bookingserrors.ErrStatusConflict):
		return apperrors.Conflict(fmt.Sprintf("The %s item changed status concurrently; reload and retry", kind))
	case errors.Is(err, bookingserrors.ErrNotFound):
		return apperrors.NotFoundWithID("Booking request", id)
	case errors.Is(err, bookingserrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid booking ID format")
	default:
		return apperrors.Internal("Booking store operation failed", err)
	}
}

func (s *bookingService) logTransition(op string, result *TransitionResult) {
	s.cfg.Log.Info("Line item transition completed",
		"op", op,
		"id", result.BookingID,
		"kind", result.Kind,
		"item_status", result.ItemStatus,
		"booking_status", result.BookingStatus,
		"reconciled", result.Reconciled,
		"gaps", len(result.Gaps),
	)
}
