package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	bookingserrors "voyara/internal/bookings/errors"
	"voyara/internal/bookings/repository"
	"voyara/internal/bookings/validator"
	"voyara/internal/inventory/calendar"
	inventoryerrors "voyara/internal/inventory/errors"
	"voyara/pkg/config"
	mongotx "voyara/pkg/db/mongo"
	apperrors "voyara/pkg/errors"
	"voyara/pkg/logger"
	"voyara/pkg/model"

	"go.mongodb.org/mongo-driver/mongo"
)

// ────────────────────────────────────────────────
// Mocks
// ────────────────────────────────────────────────

type mockBookingRepository struct {
	findByIDFunc      func(ctx context.Context, id string) (*model.BookingRequest, error)
	setItemStatusFunc func(ctx context.Context, id string, kind model.AssetKind, from, to model.ItemStatus) error
	deleteFunc        func(ctx context.Context, id string) error

	activity []model.ActivityEntry
	deleted  []string
}

func (m *mockBookingRepository) Create(ctx context.Context, booking *model.BookingRequest) error {
	return nil
}

func (m *mockBookingRepository) FindByID(ctx context.Context, id string) (*model.BookingRequest, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, bookingserrors.ErrNotFound
}

func (m *mockBookingRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.BookingRequest, error) {
	return nil, nil
}

func (m *mockBookingRepository) FindByCustomerID(ctx context.Context, customerID string, limit int, offset int64) ([]*model.BookingRequest, error) {
	return nil, nil
}

func (m *mockBookingRepository) Count(ctx context.Context) (int64, error) {
	return 0, nil
}

func (m *mockBookingRepository) Delete(ctx context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}
	return nil
}

func (m *mockBookingRepository) SetItemStatus(ctx context.Context, id string, kind model.AssetKind, from, to model.ItemStatus) error {
	if m.setItemStatusFunc != nil {
		return m.setItemStatusFunc(ctx, id, kind, from, to)
	}
	return nil
}

func (m *mockBookingRepository) SetItemAssetID(ctx context.Context, id string, kind model.AssetKind, assetID string) error {
	return nil
}

func (m *mockBookingRepository) AppendActivity(ctx context.Context, id string, entry model.ActivityEntry) error {
	m.activity = append(m.activity, entry)
	return nil
}

func (m *mockBookingRepository) AppendNote(ctx context.Context, id string, note model.Note) error {
	return nil
}

func (m *mockBookingRepository) Watch(ctx context.Context) (<-chan repository.ChangeEvent, error) {
	return nil, nil
}

func (m *mockBookingRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	var sessCtx mongo.SessionContext
	return fn(sessCtx)
}

type ledgerAdjustment struct {
	customerID string
	deltaCents int64
}

type mockCustomerRepository struct {
	adjustFunc  func(ctx context.Context, id string, deltaCents int64) error
	adjustments []ledgerAdjustment
}

func (m *mockCustomerRepository) FindByID(ctx context.Context, id string) (*model.Customer, error) {
	return nil, nil
}

func (m *mockCustomerRepository) UpsertByEmail(ctx context.Context, customer *model.Customer) error {
	return nil
}

func (m *mockCustomerRepository) AdjustLifetimeValue(ctx context.Context, id string, deltaCents int64) error {
	if m.adjustFunc != nil {
		if err := m.adjustFunc(ctx, id, deltaCents); err != nil {
			return err
		}
	}
	m.adjustments = append(m.adjustments, ledgerAdjustment{customerID: id, deltaCents: deltaCents})
	return nil
}

type mockResolver struct {
	resolveFunc func(ctx context.Context, kind model.AssetKind, storedID, displayName string) (*model.InventoryAsset, error)
}

func (m *mockResolver) Resolve(ctx context.Context, kind model.AssetKind, storedID, displayName string) (*model.InventoryAsset, error) {
	if m.resolveFunc != nil {
		return m.resolveFunc(ctx, kind, storedID, displayName)
	}
	return nil, inventoryerrors.ErrAssetNotFound
}

// fakeAssetStore backs a real reconciler with in-memory set semantics.
type fakeAssetStore struct {
	mu      sync.Mutex
	blocked map[string]map[string]struct{}
}

func newFakeAssetStore() *fakeAssetStore {
	return &fakeAssetStore{blocked: map[string]map[string]struct{}{}}
}

func (f *fakeAssetStore) FindByID(ctx context.Context, id string) (*model.InventoryAsset, error) {
	return nil, inventoryerrors.ErrAssetNotFound
}

func (f *fakeAssetStore) FindByKindAndName(ctx context.Context, kind model.AssetKind, name string) (*model.InventoryAsset, error) {
	return nil, inventoryerrors.ErrAssetNotFound
}

func (f *fakeAssetStore) ListByKind(ctx context.Context, kind model.AssetKind) ([]*model.InventoryAsset, error) {
	return nil, nil
}

func (f *fakeAssetStore) BlockDates(ctx context.Context, id string, days []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	set, ok := f.blocked[id]
	if !ok {
		set = map[string]struct{}{}
		f.blocked[id] = set
	}
	for _, day := range days {
		set[day] = struct{}{}
	}
	return nil
}

func (f *fakeAssetStore) UnblockDates(ctx context.Context, id string, days []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, day := range days {
		delete(f.blocked[id], day)
	}
	return nil
}

func (f *fakeAssetStore) blockedCount(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.blocked[id])
}

func (f *fakeAssetStore) isBlocked(id, day string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.blocked[id][day]
	return ok
}

// ────────────────────────────────────────────────
// Fixtures
// ────────────────────────────────────────────────

type fixture struct {
	repo      *mockBookingRepository
	customers *mockCustomerRepository
	resolver  *mockResolver
	store     *fakeAssetStore
	service   BookingService
}

func newFixture(t *testing.T, repo *mockBookingRepository, customers *mockCustomerRepository, res *mockResolver) *fixture {
	t.Helper()

	log := logger.New(logger.Config{
		Level:   "error",
		Format:  logger.FormatJSON,
		Service: "test",
	})
	cfg := &config.Config{
		Log:          log,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}

	store := newFakeAssetStore()
	reconciler := calendar.NewReconciler(store, log, 2, time.Millisecond)

	svc := NewBookingService(
		repo,
		customers,
		res,
		reconciler,
		validator.NewBookingValidator(log),
		nil,
		cfg,
	)

	return &fixture{
		repo:      repo,
		customers: customers,
		resolver:  res,
		store:     store,
		service:   svc,
	}
}

func villaBooking(status model.ItemStatus) *model.BookingRequest {
	return &model.BookingRequest{
		ID: "bk-1",
		Customer: model.CustomerRef{
			ID:    "cust-1",
			Name:  "Dana Reeves",
			Email: "dana@example.com",
		},
		Villa: &model.LineItem{
			AssetName:  "Villa Azure",
			AssetID:    "asset-villa",
			StartTime:  time.Date(2025, time.June, 1, 15, 0, 0, 0, time.UTC),
			EndTime:    time.Date(2025, time.June, 3, 11, 0, 0, 0, time.UTC),
			PriceCents: 50_000,
			Status:     status,
		},
		GrandTotalCents: 50_000,
	}
}

func resolverFor(asset *model.InventoryAsset) *mockResolver {
	return &mockResolver{
		resolveFunc: func(ctx context.Context, kind model.AssetKind, storedID, displayName string) (*model.InventoryAsset, error) {
			return asset, nil
		},
	}
}

func expectCode(t *testing.T, err error, code string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", code)
	}
	appErr := apperrors.AsAppError(err)
	if appErr.Code != code {
		t.Fatalf("expected %s, got %s (%s)", code, appErr.Code, appErr.Message)
	}
}

func expectConflict(t *testing.T, err error) {
	t.Helper()
	expectCode(t, err, apperrors.CodeConflict)
}

func expectInvalidInput(t *testing.T, err error) {
	t.Helper()
	expectCode(t, err, apperrors.CodeInvalidInput)
}

// ────────────────────────────────────────────────
// ApproveItem
// ────────────────────────────────────────────────

func TestApproveItem_BlocksDaysAndCreditsLedger(t *testing.T) {
	booking := villaBooking(model.ItemPending)
	repo := &mockBookingRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.BookingRequest, error) {
			return booking, nil
		},
		setItemStatusFunc: func(ctx context.Context, id string, kind model.AssetKind, from, to model.ItemStatus) error {
			if from != model.ItemPending || to != model.ItemApproved {
				t.Errorf("expected pending->approved, got %s->%s", from, to)
			}
			return nil
		},
	}
	customers := &mockCustomerRepository{}
	f := newFixture(t, repo, customers, resolverFor(&model.InventoryAsset{ID: "asset-villa", Name: "Villa Azure"}))

	result, err := f.service.ApproveItem(context.Background(), "bk-1", model.KindVilla, "amelia")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.ItemStatus != model.ItemApproved {
		t.Errorf("expected item status approved, got %s", result.ItemStatus)
	}
	if result.BookingStatus != model.BookingApproved {
		t.Errorf("expected booking status approved, got %s", result.BookingStatus)
	}
	if !result.Reconciled || len(result.Gaps) != 0 {
		t.Errorf("expected clean reconciliation, got reconciled=%v gaps=%v", result.Reconciled, result.Gaps)
	}
	if result.LedgerDeltaCents != 50_000 {
		t.Errorf("expected ledger delta 50000, got %d", result.LedgerDeltaCents)
	}

	for _, day := range []string{"2025-06-01", "2025-06-02", "2025-06-03"} {
		if !f.store.isBlocked("asset-villa", day) {
			t.Errorf("expected %s to be blocked", day)
		}
	}
	if got := f.store.blockedCount("asset-villa"); got != 3 {
		t.Errorf("expected exactly 3 blocked days, got %d", got)
	}

	if len(customers.adjustments) != 1 || customers.adjustments[0].deltaCents != 50_000 {
		t.Errorf("expected a single +50000 ledger adjustment, got %v", customers.adjustments)
	}
	if customers.adjustments[0].customerID != "cust-1" {
		t.Errorf("expected adjustment on cust-1, got %s", customers.adjustments[0].customerID)
	}

	if len(repo.activity) != 1 || repo.activity[0].Action != "Approved villa" {
		t.Errorf("expected 'Approved villa' activity, got %v", repo.activity)
	}
	if repo.activity[0].Author != "amelia" {
		t.Errorf("expected actor amelia, got %s", repo.activity[0].Author)
	}
}

func TestApproveItem_MissingAssetIsGapNotFailure(t *testing.T) {
	booking := villaBooking(model.ItemPending)
	booking.Villa.AssetID = ""
	repo := &mockBookingRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.BookingRequest, error) {
			return booking, nil
		},
	}
	customers := &mockCustomerRepository{}
	f := newFixture(t, repo, customers, &mockResolver{}) // resolver always misses

	result, err := f.service.ApproveItem(context.Background(), "bk-1", model.KindVilla, "")
	if err != nil {
		t.Fatalf("asset miss must not fail the approval: %v", err)
	}

	if result.ItemStatus != model.ItemApproved {
		t.Errorf("expected the approval to stand, got %s", result.ItemStatus)
	}
	if result.Reconciled {
		t.Error("expected Reconciled=false on asset miss")
	}
	if len(result.Gaps) != 1 || !strings.Contains(result.Gaps[0], "villa") {
		t.Errorf("expected one villa gap, got %v", result.Gaps)
	}

	// The ledger credit does not depend on calendar resolution.
	if len(customers.adjustments) != 1 || customers.adjustments[0].deltaCents != 50_000 {
		t.Errorf("expected ledger credit despite the gap, got %v", customers.adjustments)
	}
}

func TestApproveItem_RejectsNonPending(t *testing.T) {
	for _, prior := range []model.ItemStatus{model.ItemApproved, model.ItemDeclined} {
		booking := villaBooking(prior)
		repo := &mockBookingRepository{
			findByIDFunc: func(ctx context.Context, id string) (*model.BookingRequest, error) {
				return booking, nil
			},
		}
		f := newFixture(t, repo, &mockCustomerRepository{}, &mockResolver{})

		_, err := f.service.ApproveItem(context.Background(), "bk-1", model.KindVilla, "")
		expectConflict(t, err)
		if len(repo.activity) != 0 {
			t.Errorf("prior=%s: no activity expected on rejected transition", prior)
		}
	}
}

func TestApproveItem_AbsentItem(t *testing.T) {
	booking := villaBooking(model.ItemPending)
	repo := &mockBookingRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.BookingRequest, error) {
			return booking, nil
		},
	}
	f := newFixture(t, repo, &mockCustomerRepository{}, &mockResolver{})

	_, err := f.service.ApproveItem(context.Background(), "bk-1", model.KindYacht, "")
	expectInvalidInput(t, err)
}

func TestApproveItem_ConcurrentStatusChange(t *testing.T) {
	booking := villaBooking(model.ItemPending)
	repo := &mockBookingRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.BookingRequest, error) {
			return booking, nil
		},
		setItemStatusFunc: func(ctx context.Context, id string, kind model.AssetKind, from, to model.ItemStatus) error {
			return bookingserrors.ErrStatusConflict
		},
	}
	customers := &mockCustomerRepository{}
	f := newFixture(t, repo, customers, &mockResolver{})

	_, err := f.service.ApproveItem(context.Background(), "bk-1", model.KindVilla, "")
	expectConflict(t, err)
	if len(customers.adjustments) != 0 {
		t.Errorf("no ledger movement expected on a lost CAS, got %v", customers.adjustments)
	}
}

// ────────────────────────────────────────────────
// DeclineItem
// ────────────────────────────────────────────────

func TestDeclineItem_NoSideEffects(t *testing.T) {
	booking := villaBooking(model.ItemPending)
	repo := &mockBookingRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.BookingRequest, error) {
			return booking, nil
		},
	}
	customers := &mockCustomerRepository{}
	f := newFixture(t, repo, customers, resolverFor(&model.InventoryAsset{ID: "asset-villa"}))

	result, err := f.service.DeclineItem(context.Background(), "bk-1", model.KindVilla, "amelia")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.ItemStatus != model.ItemDeclined {
		t.Errorf("expected declined, got %s", result.ItemStatus)
	}
	if result.BookingStatus != model.BookingDeclined {
		t.Errorf("expected booking declined, got %s", result.BookingStatus)
	}
	if f.store.blockedCount("asset-villa") != 0 {
		t.Error("declining must not touch the calendar")
	}
	if len(customers.adjustments) != 0 {
		t.Errorf("declining must not touch the ledger, got %v", customers.adjustments)
	}
	if len(repo.activity) != 1 || repo.activity[0].Action != "Declined villa" {
		t.Errorf("expected 'Declined villa' activity, got %v", repo.activity)
	}
}

func TestDeclineItem_RejectsApproved(t *testing.T) {
	booking := villaBooking(model.ItemApproved)
	repo := &mockBookingRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.BookingRequest, error) {
			return booking, nil
		},
	}
	f := newFixture(t, repo, &mockCustomerRepository{}, &mockResolver{})

	_, err := f.service.DeclineItem(context.Background(), "bk-1", model.KindVilla, "")
	expectConflict(t, err)
}

// ────────────────────────────────────────────────
// UndoItem
// ────────────────────────────────────────────────

func TestUndoItem_ApprovedCompensates(t *testing.T) {
	booking := villaBooking(model.ItemApproved)
	repo := &mockBookingRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.BookingRequest, error) {
			return booking, nil
		},
	}
	customers := &mockCustomerRepository{}
	f := newFixture(t, repo, customers, resolverFor(&model.InventoryAsset{ID: "asset-villa"}))

	// Seed the blocked days an earlier approval would have written.
	if err := f.store.BlockDates(context.Background(), "asset-villa", []string{"2025-06-01", "2025-06-02", "2025-06-03"}); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	result, err := f.service.UndoItem(context.Background(), "bk-1", model.KindVilla, "amelia")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.ItemStatus != model.ItemPending {
		t.Errorf("expected pending, got %s", result.ItemStatus)
	}
	if result.LedgerDeltaCents != -50_000 {
		t.Errorf("expected ledger delta -50000, got %d", result.LedgerDeltaCents)
	}
	if f.store.blockedCount("asset-villa") != 0 {
		t.Errorf("expected all days unblocked, %d remain", f.store.blockedCount("asset-villa"))
	}
	if len(customers.adjustments) != 1 || customers.adjustments[0].deltaCents != -50_000 {
		t.Errorf("expected a single -50000 adjustment, got %v", customers.adjustments)
	}
	if len(repo.activity) != 1 || repo.activity[0].Action != "Reset villa to pending" {
		t.Errorf("expected reset activity, got %v", repo.activity)
	}
}

func TestUndoItem_DeclinedSkipsCompensation(t *testing.T) {
	booking := villaBooking(model.ItemDeclined)
	repo := &mockBookingRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.BookingRequest, error) {
			return booking, nil
		},
	}
	customers := &mockCustomerRepository{}
	f := newFixture(t, repo, customers, resolverFor(&model.InventoryAsset{ID: "asset-villa"}))

	result, err := f.service.UndoItem(context.Background(), "bk-1", model.KindVilla, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.ItemStatus != model.ItemPending {
		t.Errorf("expected pending, got %s", result.ItemStatus)
	}
	if len(customers.adjustments) != 0 {
		t.Errorf("undoing a decline must not touch the ledger, got %v", customers.adjustments)
	}
	if result.LedgerDeltaCents != 0 {
		t.Errorf("expected zero ledger delta, got %d", result.LedgerDeltaCents)
	}
}

func TestUndoItem_PendingIsConflict(t *testing.T) {
	booking := villaBooking(model.ItemPending)
	repo := &mockBookingRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.BookingRequest, error) {
			return booking, nil
		},
	}
	f := newFixture(t, repo, &mockCustomerRepository{}, &mockResolver{})

	_, err := f.service.UndoItem(context.Background(), "bk-1", model.KindVilla, "")
	expectConflict(t, err)
}

// ────────────────────────────────────────────────
// DeleteBooking
// ────────────────────────────────────────────────

func TestDeleteBooking_ReversesOnlyApprovedItems(t *testing.T) {
	booking := villaBooking(model.ItemApproved)
	booking.Car = &model.LineItem{
		AssetName:  "Roadster",
		AssetID:    "asset-car",
		StartTime:  time.Date(2025, time.June, 1, 9, 0, 0, 0, time.UTC),
		EndTime:    time.Date(2025, time.June, 2, 9, 0, 0, 0, time.UTC),
		PriceCents: 20_000,
		Status:     model.ItemDeclined,
	}
	repo := &mockBookingRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.BookingRequest, error) {
			return booking, nil
		},
	}
	customers := &mockCustomerRepository{}
	f := newFixture(t, repo, customers, resolverFor(&model.InventoryAsset{ID: "asset-villa"}))

	if err := f.store.BlockDates(context.Background(), "asset-villa", []string{"2025-06-01", "2025-06-02", "2025-06-03"}); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	result, err := f.service.DeleteBooking(context.Background(), "bk-1", "amelia")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Only the approved villa is reversed; the declined car never held value.
	if result.LedgerDeltaCents != -50_000 {
		t.Errorf("expected ledger delta -50000, got %d", result.LedgerDeltaCents)
	}
	if len(customers.adjustments) != 1 || customers.adjustments[0].deltaCents != -50_000 {
		t.Errorf("expected one accumulated -50000 adjustment, got %v", customers.adjustments)
	}
	if f.store.blockedCount("asset-villa") != 0 {
		t.Error("expected villa days unblocked")
	}
	if len(repo.deleted) != 1 || repo.deleted[0] != "bk-1" {
		t.Errorf("expected bk-1 deleted, got %v", repo.deleted)
	}
}

func TestDeleteBooking_NoApprovedItemsSkipsLedger(t *testing.T) {
	booking := villaBooking(model.ItemPending)
	repo := &mockBookingRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.BookingRequest, error) {
			return booking, nil
		},
	}
	customers := &mockCustomerRepository{}
	f := newFixture(t, repo, customers, &mockResolver{})

	result, err := f.service.DeleteBooking(context.Background(), "bk-1", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(customers.adjustments) != 0 {
		t.Errorf("no ledger movement expected, got %v", customers.adjustments)
	}
	if !result.Reconciled {
		t.Error("nothing to reconcile, expected Reconciled=true")
	}
	if len(repo.deleted) != 1 {
		t.Errorf("expected the document deleted, got %v", repo.deleted)
	}
}

func TestDeleteBooking_CalendarMissNeverBlocksDelete(t *testing.T) {
	booking := villaBooking(model.ItemApproved)
	repo := &mockBookingRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.BookingRequest, error) {
			return booking, nil
		},
	}
	customers := &mockCustomerRepository{}
	f := newFixture(t, repo, customers, &mockResolver{}) // resolver always misses

	result, err := f.service.DeleteBooking(context.Background(), "bk-1", "")
	if err != nil {
		t.Fatalf("calendar miss must not block the delete: %v", err)
	}

	if result.Reconciled {
		t.Error("expected Reconciled=false on calendar miss")
	}
	if len(result.Gaps) != 1 {
		t.Errorf("expected one gap, got %v", result.Gaps)
	}
	if len(repo.deleted) != 1 {
		t.Errorf("expected the document deleted anyway, got %v", repo.deleted)
	}
	if len(customers.adjustments) != 1 || customers.adjustments[0].deltaCents != -50_000 {
		t.Errorf("ledger reversal must still happen, got %v", customers.adjustments)
	}
}

func TestDeleteBooking_NotFound(t *testing.T) {
	repo := &mockBookingRepository{}
	f := newFixture(t, repo, &mockCustomerRepository{}, &mockResolver{})

	_, err := f.service.DeleteBooking(context.Background(), "missing", "")
	expectCode(t, err, apperrors.CodeNotFound)
}
