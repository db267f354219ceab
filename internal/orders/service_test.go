package orders

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/grandmarche/backend/internal/products"
	"github.com/grandmarche/backend/pkg/db/models"
	"github.com/grandmarche/backend/pkg/enums"
	pkgerrors "github.com/grandmarche/backend/pkg/errors"
	"github.com/grandmarche/backend/pkg/outbox"
	"github.com/grandmarche/backend/pkg/pagination"
)

type fakeRepo struct {
	orders       map[uuid.UUID]*models.Order
	byShortCode  map[string]*models.Order
	entries      []models.OrderStatusEntry
	fieldUpdates []map[string]any
	guardDenied  bool
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		orders:      map[uuid.UUID]*models.Order{},
		byShortCode: map[string]*models.Order{},
	}
}

func (f *fakeRepo) add(order *models.Order) {
	f.orders[order.ID] = order
	f.byShortCode[order.ShortCode] = order
}

func (f *fakeRepo) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepo) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	for i := range order.Items {
		if order.Items[i].ID == uuid.Nil {
			order.Items[i].ID = uuid.New()
		}
	}
	f.add(order)
	return order, nil
}

func (f *fakeRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, ok := f.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *order
	return &clone, nil
}

func (f *fakeRepo) FindByShortCode(ctx context.Context, shortCode string) (*models.Order, error) {
	order, ok := f.byShortCode[shortCode]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *order
	return &clone, nil
}

func (f *fakeRepo) List(ctx context.Context, params pagination.Params, filters ListFilters) (*OrderList, error) {
	return &OrderList{}, nil
}

func (f *fakeRepo) UpdateStatusGuarded(ctx context.Context, id uuid.UUID, expected, next enums.OrderStatus, updates map[string]any) (bool, error) {
	if f.guardDenied {
		return false, nil
	}
	order, ok := f.orders[id]
	if !ok || order.Status != expected {
		return false, nil
	}
	order.Status = next
	return true, nil
}

func (f *fakeRepo) AppendStatusEntry(ctx context.Context, entry *models.OrderStatusEntry) error {
	f.entries = append(f.entries, *entry)
	if order, ok := f.orders[entry.OrderID]; ok {
		order.StatusHistory = append(order.StatusHistory, *entry)
	}
	return nil
}

func (f *fakeRepo) UpdateFields(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	f.fieldUpdates = append(f.fieldUpdates, updates)
	return nil
}

type fakeTx struct{}

func (f *fakeTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(&gorm.DB{})
}

type fakeOutbox struct {
	events []outbox.DomainEvent
}

func (f *fakeOutbox) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	f.events = append(f.events, event)
	return nil
}

type fakeSettler struct {
	settled []uuid.UUID
}

func (f *fakeSettler) Settle(ctx context.Context, tx *gorm.DB, order *models.Order) error {
	f.settled = append(f.settled, order.ID)
	return nil
}

type fakeRefunds struct {
	code  string
	value int64
	calls int
}

func (f *fakeRefunds) IssueRefund(ctx context.Context, tx *gorm.DB, order *models.Order) (string, int64, error) {
	f.calls++
	return f.code, f.value, nil
}

type fakePartners struct {
	pickup *models.User
	zone   *models.User
}

func (f *fakePartners) ResolvePickupPartner(ctx context.Context, pickupPointID uuid.UUID) (*models.User, error) {
	if f.pickup == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return f.pickup, nil
}

func (f *fakePartners) ResolveZonePartner(ctx context.Context, city string, commune *string) (*models.User, error) {
	if f.zone == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return f.zone, nil
}

type fakeFees struct {
	fee int64
}

func (f *fakeFees) Fee(ctx context.Context, method enums.DeliveryMethod, city string, commune *string) (int64, error) {
	if method == enums.DeliveryMethodPickup {
		return 0, nil
	}
	return f.fee, nil
}

type fakeCoupons struct {
	discount int64
	consumed []string
	quoteErr error
}

func (f *fakeCoupons) Quote(ctx context.Context, tx *gorm.DB, code string, subtotal int64) (int64, error) {
	if f.quoteErr != nil {
		return 0, f.quoteErr
	}
	return f.discount, nil
}

func (f *fakeCoupons) Consume(ctx context.Context, tx *gorm.DB, code string, orderID uuid.UUID) error {
	f.consumed = append(f.consumed, code)
	return nil
}

type fakeStock struct {
	reserved [][]products.StockLine
	err      error
}

func (f *fakeStock) Reserve(ctx context.Context, tx *gorm.DB, lines []products.StockLine) error {
	if f.err != nil {
		return f.err
	}
	f.reserved = append(f.reserved, lines)
	return nil
}

type serviceFixture struct {
	repo     *fakeRepo
	outbox   *fakeOutbox
	settler  *fakeSettler
	refunds  *fakeRefunds
	partners *fakePartners
	fees     *fakeFees
	coupons  *fakeCoupons
	stock    *fakeStock
	svc      Service
}

func newFixture(t *testing.T) *serviceFixture {
	t.Helper()
	f := &serviceFixture{
		repo:     newFakeRepo(),
		outbox:   &fakeOutbox{},
		settler:  &fakeSettler{},
		refunds:  &fakeRefunds{code: "REF-ABC123", value: 5000},
		partners: &fakePartners{},
		fees:     &fakeFees{fee: 1500},
		coupons:  &fakeCoupons{},
		stock:    &fakeStock{},
	}
	svc, err := NewService(f.repo, &fakeTx{}, f.outbox, f.settler, f.refunds, f.partners, f.fees, f.coupons, f.stock, nil)
	if err != nil {
		t.Fatalf("unexpected constructor error: %v", err)
	}
	f.svc = svc
	return f
}

func validCreateInput() CreateInput {
	return CreateInput{
		CustomerName:   "Aya Traore",
		CustomerPhone:  "+2250700000030",
		City:           "Abidjan",
		DeliveryMethod: enums.DeliveryMethodHome,
		PaymentMethod:  enums.PaymentMethodCashOnDelivery,
		Items: []ItemInput{
			{ProductID: uuid.New(), Name: "Sac de riz", Quantity: 2, UnitPrice: 5000, Capital: 3000},
		},
	}
}

func TestCreateHomeDeliveryOrder(t *testing.T) {
	f := newFixture(t)
	partner := &models.User{ID: uuid.New()}
	f.partners.zone = partner

	order, err := f.svc.Create(context.Background(), validCreateInput())
	if err != nil {
		t.Fatalf("unexpected create error: %v", err)
	}

	if order.Status != enums.OrderStatusNew {
		t.Fatalf("expected new, got %s", order.Status)
	}
	if order.SubtotalAmount != 10000 {
		t.Fatalf("expected subtotal 10000, got %d", order.SubtotalAmount)
	}
	if order.TotalAmount != 11500 {
		t.Fatalf("expected total 11500, got %d", order.TotalAmount)
	}
	if order.AssignedPartnerID == nil || *order.AssignedPartnerID != partner.ID {
		t.Fatal("zone partner should be assigned")
	}
	// 1.5% of the 10000 subtotal, never the fee.
	if order.CommissionAmount == nil || *order.CommissionAmount != 150 {
		t.Fatalf("expected commission 150, got %v", order.CommissionAmount)
	}
	if len(order.ShortCode) != 6 {
		t.Fatalf("expected 6-char short code, got %q", order.ShortCode)
	}
	if len(f.repo.entries) != 1 || f.repo.entries[0].Status != enums.OrderStatusNew {
		t.Fatal("status history should be seeded with one entry")
	}
	if len(f.stock.reserved) != 1 {
		t.Fatal("stock should be reserved at checkout")
	}
	if len(f.outbox.events) != 1 || f.outbox.events[0].EventType != enums.EventOrderCreated {
		t.Fatal("order_created should be emitted")
	}
}

func TestCreatePickupOrderStartsReady(t *testing.T) {
	f := newFixture(t)
	pickupPoint := uuid.New()
	f.partners.pickup = &models.User{ID: uuid.New(), PickupPointID: &pickupPoint}

	input := validCreateInput()
	input.DeliveryMethod = enums.DeliveryMethodPickup
	input.PickupPointID = &pickupPoint

	order, err := f.svc.Create(context.Background(), input)
	if err != nil {
		t.Fatalf("unexpected create error: %v", err)
	}

	if order.Status != enums.OrderStatusReady {
		t.Fatalf("expected ready, got %s", order.Status)
	}
	if order.CollectionCode == nil || len(*order.CollectionCode) != 4 {
		t.Fatalf("expected 4-digit collection code, got %v", order.CollectionCode)
	}
	if order.DeliveryFeeAmount != 0 {
		t.Fatalf("pickup orders carry no fee, got %d", order.DeliveryFeeAmount)
	}
}

func TestCreateZeroTotalMarksPaid(t *testing.T) {
	f := newFixture(t)
	f.coupons.discount = 999_999
	code := "BIGPROMO"

	input := validCreateInput()
	input.CouponCode = &code

	order, err := f.svc.Create(context.Background(), input)
	if err != nil {
		t.Fatalf("unexpected create error: %v", err)
	}
	if order.TotalAmount != 0 {
		t.Fatalf("discount should be capped at the order value, got total %d", order.TotalAmount)
	}
	if !order.IsPaid {
		t.Fatal("zero-total orders are paid")
	}
	if len(f.coupons.consumed) != 1 || f.coupons.consumed[0] != code {
		t.Fatal("coupon should be consumed inside the checkout transaction")
	}
}

func TestCreateEmptyCartRejected(t *testing.T) {
	f := newFixture(t)

	input := validCreateInput()
	input.Items = nil

	_, err := f.svc.Create(context.Background(), input)
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreateInsufficientStockFailsCheckout(t *testing.T) {
	f := newFixture(t)
	f.stock.err = pkgerrors.New(pkgerrors.CodeConflict, "insufficient stock")

	_, err := f.svc.Create(context.Background(), validCreateInput())
	if !pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestTransitionLegalStep(t *testing.T) {
	f := newFixture(t)
	order := &models.Order{ID: uuid.New(), ShortCode: "AAA111", Status: enums.OrderStatusNew}
	f.repo.add(order)

	updated, err := f.svc.Transition(context.Background(), TransitionInput{
		OrderID: order.ID,
		Status:  enums.OrderStatusProcessing,
	})
	if err != nil {
		t.Fatalf("unexpected transition error: %v", err)
	}
	if updated.Status != enums.OrderStatusProcessing {
		t.Fatalf("expected processing, got %s", updated.Status)
	}
	if len(f.repo.entries) != 1 {
		t.Fatal("history entry should be appended")
	}
	if len(f.outbox.events) != 1 || f.outbox.events[0].EventType != enums.EventOrderStatusChanged {
		t.Fatal("order_status_changed should be emitted")
	}
}

func TestTransitionIllegalStepRejected(t *testing.T) {
	f := newFixture(t)
	order := &models.Order{ID: uuid.New(), ShortCode: "AAA112", Status: enums.OrderStatusNew}
	f.repo.add(order)

	_, err := f.svc.Transition(context.Background(), TransitionInput{
		OrderID: order.ID,
		Status:  enums.OrderStatusDelivered,
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict, got %v", err)
	}
	if len(f.repo.entries) != 0 {
		t.Fatal("illegal transitions must not touch history")
	}
	if len(f.outbox.events) != 0 {
		t.Fatal("illegal transitions must not emit events")
	}
}

func TestTransitionConcurrentWriterLoses(t *testing.T) {
	f := newFixture(t)
	order := &models.Order{ID: uuid.New(), ShortCode: "AAA113", Status: enums.OrderStatusNew}
	f.repo.add(order)
	f.repo.guardDenied = true

	_, err := f.svc.Transition(context.Background(), TransitionInput{
		OrderID: order.ID,
		Status:  enums.OrderStatusProcessing,
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestDeliveredInvokesSettlement(t *testing.T) {
	f := newFixture(t)
	order := &models.Order{ID: uuid.New(), ShortCode: "AAA114", Status: enums.OrderStatusReady}
	f.repo.add(order)

	updated, err := f.svc.Transition(context.Background(), TransitionInput{
		OrderID: order.ID,
		Status:  enums.OrderStatusDelivered,
	})
	if err != nil {
		t.Fatalf("unexpected transition error: %v", err)
	}
	if len(f.settler.settled) != 1 {
		t.Fatal("settlement should fire on delivery")
	}
	if updated.DeliveredAt == nil {
		t.Fatal("delivered_at should be stamped")
	}
}

func TestRefundedIssuesVoucher(t *testing.T) {
	f := newFixture(t)
	order := &models.Order{ID: uuid.New(), ShortCode: "AAA115", Status: enums.OrderStatusReturnProcessing}
	f.repo.add(order)

	updated, err := f.svc.Transition(context.Background(), TransitionInput{
		OrderID: order.ID,
		Status:  enums.OrderStatusRefunded,
	})
	if err != nil {
		t.Fatalf("unexpected transition error: %v", err)
	}
	if f.refunds.calls != 1 {
		t.Fatal("refund voucher should be issued")
	}
	if updated.RefundCouponCode == nil || *updated.RefundCouponCode != "REF-ABC123" {
		t.Fatalf("refund code missing, got %v", updated.RefundCouponCode)
	}
}

func TestCancelFromTerminalRejected(t *testing.T) {
	f := newFixture(t)
	order := &models.Order{ID: uuid.New(), ShortCode: "AAA116", Status: enums.OrderStatusRefunded}
	f.repo.add(order)

	_, err := f.svc.Cancel(context.Background(), order.ID, "changed mind")
	if !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestTrackHidesRedeemedOrders(t *testing.T) {
	f := newFixture(t)
	order := &models.Order{ID: uuid.New(), ShortCode: "AAA117", Status: enums.OrderStatusRefunded, CouponRedeemed: true}
	f.repo.add(order)

	_, err := f.svc.Track(context.Background(), order.ShortCode)
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCollectionCodeHappyPath(t *testing.T) {
	f := newFixture(t)
	code := "4821"
	order := &models.Order{ID: uuid.New(), ShortCode: "AAA118", Status: enums.OrderStatusReady, CollectionCode: &code}
	f.repo.add(order)

	result, err := f.svc.ValidateCollectionCode(context.Background(), order.ShortCode, code)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Valid {
		t.Fatalf("expected valid, got %q", result.Message)
	}
	if len(f.settler.settled) != 1 {
		t.Fatal("collection should settle exactly once")
	}
}

func TestCollectionCodeMismatchHasNoSideEffects(t *testing.T) {
	f := newFixture(t)
	code := "4821"
	order := &models.Order{ID: uuid.New(), ShortCode: "AAA119", Status: enums.OrderStatusReady, CollectionCode: &code}
	f.repo.add(order)

	result, err := f.svc.ValidateCollectionCode(context.Background(), order.ShortCode, "0000")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Valid {
		t.Fatal("mismatch must not validate")
	}
	if f.repo.orders[order.ID].Status != enums.OrderStatusReady {
		t.Fatal("mismatch must not move the order")
	}
	if len(f.outbox.events) != 0 {
		t.Fatal("mismatch must not emit events")
	}
}

func TestCollectionCodeRepeatAfterDeliveryIsNoop(t *testing.T) {
	f := newFixture(t)
	code := "4821"
	order := &models.Order{ID: uuid.New(), ShortCode: "AAA120", Status: enums.OrderStatusDelivered, CollectionCode: &code}
	f.repo.add(order)

	result, err := f.svc.ValidateCollectionCode(context.Background(), order.ShortCode, code)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Valid {
		t.Fatal("repeat of the correct code should stay a success")
	}
	if len(f.settler.settled) != 0 {
		t.Fatal("repeat must not settle again")
	}
}

func TestSubmitReviewOnlyOnce(t *testing.T) {
	f := newFixture(t)
	order := &models.Order{ID: uuid.New(), ShortCode: "AAA121", Status: enums.OrderStatusDelivered}
	f.repo.add(order)

	if err := f.svc.SubmitReview(context.Background(), ReviewInput{ShortCode: order.ShortCode, Rating: 5}); err != nil {
		t.Fatalf("unexpected review error: %v", err)
	}

	reviewedAt := order.CreatedAt
	order.ReviewedAt = &reviewedAt

	err := f.svc.SubmitReview(context.Background(), ReviewInput{ShortCode: order.ShortCode, Rating: 4})
	if !pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
		t.Fatalf("expected conflict on second review, got %v", err)
	}
}

func TestSubmitReviewRatingBounds(t *testing.T) {
	f := newFixture(t)

	err := f.svc.SubmitReview(context.Background(), ReviewInput{ShortCode: "X", Rating: 6})
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSubmitReviewAllowedAfterRefund(t *testing.T) {
	f := newFixture(t)
	order := &models.Order{ID: uuid.New(), ShortCode: "AAA122", Status: enums.OrderStatusRefunded}
	f.repo.add(order)

	if err := f.svc.SubmitReview(context.Background(), ReviewInput{ShortCode: order.ShortCode, Rating: 2}); err != nil {
		t.Fatalf("refunded orders stay reviewable, got %v", err)
	}
}

func TestSubmitReviewRejectedBeforeDelivery(t *testing.T) {
	f := newFixture(t)
	order := &models.Order{ID: uuid.New(), ShortCode: "AAA123", Status: enums.OrderStatusInTransit}
	f.repo.add(order)

	err := f.svc.SubmitReview(context.Background(), ReviewInput{ShortCode: order.ShortCode, Rating: 5})
	if !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestTransitionTxRequiresTransaction(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.TransitionTx(context.Background(), nil, TransitionInput{
		OrderID: uuid.New(),
		Status:  enums.OrderStatusProcessing,
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeInternal) {
		t.Fatalf("expected internal error without a transaction, got %v", err)
	}
}

func TestTransitionTxAppliesWithinCallerTransaction(t *testing.T) {
	f := newFixture(t)
	order := &models.Order{ID: uuid.New(), ShortCode: "AAA124", Status: enums.OrderStatusNew}
	f.repo.add(order)

	updated, err := f.svc.TransitionTx(context.Background(), &gorm.DB{}, TransitionInput{
		OrderID: order.ID,
		Status:  enums.OrderStatusProcessing,
	})
	if err != nil {
		t.Fatalf("unexpected transition error: %v", err)
	}
	if updated.Status != enums.OrderStatusProcessing {
		t.Fatalf("expected processing, got %s", updated.Status)
	}
	if len(f.outbox.events) != 1 {
		t.Fatalf("expected the status change event, got %d", len(f.outbox.events))
	}
}
