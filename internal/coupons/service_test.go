package coupons

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/grandmarche/backend/pkg/db/models"
	"github.com/grandmarche/backend/pkg/enums"
	pkgerrors "github.com/grandmarche/backend/pkg/errors"
	"github.com/grandmarche/backend/pkg/outbox"
)

type fakeRepo struct {
	vouchers     map[string]*models.Voucher
	promos       map[string]*models.PromoCode
	orders       map[string]*models.Order
	orderUpdates map[uuid.UUID]map[string]any
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		vouchers:     map[string]*models.Voucher{},
		promos:       map[string]*models.PromoCode{},
		orders:       map[string]*models.Order{},
		orderUpdates: map[uuid.UUID]map[string]any{},
	}
}

func (f *fakeRepo) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepo) FindVoucherByCode(ctx context.Context, code string) (*models.Voucher, error) {
	voucher, ok := f.vouchers[code]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *voucher
	return &clone, nil
}

func (f *fakeRepo) CreateVoucher(ctx context.Context, voucher *models.Voucher) (*models.Voucher, error) {
	voucher.ID = uuid.New()
	f.vouchers[voucher.Code] = voucher
	return voucher, nil
}

func (f *fakeRepo) ConsumeVoucher(ctx context.Context, code string, orderID uuid.UUID, at time.Time) (bool, error) {
	voucher, ok := f.vouchers[code]
	if !ok || voucher.Status != enums.VoucherStatusActive {
		return false, nil
	}
	voucher.Status = enums.VoucherStatusUsed
	voucher.UsedOrderID = &orderID
	voucher.UsedAt = &at
	return true, nil
}

func (f *fakeRepo) FindPromoByCode(ctx context.Context, code string) (*models.PromoCode, error) {
	promo, ok := f.promos[code]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *promo
	return &clone, nil
}

func (f *fakeRepo) CreatePromo(ctx context.Context, promo *models.PromoCode) (*models.PromoCode, error) {
	promo.ID = uuid.New()
	f.promos[promo.Code] = promo
	return promo, nil
}

func (f *fakeRepo) UpdatePromo(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	for _, promo := range f.promos {
		if promo.ID == id {
			if active, ok := updates["is_active"].(bool); ok {
				promo.IsActive = active
			}
		}
	}
	return nil
}

func (f *fakeRepo) ListPromos(ctx context.Context) ([]models.PromoCode, error) {
	out := make([]models.PromoCode, 0, len(f.promos))
	for _, promo := range f.promos {
		out = append(out, *promo)
	}
	return out, nil
}

func (f *fakeRepo) ListVouchers(ctx context.Context, status *enums.VoucherStatus) ([]models.Voucher, error) {
	out := make([]models.Voucher, 0, len(f.vouchers))
	for _, voucher := range f.vouchers {
		if status != nil && voucher.Status != *status {
			continue
		}
		out = append(out, *voucher)
	}
	return out, nil
}

func (f *fakeRepo) FindOrderByShortCode(ctx context.Context, shortCode string) (*models.Order, error) {
	order, ok := f.orders[shortCode]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *order
	return &clone, nil
}

func (f *fakeRepo) UpdateOrderFields(ctx context.Context, orderID uuid.UUID, updates map[string]any) error {
	f.orderUpdates[orderID] = updates
	for _, order := range f.orders {
		if order.ID != orderID {
			continue
		}
		if redeemed, ok := updates["coupon_redeemed"].(bool); ok {
			order.CouponRedeemed = redeemed
		}
	}
	return nil
}

type fakeTx struct{}

func (f *fakeTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(&gorm.DB{})
}

type captureOutbox struct {
	events []outbox.DomainEvent
}

func (c *captureOutbox) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	c.events = append(c.events, event)
	return nil
}

func newTestService(t *testing.T, repo Repository, sink *captureOutbox) Service {
	t.Helper()
	svc, err := NewService(repo, &fakeTx{}, sink)
	if err != nil {
		t.Fatalf("unexpected constructor error: %v", err)
	}
	return svc
}

func activeVoucher(code string, value int64) *models.Voucher {
	return &models.Voucher{
		ID:          uuid.New(),
		Code:        code,
		ValueAmount: value,
		Status:      enums.VoucherStatusActive,
	}
}

func TestValidateVoucher(t *testing.T) {
	repo := newFakeRepo()
	repo.vouchers["REF-ABC123"] = activeVoucher("REF-ABC123", 4500)
	svc := newTestService(t, repo, &captureOutbox{})

	result, err := svc.Validate(context.Background(), "REF-ABC123")
	if err != nil {
		t.Fatalf("unexpected validate error: %v", err)
	}
	if !result.Valid || result.Kind != "voucher" || result.Value != 4500 {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestValidateUsedVoucherRejected(t *testing.T) {
	repo := newFakeRepo()
	used := activeVoucher("REF-OLD001", 2000)
	used.Status = enums.VoucherStatusUsed
	repo.vouchers[used.Code] = used
	svc := newTestService(t, repo, &captureOutbox{})

	result, err := svc.Validate(context.Background(), "REF-OLD001")
	if err != nil {
		t.Fatalf("unexpected validate error: %v", err)
	}
	if result.Valid {
		t.Fatal("used vouchers must not validate")
	}
	if result.Message != "code is not valid" {
		t.Fatalf("unexpected message %q", result.Message)
	}
}

func TestValidateUnknownCodeIsNotAnError(t *testing.T) {
	svc := newTestService(t, newFakeRepo(), &captureOutbox{})

	result, err := svc.Validate(context.Background(), "NOPE99")
	if err != nil {
		t.Fatalf("unknown codes must not error: %v", err)
	}
	if result.Valid {
		t.Fatal("unknown codes must come back invalid")
	}
}

func TestQuotePercentPromo(t *testing.T) {
	repo := newFakeRepo()
	repo.promos["FETE10"] = &models.PromoCode{
		ID:       uuid.New(),
		Code:     "FETE10",
		Kind:     enums.PromoKindPercent,
		Value:    10,
		IsActive: true,
	}
	svc := newTestService(t, repo, &captureOutbox{})

	discount, err := svc.Quote(context.Background(), &gorm.DB{}, "FETE10", 12500)
	if err != nil {
		t.Fatalf("unexpected quote error: %v", err)
	}
	if discount != 1250 {
		t.Fatalf("expected 1250, got %d", discount)
	}
}

func TestQuoteFixedPromoBelowMinSpend(t *testing.T) {
	minSpend := int64(10000)
	repo := newFakeRepo()
	repo.promos["BIENVENUE"] = &models.PromoCode{
		ID:             uuid.New(),
		Code:           "BIENVENUE",
		Kind:           enums.PromoKindFixed,
		Value:          2000,
		MinSpendAmount: &minSpend,
		IsActive:       true,
	}
	svc := newTestService(t, repo, &captureOutbox{})

	if _, err := svc.Quote(context.Background(), &gorm.DB{}, "BIENVENUE", 8000); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	discount, err := svc.Quote(context.Background(), &gorm.DB{}, "BIENVENUE", 10000)
	if err != nil {
		t.Fatalf("unexpected quote error: %v", err)
	}
	if discount != 2000 {
		t.Fatalf("expected 2000, got %d", discount)
	}
}

func TestQuoteVoucherReturnsFullValue(t *testing.T) {
	repo := newFakeRepo()
	repo.vouchers["REF-QWE987"] = activeVoucher("REF-QWE987", 7000)
	svc := newTestService(t, repo, &captureOutbox{})

	discount, err := svc.Quote(context.Background(), &gorm.DB{}, "REF-QWE987", 3000)
	if err != nil {
		t.Fatalf("unexpected quote error: %v", err)
	}
	if discount != 7000 {
		t.Fatalf("expected voucher value 7000, got %d", discount)
	}
}

func TestConsumeVoucherSingleUse(t *testing.T) {
	repo := newFakeRepo()
	repo.vouchers["REF-ONCE01"] = activeVoucher("REF-ONCE01", 3000)
	svc := newTestService(t, repo, &captureOutbox{})

	firstOrder := uuid.New()
	if err := svc.Consume(context.Background(), &gorm.DB{}, "REF-ONCE01", firstOrder); err != nil {
		t.Fatalf("first consume: %v", err)
	}
	if repo.vouchers["REF-ONCE01"].Status != enums.VoucherStatusUsed {
		t.Fatal("voucher should be flipped to used")
	}

	err := svc.Consume(context.Background(), &gorm.DB{}, "REF-ONCE01", uuid.New())
	if !pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
		t.Fatalf("expected conflict on second consume, got %v", err)
	}
	if *repo.vouchers["REF-ONCE01"].UsedOrderID != firstOrder {
		t.Fatal("the first order keeps the voucher")
	}
}

func TestConsumePromoIsNoop(t *testing.T) {
	repo := newFakeRepo()
	repo.promos["FETE10"] = &models.PromoCode{ID: uuid.New(), Code: "FETE10", Kind: enums.PromoKindPercent, Value: 10, IsActive: true}
	svc := newTestService(t, repo, &captureOutbox{})

	if err := svc.Consume(context.Background(), &gorm.DB{}, "FETE10", uuid.New()); err != nil {
		t.Fatalf("promo consume should be a no-op: %v", err)
	}
	if err := svc.Consume(context.Background(), &gorm.DB{}, "FETE10", uuid.New()); err != nil {
		t.Fatalf("promo stays reusable: %v", err)
	}
}

func TestIssueRefundCreatesVoucherAndEvent(t *testing.T) {
	repo := newFakeRepo()
	sink := &captureOutbox{}
	svc := newTestService(t, repo, sink)

	order := &models.Order{
		ID:          uuid.New(),
		ShortCode:   "RFD001",
		TotalAmount: 9500,
	}
	code, value, err := svc.IssueRefund(context.Background(), &gorm.DB{}, order)
	if err != nil {
		t.Fatalf("unexpected refund error: %v", err)
	}
	if value != 9500 {
		t.Fatalf("voucher must carry the full order total, got %d", value)
	}

	voucher, ok := repo.vouchers[code]
	if !ok {
		t.Fatalf("voucher %q was not persisted", code)
	}
	if voucher.Status != enums.VoucherStatusActive {
		t.Fatalf("refund voucher must start active, got %s", voucher.Status)
	}
	if voucher.SourceOrderID == nil || *voucher.SourceOrderID != order.ID {
		t.Fatal("voucher must point back at the refunded order")
	}

	updates := repo.orderUpdates[order.ID]
	if updates["refund_coupon_code"] != code {
		t.Fatalf("order should record the refund code, got %v", updates["refund_coupon_code"])
	}

	if len(sink.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(sink.events))
	}
	event := sink.events[0]
	if event.EventType != enums.EventRefundIssued {
		t.Fatalf("unexpected event type %s", event.EventType)
	}
	if event.AggregateType != enums.AggregateVoucher {
		t.Fatalf("unexpected aggregate %s", event.AggregateType)
	}
}

func TestIssueRefundIdempotent(t *testing.T) {
	existing := "REF-KEPT01"
	value := int64(4000)
	sink := &captureOutbox{}
	svc := newTestService(t, newFakeRepo(), sink)

	order := &models.Order{
		ID:                uuid.New(),
		TotalAmount:       4000,
		RefundCouponCode:  &existing,
		RefundCouponValue: &value,
	}
	code, got, err := svc.IssueRefund(context.Background(), &gorm.DB{}, order)
	if err != nil {
		t.Fatalf("unexpected refund error: %v", err)
	}
	if code != existing || got != 4000 {
		t.Fatalf("existing refund must be returned as-is, got %s/%d", code, got)
	}
	if len(sink.events) != 0 {
		t.Fatal("no new event for an already-issued refund")
	}
}

func TestIssueRefundRequiresTransaction(t *testing.T) {
	svc := newTestService(t, newFakeRepo(), &captureOutbox{})

	_, _, err := svc.IssueRefund(context.Background(), nil, &models.Order{ID: uuid.New()})
	if !pkgerrors.IsCode(err, pkgerrors.CodeInternal) {
		t.Fatalf("expected internal error, got %v", err)
	}
}

func TestRedeemMarksOrder(t *testing.T) {
	code := "REF-USE001"
	repo := newFakeRepo()
	repo.orders["RDM001"] = &models.Order{
		ID:               uuid.New(),
		ShortCode:        "RDM001",
		RefundCouponCode: &code,
	}
	svc := newTestService(t, repo, &captureOutbox{})

	if err := svc.Redeem(context.Background(), "RDM001"); err != nil {
		t.Fatalf("unexpected redeem error: %v", err)
	}
	if !repo.orders["RDM001"].CouponRedeemed {
		t.Fatal("order should be marked redeemed")
	}

	// Acknowledging twice is harmless.
	if err := svc.Redeem(context.Background(), "RDM001"); err != nil {
		t.Fatalf("second redeem should be a no-op: %v", err)
	}
}

func TestRedeemWithoutRefundVoucher(t *testing.T) {
	repo := newFakeRepo()
	repo.orders["RDM002"] = &models.Order{ID: uuid.New(), ShortCode: "RDM002"}
	svc := newTestService(t, repo, &captureOutbox{})

	err := svc.Redeem(context.Background(), "RDM002")
	if !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestRedeemUnknownOrder(t *testing.T) {
	svc := newTestService(t, newFakeRepo(), &captureOutbox{})

	err := svc.Redeem(context.Background(), "GHOST1")
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCreatePromoUppercasesCode(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(t, repo, &captureOutbox{})

	promo, err := svc.CreatePromo(context.Background(), CreatePromoInput{
		Code:  " fete10 ",
		Kind:  enums.PromoKindPercent,
		Value: 10,
	})
	if err != nil {
		t.Fatalf("unexpected create error: %v", err)
	}
	if promo.Code != "FETE10" {
		t.Fatalf("expected FETE10, got %q", promo.Code)
	}
	if !promo.IsActive {
		t.Fatal("new promos start active")
	}
}

func TestCreatePromoPercentOverHundred(t *testing.T) {
	svc := newTestService(t, newFakeRepo(), &captureOutbox{})

	_, err := svc.CreatePromo(context.Background(), CreatePromoInput{
		Code:  "TROP",
		Kind:  enums.PromoKindPercent,
		Value: 150,
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSetPromoActiveTogglesListing(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(t, repo, &captureOutbox{})

	promo, err := svc.CreatePromo(context.Background(), CreatePromoInput{
		Code:  "PAUSE",
		Kind:  enums.PromoKindFixed,
		Value: 500,
	})
	if err != nil {
		t.Fatalf("create promo: %v", err)
	}

	if err := svc.SetPromoActive(context.Background(), promo.ID, false); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	result, err := svc.Validate(context.Background(), "PAUSE")
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if result.Valid {
		t.Fatal("deactivated promos must not validate")
	}
}
