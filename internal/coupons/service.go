package coupons

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/grandmarche/backend/pkg/db/models"
	"github.com/grandmarche/backend/pkg/enums"
	pkgerrors "github.com/grandmarche/backend/pkg/errors"
	"github.com/grandmarche/backend/pkg/outbox"
	"github.com/grandmarche/backend/pkg/outbox/payloads"
	"github.com/grandmarche/backend/pkg/security"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// ValidationResult is the redemption-time contract shared by vouchers and
// promo codes. Value carries the voucher amount or the promo discount figure.
type ValidationResult struct {
	Valid   bool   `json:"valid"`
	Kind    string `json:"kind,omitempty"`
	Value   int64  `json:"value,omitempty"`
	Message string `json:"message"`
}

// CreatePromoInput is the operator-facing promo definition.
type CreatePromoInput struct {
	Code           string
	Kind           enums.PromoKind
	Value          int64
	MinSpendAmount *int64
}

// Service is the coupon and voucher ledger.
type Service interface {
	Validate(ctx context.Context, code string) (*ValidationResult, error)
	Quote(ctx context.Context, tx *gorm.DB, code string, subtotal int64) (int64, error)
	Consume(ctx context.Context, tx *gorm.DB, code string, orderID uuid.UUID) error
	IssueRefund(ctx context.Context, tx *gorm.DB, order *models.Order) (string, int64, error)
	Redeem(ctx context.Context, shortCode string) error
	CreatePromo(ctx context.Context, input CreatePromoInput) (*models.PromoCode, error)
	SetPromoActive(ctx context.Context, promoID uuid.UUID, active bool) error
	ListPromos(ctx context.Context) ([]models.PromoCode, error)
	ListVouchers(ctx context.Context, status *enums.VoucherStatus) ([]models.Voucher, error)
}

type service struct {
	repo   Repository
	tx     txRunner
	outbox outboxPublisher
}

// NewService builds the coupon ledger service.
func NewService(repo Repository, tx txRunner, outboxSvc outboxPublisher) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("coupons repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{repo: repo, tx: tx, outbox: outboxSvc}, nil
}

// Validate is a pure lookup: vouchers first, then promo codes. Unknown or
// inactive codes come back invalid with a generic message, never an error.
func (s *service) Validate(ctx context.Context, code string) (*ValidationResult, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "code required")
	}

	voucher, err := s.repo.FindVoucherByCode(ctx, code)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "look up voucher")
	}
	if voucher != nil {
		if voucher.Status != enums.VoucherStatusActive {
			return &ValidationResult{Valid: false, Message: "code is not valid"}, nil
		}
		return &ValidationResult{
			Valid:   true,
			Kind:    "voucher",
			Value:   voucher.ValueAmount,
			Message: "voucher accepted",
		}, nil
	}

	promo, err := s.repo.FindPromoByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &ValidationResult{Valid: false, Message: "code is not valid"}, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "look up promo code")
	}
	if !promo.IsActive {
		return &ValidationResult{Valid: false, Message: "code is not valid"}, nil
	}
	return &ValidationResult{
		Valid:   true,
		Kind:    string(promo.Kind),
		Value:   promo.Value,
		Message: "promo code accepted",
	}, nil
}

// Quote computes the discount a code yields against the given subtotal.
// Called inside the checkout transaction so the voucher state it reads is the
// state Consume will act on.
func (s *service) Quote(ctx context.Context, tx *gorm.DB, code string, subtotal int64) (int64, error) {
	repo := s.repo.WithTx(tx)
	code = strings.TrimSpace(code)

	voucher, err := repo.FindVoucherByCode(ctx, code)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "look up voucher")
	}
	if voucher != nil {
		if voucher.Status != enums.VoucherStatusActive {
			return 0, pkgerrors.New(pkgerrors.CodeValidation, "coupon code is not valid")
		}
		return voucher.ValueAmount, nil
	}

	promo, err := repo.FindPromoByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, pkgerrors.New(pkgerrors.CodeValidation, "coupon code is not valid")
		}
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "look up promo code")
	}
	if !promo.IsActive {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "coupon code is not valid")
	}
	if promo.MinSpendAmount != nil && subtotal < *promo.MinSpendAmount {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "order does not meet the minimum spend for this code")
	}

	switch promo.Kind {
	case enums.PromoKindPercent:
		discount := decimal.NewFromInt(subtotal).
			Mul(decimal.NewFromInt(promo.Value)).
			Div(decimal.NewFromInt(100)).
			Round(0).IntPart()
		return discount, nil
	default:
		return promo.Value, nil
	}
}

// Consume marks a voucher as used by the given order. Promo codes are
// reusable, so consuming one is a no-op.
func (s *service) Consume(ctx context.Context, tx *gorm.DB, code string, orderID uuid.UUID) error {
	repo := s.repo.WithTx(tx)
	code = strings.TrimSpace(code)

	if _, err := repo.FindVoucherByCode(ctx, code); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Promo codes are reusable; nothing to consume.
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "look up voucher")
	}

	consumed, err := repo.ConsumeVoucher(ctx, code, orderID, time.Now().UTC())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "consume voucher")
	}
	if !consumed {
		return pkgerrors.New(pkgerrors.CodeConflict, "voucher already used")
	}
	return nil
}

// IssueRefund creates the refund voucher for a completed return. Idempotent:
// an order that already carries a refund code keeps it.
func (s *service) IssueRefund(ctx context.Context, tx *gorm.DB, order *models.Order) (string, int64, error) {
	if tx == nil {
		return "", 0, pkgerrors.New(pkgerrors.CodeInternal, "refund issuance requires a transaction")
	}
	if order == nil {
		return "", 0, pkgerrors.New(pkgerrors.CodeValidation, "order required")
	}
	if order.RefundCouponCode != nil {
		value := int64(0)
		if order.RefundCouponValue != nil {
			value = *order.RefundCouponValue
		}
		return *order.RefundCouponCode, value, nil
	}

	repo := s.repo.WithTx(tx)
	code, err := security.GenerateRefundCode()
	if err != nil {
		return "", 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate refund code")
	}

	voucher := &models.Voucher{
		Code:          code,
		ValueAmount:   order.TotalAmount,
		Status:        enums.VoucherStatusActive,
		SourceOrderID: &order.ID,
	}
	if _, err := repo.CreateVoucher(ctx, voucher); err != nil {
		return "", 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist refund voucher")
	}

	updates := map[string]any{
		"refund_coupon_code":  code,
		"refund_coupon_value": order.TotalAmount,
	}
	if err := repo.UpdateOrderFields(ctx, order.ID, updates); err != nil {
		return "", 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store refund on order")
	}

	err = s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventRefundIssued,
		AggregateType: enums.AggregateVoucher,
		AggregateID:   voucher.ID,
		Version:       1,
		Data: payloads.RefundIssuedEvent{
			OrderID:        order.ID,
			OrderShortCode: order.ShortCode,
			VoucherCode:    code,
			VoucherValue:   order.TotalAmount,
			PartnerID:      order.AssignedPartnerID,
			CustomerPhone:  order.CustomerPhone,
			IssuedAt:       time.Now().UTC(),
		},
	})
	if err != nil {
		return "", 0, err
	}
	return code, order.TotalAmount, nil
}

// Redeem acknowledges the refund voucher on an order and archives the order
// from public tracking.
func (s *service) Redeem(ctx context.Context, shortCode string) error {
	if strings.TrimSpace(shortCode) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "short code required")
	}
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindOrderByShortCode(ctx, shortCode)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if order.RefundCouponCode == nil {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order has no refund voucher")
		}
		if order.CouponRedeemed {
			return nil
		}
		return repo.UpdateOrderFields(ctx, order.ID, map[string]any{"coupon_redeemed": true})
	})
}

func (s *service) CreatePromo(ctx context.Context, input CreatePromoInput) (*models.PromoCode, error) {
	code := strings.ToUpper(strings.TrimSpace(input.Code))
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "promo code required")
	}
	if !input.Kind.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid promo kind")
	}
	if input.Value <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "promo value must be positive")
	}
	if input.Kind == enums.PromoKindPercent && input.Value > 100 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "percent promo cannot exceed 100")
	}

	promo := &models.PromoCode{
		Code:           code,
		Kind:           input.Kind,
		Value:          input.Value,
		MinSpendAmount: input.MinSpendAmount,
		IsActive:       true,
	}
	created, err := s.repo.CreatePromo(ctx, promo)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist promo code")
	}
	return created, nil
}

func (s *service) SetPromoActive(ctx context.Context, promoID uuid.UUID, active bool) error {
	if promoID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "promo id required")
	}
	if err := s.repo.UpdatePromo(ctx, promoID, map[string]any{"is_active": active}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update promo code")
	}
	return nil
}

func (s *service) ListPromos(ctx context.Context) ([]models.PromoCode, error) {
	promos, err := s.repo.ListPromos(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list promo codes")
	}
	return promos, nil
}

func (s *service) ListVouchers(ctx context.Context, status *enums.VoucherStatus) ([]models.Voucher, error) {
	vouchers, err := s.repo.ListVouchers(ctx, status)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list vouchers")
	}
	return vouchers, nil
}
