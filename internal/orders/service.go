package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/grandmarche/backend/internal/products"
	"github.com/grandmarche/backend/pkg/db/models"
	"github.com/grandmarche/backend/pkg/enums"
	pkgerrors "github.com/grandmarche/backend/pkg/errors"
	"github.com/grandmarche/backend/pkg/metrics"
	"github.com/grandmarche/backend/pkg/outbox"
	"github.com/grandmarche/backend/pkg/outbox/payloads"
	"github.com/grandmarche/backend/pkg/pagination"
	"github.com/grandmarche/backend/pkg/security"
)

// commissionRate is the partner cut of the item subtotal.
var commissionRate = decimal.NewFromFloat(0.015)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Settler creates the financial record for a delivered order. It must be
// idempotent across repeated delivery transitions.
type Settler interface {
	Settle(ctx context.Context, tx *gorm.DB, order *models.Order) error
}

// RefundIssuer generates the refund voucher when a return completes. It must
// be idempotent when the order already carries a refund code.
type RefundIssuer interface {
	IssueRefund(ctx context.Context, tx *gorm.DB, order *models.Order) (code string, value int64, err error)
}

// PartnerResolver maps a delivery destination to the handling partner.
type PartnerResolver interface {
	ResolvePickupPartner(ctx context.Context, pickupPointID uuid.UUID) (*models.User, error)
	ResolveZonePartner(ctx context.Context, city string, commune *string) (*models.User, error)
}

// FeeResolver computes the delivery fee for a destination.
type FeeResolver interface {
	Fee(ctx context.Context, method enums.DeliveryMethod, city string, commune *string) (int64, error)
}

// CouponRedeemer quotes and consumes discount codes at checkout.
type CouponRedeemer interface {
	Quote(ctx context.Context, tx *gorm.DB, code string, subtotal int64) (int64, error)
	Consume(ctx context.Context, tx *gorm.DB, code string, orderID uuid.UUID) error
}

// StockKeeper claims catalog stock for the checkout lines.
type StockKeeper interface {
	Reserve(ctx context.Context, tx *gorm.DB, lines []products.StockLine) error
}

// Service is the order lifecycle state machine.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Order, error)
	Transition(ctx context.Context, input TransitionInput) (*models.Order, error)
	TransitionTx(ctx context.Context, tx *gorm.DB, input TransitionInput) (*models.Order, error)
	Cancel(ctx context.Context, orderID uuid.UUID, reason string) (*models.Order, error)
	Track(ctx context.Context, shortCode string) (*TrackView, error)
	ValidateCollectionCode(ctx context.Context, shortCode, submitted string) (*CollectionCodeResult, error)
	SubmitReview(ctx context.Context, input ReviewInput) error
	Get(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	List(ctx context.Context, params pagination.Params, filters ListFilters) (*OrderList, error)
}

type service struct {
	repo     Repository
	tx       txRunner
	outbox   outboxPublisher
	settler  Settler
	refunds  RefundIssuer
	partners PartnerResolver
	fees     FeeResolver
	coupons  CouponRedeemer
	stock    StockKeeper
	metrics  *metrics.PipelineMetrics
}

// NewService builds the order service with the required dependencies.
func NewService(
	repo Repository,
	tx txRunner,
	outboxSvc outboxPublisher,
	settler Settler,
	refunds RefundIssuer,
	partners PartnerResolver,
	fees FeeResolver,
	coupons CouponRedeemer,
	stock StockKeeper,
	pipelineMetrics *metrics.PipelineMetrics,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if settler == nil {
		return nil, fmt.Errorf("settler required")
	}
	if refunds == nil {
		return nil, fmt.Errorf("refund issuer required")
	}
	if partners == nil {
		return nil, fmt.Errorf("partner resolver required")
	}
	if fees == nil {
		return nil, fmt.Errorf("fee resolver required")
	}
	if coupons == nil {
		return nil, fmt.Errorf("coupon redeemer required")
	}
	if stock == nil {
		return nil, fmt.Errorf("stock keeper required")
	}
	return &service{
		repo:     repo,
		tx:       tx,
		outbox:   outboxSvc,
		settler:  settler,
		refunds:  refunds,
		partners: partners,
		fees:     fees,
		coupons:  coupons,
		stock:    stock,
		metrics:  pipelineMetrics,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Order, error) {
	if err := validateCreateInput(input); err != nil {
		return nil, err
	}

	subtotal := int64(0)
	for _, item := range input.Items {
		subtotal += item.UnitPrice * int64(item.Quantity)
	}

	deliveryFee, err := s.fees.Fee(ctx, input.DeliveryMethod, input.City, input.Commune)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve delivery fee")
	}

	partner, err := s.resolvePartner(ctx, input)
	if err != nil {
		return nil, err
	}

	shortCode, err := security.GenerateShortCode()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate short code")
	}

	order := &models.Order{
		ShortCode:         shortCode,
		CustomerName:      strings.TrimSpace(input.CustomerName),
		CustomerPhone:     strings.TrimSpace(input.CustomerPhone),
		City:              input.City,
		Commune:           input.Commune,
		Address:           input.Address,
		DeliveryMethod:    input.DeliveryMethod,
		PickupPointID:     input.PickupPointID,
		SubtotalAmount:    subtotal,
		DeliveryFeeAmount: deliveryFee,
		PaymentMethod:     input.PaymentMethod,
		Status:            enums.OrderStatusNew,
	}

	if input.DeliveryMethod == enums.DeliveryMethodPickup {
		// Pickup orders skip the courier chain and wait for collection.
		order.Status = enums.OrderStatusReady
		code, err := security.GenerateCollectionCode()
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate collection code")
		}
		order.CollectionCode = &code
	}

	if partner != nil {
		order.AssignedPartnerID = &partner.ID
		commission := commissionRate.Mul(decimal.NewFromInt(subtotal)).Round(0).IntPart()
		order.CommissionAmount = &commission
	}

	for _, item := range input.Items {
		order.Items = append(order.Items, models.OrderItem{
			ProductID:       item.ProductID,
			SupplierID:      item.SupplierID,
			Name:            item.Name,
			Quantity:        item.Quantity,
			UnitPriceAmount: item.UnitPrice,
			CapitalAmount:   item.Capital,
		})
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		discount := int64(0)
		if input.CouponCode != nil && *input.CouponCode != "" {
			quoted, err := s.coupons.Quote(ctx, tx, *input.CouponCode, subtotal)
			if err != nil {
				return err
			}
			discount = quoted
			order.AppliedCouponCode = input.CouponCode
		}
		if discount > subtotal+deliveryFee {
			discount = subtotal + deliveryFee
		}
		order.DiscountAmount = discount
		order.TotalAmount = subtotal + deliveryFee - discount
		if order.TotalAmount == 0 {
			order.IsPaid = true
		}

		created, err := repo.Create(ctx, order)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist order")
		}
		order = created

		lines := make([]products.StockLine, 0, len(input.Items))
		for _, item := range input.Items {
			lines = append(lines, products.StockLine{ProductID: item.ProductID, Quantity: item.Quantity})
		}
		if err := s.stock.Reserve(ctx, tx, lines); err != nil {
			return err
		}

		if order.AppliedCouponCode != nil {
			if err := s.coupons.Consume(ctx, tx, *order.AppliedCouponCode, order.ID); err != nil {
				return err
			}
		}

		entry := &models.OrderStatusEntry{
			OrderID: order.ID,
			Status:  order.Status,
		}
		if err := repo.AppendStatusEntry(ctx, entry); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "seed status history")
		}
		order.StatusHistory = append(order.StatusHistory, *entry)

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			Data: payloads.OrderCreatedEvent{
				OrderID:        order.ID,
				ShortCode:      order.ShortCode,
				Status:         order.Status,
				CustomerPhone:  order.CustomerPhone,
				DeliveryMethod: string(order.DeliveryMethod),
				TotalAmount:    order.TotalAmount,
				PartnerID:      order.AssignedPartnerID,
				SupplierIDs:    supplierIDs(order.Items),
			},
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncOrderCreated(string(order.DeliveryMethod))
	return order, nil
}

func (s *service) Transition(ctx context.Context, input TransitionInput) (*models.Order, error) {
	if err := validateTransitionInput(input); err != nil {
		return nil, err
	}

	var updated *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		order, err := s.transitionTx(ctx, tx, input)
		if err != nil {
			return err
		}
		updated = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncTransition(string(input.Status))
	return updated, nil
}

// TransitionTx applies one lifecycle step inside the caller's transaction, for
// flows that must commit writes of their own together with the status change.
func (s *service) TransitionTx(ctx context.Context, tx *gorm.DB, input TransitionInput) (*models.Order, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction required")
	}
	if err := validateTransitionInput(input); err != nil {
		return nil, err
	}

	order, err := s.transitionTx(ctx, tx, input)
	if err != nil {
		return nil, err
	}
	s.metrics.IncTransition(string(input.Status))
	return order, nil
}

func validateTransitionInput(input TransitionInput) error {
	if input.OrderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if !input.Status.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid target status")
	}
	return nil
}

// transitionTx applies one status change inside the caller's transaction. The
// status-guarded update serializes concurrent writers on the same order.
func (s *service) transitionTx(ctx context.Context, tx *gorm.DB, input TransitionInput) (*models.Order, error) {
	repo := s.repo.WithTx(tx)

	order, err := repo.FindByID(ctx, input.OrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}

	previous := order.Status
	if !CanTransition(previous, input.Status) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("illegal transition %s -> %s", previous, input.Status))
	}

	updates := map[string]any{}
	if input.Status == enums.OrderStatusDelivered && order.DeliveredAt == nil {
		now := time.Now().UTC()
		updates["delivered_at"] = now
		order.DeliveredAt = &now
	}

	ok, err := repo.UpdateStatusGuarded(ctx, order.ID, previous, input.Status, updates)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order changed concurrently")
	}
	order.Status = input.Status

	entry := &models.OrderStatusEntry{
		OrderID: order.ID,
		Status:  input.Status,
		Note:    input.Note,
	}
	if err := repo.AppendStatusEntry(ctx, entry); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append status history")
	}
	order.StatusHistory = append(order.StatusHistory, *entry)

	if input.Status == enums.OrderStatusDelivered {
		if err := s.settler.Settle(ctx, tx, order); err != nil {
			return nil, err
		}
	}

	if input.Status == enums.OrderStatusRefunded {
		code, value, err := s.refunds.IssueRefund(ctx, tx, order)
		if err != nil {
			return nil, err
		}
		if code != "" {
			order.RefundCouponCode = &code
			order.RefundCouponValue = &value
		}
	}

	note := ""
	if input.Note != nil {
		note = *input.Note
	}
	err = s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventOrderStatusChanged,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Version:       1,
		Data: payloads.OrderStatusChangedEvent{
			OrderID:        order.ID,
			ShortCode:      order.ShortCode,
			PreviousStatus: previous,
			NewStatus:      input.Status,
			Note:           note,
			CustomerPhone:  order.CustomerPhone,
			PartnerID:      order.AssignedPartnerID,
			SupplierIDs:    supplierIDs(order.Items),
		},
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *service) Cancel(ctx context.Context, orderID uuid.UUID, reason string) (*models.Order, error) {
	note := reason
	return s.Transition(ctx, TransitionInput{
		OrderID: orderID,
		Status:  enums.OrderStatusCancelled,
		Note:    &note,
	})
}

func (s *service) Track(ctx context.Context, shortCode string) (*TrackView, error) {
	if strings.TrimSpace(shortCode) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "short code required")
	}
	order, err := s.repo.FindByShortCode(ctx, shortCode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	// Redeeming the refund voucher archives the order from public tracking.
	if order.CouponRedeemed {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return toTrackView(order), nil
}

func (s *service) ValidateCollectionCode(ctx context.Context, shortCode, submitted string) (*CollectionCodeResult, error) {
	if strings.TrimSpace(shortCode) == "" || strings.TrimSpace(submitted) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "short code and collection code required")
	}

	order, err := s.repo.FindByShortCode(ctx, shortCode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order.CollectionCode == nil {
		return &CollectionCodeResult{Valid: false, Message: "order has no collection code"}, nil
	}
	if *order.CollectionCode != submitted {
		// Mismatch has no side effects.
		return &CollectionCodeResult{Valid: false, Message: "invalid collection code"}, nil
	}
	if order.Status == enums.OrderStatusDelivered {
		// Repeat of a correct code on a collected order is a no-op.
		return &CollectionCodeResult{Valid: true, Message: "order already collected"}, nil
	}

	if _, err := s.Transition(ctx, TransitionInput{
		OrderID: order.ID,
		Status:  enums.OrderStatusDelivered,
	}); err != nil {
		return nil, err
	}
	return &CollectionCodeResult{Valid: true, Message: "order collected"}, nil
}

func (s *service) SubmitReview(ctx context.Context, input ReviewInput) error {
	if input.Rating < 1 || input.Rating > 5 {
		return pkgerrors.New(pkgerrors.CodeValidation, "rating must be between 1 and 5")
	}
	order, err := s.repo.FindByShortCode(ctx, input.ShortCode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order.Status != enums.OrderStatusDelivered && order.Status != enums.OrderStatusRefunded {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "only delivered or refunded orders can be reviewed")
	}
	if order.ReviewedAt != nil {
		return pkgerrors.New(pkgerrors.CodeConflict, "order already reviewed")
	}
	now := time.Now().UTC()
	updates := map[string]any{
		"review_rating": input.Rating,
		"reviewed_at":   now,
	}
	if input.Comment != nil {
		updates["review_comment"] = *input.Comment
	}
	if err := s.repo.UpdateFields(ctx, order.ID, updates); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store review")
	}
	return nil
}

func (s *service) Get(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func (s *service) List(ctx context.Context, params pagination.Params, filters ListFilters) (*OrderList, error) {
	list, err := s.repo.List(ctx, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return list, nil
}

func (s *service) resolvePartner(ctx context.Context, input CreateInput) (*models.User, error) {
	switch input.DeliveryMethod {
	case enums.DeliveryMethodPickup:
		if input.PickupPointID == nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "pickup point required for pickup orders")
		}
		partner, err := s.partners.ResolvePickupPartner(ctx, *input.PickupPointID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, nil
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve pickup partner")
		}
		return partner, nil
	default:
		partner, err := s.partners.ResolveZonePartner(ctx, input.City, input.Commune)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, nil
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve zone partner")
		}
		return partner, nil
	}
}

func validateCreateInput(input CreateInput) error {
	if len(input.Items) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}
	if strings.TrimSpace(input.CustomerName) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "customer name required")
	}
	if strings.TrimSpace(input.CustomerPhone) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "customer phone required")
	}
	if strings.TrimSpace(input.City) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "city required")
	}
	if !input.DeliveryMethod.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid delivery method")
	}
	if !input.PaymentMethod.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
	}
	for _, item := range input.Items {
		if item.Quantity <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "item quantity must be positive")
		}
		if item.UnitPrice < 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "item price must not be negative")
		}
	}
	return nil
}

func supplierIDs(items []models.OrderItem) []uuid.UUID {
	seen := map[uuid.UUID]struct{}{}
	var ids []uuid.UUID
	for _, item := range items {
		if item.SupplierID == nil {
			continue
		}
		if _, ok := seen[*item.SupplierID]; ok {
			continue
		}
		seen[*item.SupplierID] = struct{}{}
		ids = append(ids, *item.SupplierID)
	}
	return ids
}
