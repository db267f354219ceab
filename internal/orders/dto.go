package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/grandmarche/backend/pkg/db/models"
	"github.com/grandmarche/backend/pkg/enums"
)

// ItemInput is one cart line at checkout. Price and capital are snapshotted
// onto the order so later catalog edits never touch historical orders.
type ItemInput struct {
	ProductID  uuid.UUID
	SupplierID *uuid.UUID
	Name       string
	Quantity   int
	UnitPrice  int64
	Capital    int64
}

// CreateInput carries everything needed to accept a checkout.
type CreateInput struct {
	CustomerName   string
	CustomerPhone  string
	City           string
	Commune        *string
	Address        *string
	DeliveryMethod enums.DeliveryMethod
	PickupPointID  *uuid.UUID
	PaymentMethod  enums.PaymentMethod
	CouponCode     *string
	Items          []ItemInput
}

// TransitionInput identifies the order and the requested status change.
type TransitionInput struct {
	OrderID uuid.UUID
	Status  enums.OrderStatus
	Note    *string
}

// CollectionCodeResult reports the outcome of a pickup code check.
type CollectionCodeResult struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message"`
}

// ReviewInput is the post-delivery customer review.
type ReviewInput struct {
	ShortCode string
	Rating    int
	Comment   *string
}

// ListFilters narrows the order listing.
type ListFilters struct {
	Status    *enums.OrderStatus
	PartnerID *uuid.UUID
}

// OrderList is one page of orders with the cursor for the next page.
type OrderList struct {
	Orders     []models.Order `json:"orders"`
	NextCursor *string        `json:"next_cursor,omitempty"`
}

// TrackView is the customer-facing tracking projection.
type TrackView struct {
	ShortCode      string               `json:"short_code"`
	Status         enums.OrderStatus    `json:"status"`
	DeliveryMethod enums.DeliveryMethod `json:"delivery_method"`
	TotalAmount    int64                `json:"total_amount"`
	IsPaid         bool                 `json:"is_paid"`
	DeliveredAt    *time.Time           `json:"delivered_at,omitempty"`
	History        []HistoryEntry       `json:"history"`
	RefundCode     *string              `json:"refund_code,omitempty"`
	CreatedAt      time.Time            `json:"created_at"`
}

// HistoryEntry is one immutable status history row.
type HistoryEntry struct {
	Status    enums.OrderStatus `json:"status"`
	Note      *string           `json:"note,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

func toTrackView(order *models.Order) *TrackView {
	view := &TrackView{
		ShortCode:      order.ShortCode,
		Status:         order.Status,
		DeliveryMethod: order.DeliveryMethod,
		TotalAmount:    order.TotalAmount,
		IsPaid:         order.IsPaid,
		DeliveredAt:    order.DeliveredAt,
		RefundCode:     order.RefundCouponCode,
		CreatedAt:      order.CreatedAt,
	}
	for _, entry := range order.StatusHistory {
		view.History = append(view.History, HistoryEntry{
			Status:    entry.Status,
			Note:      entry.Note,
			CreatedAt: entry.CreatedAt,
		})
	}
	return view
}
