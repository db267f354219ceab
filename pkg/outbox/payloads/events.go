package payloads

import (
	"time"

	"github.com/google/uuid"

	"github.com/grandmarche/backend/pkg/enums"
)

// OrderCreatedEvent signals a new checkout has been accepted.
type OrderCreatedEvent struct {
	OrderID        uuid.UUID         `json:"order_id"`
	ShortCode      string            `json:"short_code"`
	Status         enums.OrderStatus `json:"status"`
	CustomerPhone  string            `json:"customer_phone"`
	DeliveryMethod string            `json:"delivery_method"`
	TotalAmount    int64             `json:"total_amount"`
	PartnerID      *uuid.UUID        `json:"partner_id,omitempty"`
	SupplierIDs    []uuid.UUID       `json:"supplier_ids,omitempty"`
}

// OrderStatusChangedEvent carries the previous and new lifecycle status.
type OrderStatusChangedEvent struct {
	OrderID        uuid.UUID         `json:"order_id"`
	ShortCode      string            `json:"short_code"`
	PreviousStatus enums.OrderStatus `json:"previous_status"`
	NewStatus      enums.OrderStatus `json:"new_status"`
	Note           string            `json:"note,omitempty"`
	CustomerPhone  string            `json:"customer_phone"`
	PartnerID      *uuid.UUID        `json:"partner_id,omitempty"`
	SupplierIDs    []uuid.UUID       `json:"supplier_ids,omitempty"`
}

// DisputeOpenedEvent is emitted when a return request or partner report creates a dispute.
type DisputeOpenedEvent struct {
	DisputeID          uuid.UUID         `json:"dispute_id"`
	OrderShortCode     string            `json:"order_short_code"`
	Type               enums.DisputeType `json:"type"`
	PartnerID          *uuid.UUID        `json:"partner_id,omitempty"`
	AffectedProductIDs []uuid.UUID       `json:"affected_product_ids,omitempty"`
	// SupplierIDs are the owners of the affected products, resolved from the
	// order's item snapshots at emit time.
	SupplierIDs   []uuid.UUID `json:"supplier_ids,omitempty"`
	CustomerPhone string      `json:"customer_phone"`
}

// DisputeResolvedEvent records the single accept/reject fork of a dispute.
type DisputeResolvedEvent struct {
	DisputeID      uuid.UUID             `json:"dispute_id"`
	OrderShortCode string                `json:"order_short_code"`
	Decision       enums.DisputeDecision `json:"decision"`
	Note           string                `json:"note,omitempty"`
	PartnerID      *uuid.UUID            `json:"partner_id,omitempty"`
	CustomerPhone  string                `json:"customer_phone"`
}

// RefundIssuedEvent is emitted once when the refund voucher is generated.
type RefundIssuedEvent struct {
	OrderID        uuid.UUID  `json:"order_id"`
	OrderShortCode string     `json:"order_short_code"`
	VoucherCode    string     `json:"voucher_code"`
	VoucherValue   int64      `json:"voucher_value"`
	PartnerID      *uuid.UUID `json:"partner_id,omitempty"`
	CustomerPhone  string     `json:"customer_phone"`
	IssuedAt       time.Time  `json:"issued_at"`
}

// LowStockEvent alerts the operator and the owning supplier.
type LowStockEvent struct {
	ProductID   uuid.UUID  `json:"product_id"`
	ProductName string     `json:"product_name"`
	SupplierID  *uuid.UUID `json:"supplier_id,omitempty"`
	Remaining   int        `json:"remaining"`
	Threshold   int        `json:"threshold"`
}
