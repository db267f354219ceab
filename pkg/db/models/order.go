package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/grandmarche/backend/pkg/enums"
)

// Order is the root aggregate of the fulfillment pipeline. Line items and
// status history rows are owned by the order and never rewritten.
type Order struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ShortCode string    `gorm:"column:short_code;not null;uniqueIndex"`

	CustomerName   string               `gorm:"column:customer_name;not null"`
	CustomerPhone  string               `gorm:"column:customer_phone;not null"`
	City           string               `gorm:"column:city;not null"`
	Commune        *string              `gorm:"column:commune"`
	Address        *string              `gorm:"column:address"`
	DeliveryMethod enums.DeliveryMethod `gorm:"column:delivery_method;type:delivery_method;not null"`
	PickupPointID  *uuid.UUID           `gorm:"column:pickup_point_id;type:uuid"`

	Status enums.OrderStatus `gorm:"column:status;type:order_status;not null"`

	SubtotalAmount    int64   `gorm:"column:subtotal_amount;not null"`
	DeliveryFeeAmount int64   `gorm:"column:delivery_fee_amount;not null;default:0"`
	DiscountAmount    int64   `gorm:"column:discount_amount;not null;default:0"`
	TotalAmount       int64   `gorm:"column:total_amount;not null"`
	AppliedCouponCode *string `gorm:"column:applied_coupon_code"`
	CouponRedeemed    bool    `gorm:"column:coupon_redeemed;not null;default:false"`

	AssignedPartnerID *uuid.UUID `gorm:"column:assigned_partner_id;type:uuid"`
	CommissionAmount  *int64     `gorm:"column:commission_amount"`

	IsPaid        bool                `gorm:"column:is_paid;not null;default:false"`
	PaymentMethod enums.PaymentMethod `gorm:"column:payment_method;type:payment_method;not null"`

	CollectionCode *string    `gorm:"column:collection_code"`
	DeliveredAt    *time.Time `gorm:"column:delivered_at"`

	FinancialProcessed bool    `gorm:"column:financial_processed;not null;default:false"`
	RefundCouponCode   *string `gorm:"column:refund_coupon_code"`
	RefundCouponValue  *int64  `gorm:"column:refund_coupon_value"`

	ReviewRating  *int       `gorm:"column:review_rating"`
	ReviewComment *string    `gorm:"column:review_comment"`
	ReviewedAt    *time.Time `gorm:"column:reviewed_at"`

	Items         []OrderItem        `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	StatusHistory []OrderStatusEntry `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
