package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/grandmarche/backend/pkg/enums"
)

// Voucher is a single-use store credit, typically issued as a refund.
type Voucher struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code          string              `gorm:"column:code;not null;uniqueIndex"`
	ValueAmount   int64               `gorm:"column:value_amount;not null"`
	Status        enums.VoucherStatus `gorm:"column:status;type:voucher_status;not null"`
	SourceOrderID *uuid.UUID          `gorm:"column:source_order_id;type:uuid"`
	UsedOrderID   *uuid.UUID          `gorm:"column:used_order_id;type:uuid"`
	UsedAt        *time.Time          `gorm:"column:used_at"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
