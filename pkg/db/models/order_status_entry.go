package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/grandmarche/backend/pkg/enums"
)

// OrderStatusEntry is an append-only history row. The latest row's status
// always matches the order's current status.
type OrderStatusEntry struct {
	ID        uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID   uuid.UUID         `gorm:"column:order_id;type:uuid;not null;index"`
	Status    enums.OrderStatus `gorm:"column:status;type:order_status;not null"`
	Note      *string           `gorm:"column:note"`
	CreatedAt time.Time         `gorm:"column:created_at;autoCreateTime"`
}
