package models

import (
	"time"

	"github.com/google/uuid"
)

// DeliveryZone binds a city/commune pair to a handling partner and a fee.
// Commune is matched inside the metro area, city elsewhere.
type DeliveryZone struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	City      string     `gorm:"column:city;not null;index"`
	Commune   *string    `gorm:"column:commune"`
	FeeAmount int64      `gorm:"column:fee_amount;not null"`
	PartnerID *uuid.UUID `gorm:"column:partner_id;type:uuid"`
	IsActive  bool       `gorm:"column:is_active;not null;default:true"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
