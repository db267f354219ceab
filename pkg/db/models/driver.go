package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/grandmarche/backend/pkg/enums"
)

// Driver is a partner-managed delivery driver awaiting operator approval.
type Driver struct {
	ID        uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	PartnerID uuid.UUID          `gorm:"column:partner_id;type:uuid;not null;index"`
	FullName  string             `gorm:"column:full_name;not null"`
	Phone     string             `gorm:"column:phone;not null"`
	Status    enums.DriverStatus `gorm:"column:status;type:driver_status;not null"`
	CreatedAt time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
