package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/grandmarche/backend/pkg/enums"
)

// PromoCode is an operator-issued discount, reusable until deactivated.
type PromoCode struct {
	ID             uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code           string          `gorm:"column:code;not null;uniqueIndex"`
	Kind           enums.PromoKind `gorm:"column:kind;type:promo_kind;not null"`
	Value          int64           `gorm:"column:value;not null"`
	MinSpendAmount *int64          `gorm:"column:min_spend_amount"`
	IsActive       bool            `gorm:"column:is_active;not null;default:true"`
	CreatedAt      time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
