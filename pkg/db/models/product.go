package models

import (
	"time"

	"github.com/google/uuid"
)

// Product is a supplier-backed catalog entry. CapitalAmount is the recorded
// cost basis used by settlement; PriceAmount is the sale price.
type Product struct {
	ID                uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name              string     `gorm:"column:name;not null"`
	SupplierID        *uuid.UUID `gorm:"column:supplier_id;type:uuid;index"`
	PriceAmount       int64      `gorm:"column:price_amount;not null"`
	CapitalAmount     int64      `gorm:"column:capital_amount;not null;default:0"`
	Stock             int        `gorm:"column:stock;not null;default:0"`
	LowStockThreshold int        `gorm:"column:low_stock_threshold;not null;default:5"`
	IsActive          bool       `gorm:"column:is_active;not null;default:true"`
	CreatedAt         time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
