package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderItem is a line item snapshot taken at checkout. Catalog changes after
// checkout never affect these rows.
type OrderItem struct {
	ID              uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID         uuid.UUID  `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID       uuid.UUID  `gorm:"column:product_id;type:uuid;not null"`
	SupplierID      *uuid.UUID `gorm:"column:supplier_id;type:uuid"`
	Name            string     `gorm:"column:name;not null"`
	Quantity        int        `gorm:"column:quantity;not null"`
	UnitPriceAmount int64      `gorm:"column:unit_price_amount;not null"`
	CapitalAmount   int64      `gorm:"column:capital_amount;not null;default:0"`
	CreatedAt       time.Time  `gorm:"column:created_at;autoCreateTime"`
}
