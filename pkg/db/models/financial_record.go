package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/grandmarche/backend/pkg/enums"
)

// FinancialRecord is the settlement output for one order. Created exactly once
// at first delivery; immutable afterwards except the archival status.
type FinancialRecord struct {
	ID                uuid.UUID                   `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID           uuid.UUID                   `gorm:"column:order_id;type:uuid;not null;uniqueIndex"`
	OrderShortCode    string                      `gorm:"column:order_short_code;not null"`
	SettledAt         time.Time                   `gorm:"column:settled_at;not null"`
	SalesAmount       int64                       `gorm:"column:sales_amount;not null"`
	CapitalAmount     int64                       `gorm:"column:capital_amount;not null"`
	GrossProfitAmount int64                       `gorm:"column:gross_profit_amount;not null"`
	SupplierShare     int64                       `gorm:"column:supplier_share;not null"`
	TaxShare          int64                       `gorm:"column:tax_share;not null"`
	PartnerShare      int64                       `gorm:"column:partner_share;not null"`
	OperatorShare     int64                       `gorm:"column:operator_share;not null"`
	Status            enums.FinancialRecordStatus `gorm:"column:status;type:financial_record_status;not null"`
	CreatedAt         time.Time                   `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time                   `gorm:"column:updated_at;autoUpdateTime"`
}
