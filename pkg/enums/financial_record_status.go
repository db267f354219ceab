package enums

import "fmt"

// FinancialRecordStatus maps to the financial_record_status enum in Postgres.
type FinancialRecordStatus string

const (
	FinancialRecordStatusActive   FinancialRecordStatus = "active"
	FinancialRecordStatusArchived FinancialRecordStatus = "archived"
)

var validFinancialRecordStatuses = []FinancialRecordStatus{
	FinancialRecordStatusActive,
	FinancialRecordStatusArchived,
}

// IsValid reports whether the value matches the canonical financial_record_status enum.
func (f FinancialRecordStatus) IsValid() bool {
	for _, candidate := range validFinancialRecordStatuses {
		if candidate == f {
			return true
		}
	}
	return false
}

// ParseFinancialRecordStatus converts raw input into FinancialRecordStatus.
func ParseFinancialRecordStatus(value string) (FinancialRecordStatus, error) {
	for _, candidate := range validFinancialRecordStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid financial record status %q", value)
}
