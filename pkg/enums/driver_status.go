package enums

import "fmt"

// DriverStatus maps to the driver_status enum in Postgres.
type DriverStatus string

const (
	DriverStatusPendingApproval DriverStatus = "pending_approval"
	DriverStatusActive          DriverStatus = "active"
	DriverStatusSuspended       DriverStatus = "suspended"
)

var validDriverStatuses = []DriverStatus{
	DriverStatusPendingApproval,
	DriverStatusActive,
	DriverStatusSuspended,
}

// IsValid reports whether the value matches the canonical driver_status enum.
func (d DriverStatus) IsValid() bool {
	for _, candidate := range validDriverStatuses {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseDriverStatus converts raw input into DriverStatus.
func ParseDriverStatus(value string) (DriverStatus, error) {
	for _, candidate := range validDriverStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid driver status %q", value)
}
