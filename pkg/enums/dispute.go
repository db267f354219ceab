package enums

import "fmt"

// DisputeType maps to the dispute_type enum in Postgres.
type DisputeType string

const (
	DisputeTypeReturn             DisputeType = "return"
	DisputeTypeWithdrawalExceeded DisputeType = "withdrawal_exceeded"
	DisputeTypeOther              DisputeType = "other"
)

var validDisputeTypes = []DisputeType{
	DisputeTypeReturn,
	DisputeTypeWithdrawalExceeded,
	DisputeTypeOther,
}

// IsValid reports whether the value matches the canonical dispute_type enum.
func (d DisputeType) IsValid() bool {
	for _, candidate := range validDisputeTypes {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseDisputeType converts raw input into DisputeType.
func ParseDisputeType(value string) (DisputeType, error) {
	for _, candidate := range validDisputeTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid dispute type %q", value)
}

// DisputeStatus maps to the dispute_status enum in Postgres.
type DisputeStatus string

const (
	DisputeStatusOpen     DisputeStatus = "open"
	DisputeStatusResolved DisputeStatus = "resolved"
)

// IsValid reports whether the value matches the canonical dispute_status enum.
func (d DisputeStatus) IsValid() bool {
	return d == DisputeStatusOpen || d == DisputeStatusResolved
}

// ParseDisputeStatus converts raw input into DisputeStatus.
func ParseDisputeStatus(value string) (DisputeStatus, error) {
	status := DisputeStatus(value)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid dispute status %q", value)
	}
	return status, nil
}

// DisputeDecision maps to the dispute_decision enum in Postgres.
type DisputeDecision string

const (
	DisputeDecisionAccepted DisputeDecision = "accepted"
	DisputeDecisionRejected DisputeDecision = "rejected"
)

var validDisputeDecisions = []DisputeDecision{
	DisputeDecisionAccepted,
	DisputeDecisionRejected,
}

// IsValid reports whether the value matches the canonical dispute_decision enum.
func (d DisputeDecision) IsValid() bool {
	for _, candidate := range validDisputeDecisions {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseDisputeDecision converts raw input into DisputeDecision.
func ParseDisputeDecision(value string) (DisputeDecision, error) {
	for _, candidate := range validDisputeDecisions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid dispute decision %q", value)
}
