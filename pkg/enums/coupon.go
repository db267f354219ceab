package enums

import "fmt"

// VoucherStatus maps to the voucher_status enum in Postgres.
type VoucherStatus string

const (
	VoucherStatusActive  VoucherStatus = "active"
	VoucherStatusUsed    VoucherStatus = "used"
	VoucherStatusExpired VoucherStatus = "expired"
)

var validVoucherStatuses = []VoucherStatus{
	VoucherStatusActive,
	VoucherStatusUsed,
	VoucherStatusExpired,
}

// IsValid reports whether the value matches the canonical voucher_status enum.
func (v VoucherStatus) IsValid() bool {
	for _, candidate := range validVoucherStatuses {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseVoucherStatus converts raw input into VoucherStatus.
func ParseVoucherStatus(value string) (VoucherStatus, error) {
	for _, candidate := range validVoucherStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid voucher status %q", value)
}

// PromoKind maps to the promo_kind enum in Postgres.
type PromoKind string

const (
	PromoKindPercent PromoKind = "percent"
	PromoKindFixed   PromoKind = "fixed"
)

var validPromoKinds = []PromoKind{
	PromoKindPercent,
	PromoKindFixed,
}

// IsValid reports whether the value matches the canonical promo_kind enum.
func (p PromoKind) IsValid() bool {
	for _, candidate := range validPromoKinds {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePromoKind converts raw input into PromoKind.
func ParsePromoKind(value string) (PromoKind, error) {
	for _, candidate := range validPromoKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid promo kind %q", value)
}
