package enums

import "fmt"

// DeliveryMethod maps to the delivery_method enum in Postgres.
type DeliveryMethod string

const (
	DeliveryMethodHome   DeliveryMethod = "home"
	DeliveryMethodPickup DeliveryMethod = "pickup"
)

var validDeliveryMethods = []DeliveryMethod{
	DeliveryMethodHome,
	DeliveryMethodPickup,
}

// IsValid reports whether the value matches the canonical delivery_method enum.
func (d DeliveryMethod) IsValid() bool {
	for _, candidate := range validDeliveryMethods {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseDeliveryMethod converts raw input into DeliveryMethod.
func ParseDeliveryMethod(value string) (DeliveryMethod, error) {
	for _, candidate := range validDeliveryMethods {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid delivery method %q", value)
}
