package enums

import "fmt"

// OrderStatus maps to the order_status enum in Postgres.
type OrderStatus string

const (
	OrderStatusNew              OrderStatus = "new"
	OrderStatusProcessing       OrderStatus = "processing"
	OrderStatusInTransit        OrderStatus = "in_transit"
	OrderStatusOutForDelivery   OrderStatus = "out_for_delivery"
	OrderStatusReady            OrderStatus = "ready"
	OrderStatusDelivered        OrderStatus = "delivered"
	OrderStatusCancelled        OrderStatus = "cancelled"
	OrderStatusReturnRequested  OrderStatus = "return_requested"
	OrderStatusReturnAccepted   OrderStatus = "return_accepted"
	OrderStatusReturnProcessing OrderStatus = "return_processing"
	OrderStatusRefunded         OrderStatus = "refunded"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusNew,
	OrderStatusProcessing,
	OrderStatusInTransit,
	OrderStatusOutForDelivery,
	OrderStatusReady,
	OrderStatusDelivered,
	OrderStatusCancelled,
	OrderStatusReturnRequested,
	OrderStatusReturnAccepted,
	OrderStatusReturnProcessing,
	OrderStatusRefunded,
}

// IsValid reports whether the value matches the canonical order_status enum.
func (s OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further lifecycle transition is allowed.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCancelled || s == OrderStatusRefunded
}

// ParseOrderStatus converts raw input into OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}
