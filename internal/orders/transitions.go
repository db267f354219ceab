package orders

import "github.com/grandmarche/backend/pkg/enums"

// legalTransitions is the authoritative lifecycle table. Any status missing a
// target here rejects the transition. Cancellation is reachable from every
// non-terminal status.
var legalTransitions = map[enums.OrderStatus][]enums.OrderStatus{
	enums.OrderStatusNew: {
		enums.OrderStatusProcessing,
		enums.OrderStatusCancelled,
	},
	enums.OrderStatusProcessing: {
		enums.OrderStatusInTransit,
		enums.OrderStatusCancelled,
	},
	enums.OrderStatusInTransit: {
		enums.OrderStatusOutForDelivery,
		enums.OrderStatusCancelled,
	},
	enums.OrderStatusOutForDelivery: {
		enums.OrderStatusReady,
		enums.OrderStatusDelivered,
		enums.OrderStatusCancelled,
	},
	enums.OrderStatusReady: {
		enums.OrderStatusDelivered,
		enums.OrderStatusCancelled,
	},
	enums.OrderStatusDelivered: {
		enums.OrderStatusReturnRequested,
		enums.OrderStatusCancelled,
	},
	enums.OrderStatusReturnRequested: {
		enums.OrderStatusReturnAccepted,
		enums.OrderStatusDelivered,
		enums.OrderStatusCancelled,
	},
	enums.OrderStatusReturnAccepted: {
		enums.OrderStatusReturnProcessing,
		enums.OrderStatusCancelled,
	},
	enums.OrderStatusReturnProcessing: {
		enums.OrderStatusRefunded,
		enums.OrderStatusCancelled,
	},
}

// CanTransition reports whether moving from one status to another is legal.
func CanTransition(from, to enums.OrderStatus) bool {
	for _, candidate := range legalTransitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}
