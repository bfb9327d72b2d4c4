package orders

import "github.com/angelmondragon/tradeflow-backend/pkg/enums"

var wholesalerTransitions = map[enums.OrderStatus][]enums.OrderStatus{
	enums.OrderStatusPending:    {enums.OrderStatusProcessing, enums.OrderStatusShipped, enums.OrderStatusDelivered, enums.OrderStatusReturned},
	enums.OrderStatusProcessing: {enums.OrderStatusShipped, enums.OrderStatusDelivered},
	enums.OrderStatusShipped:    {enums.OrderStatusDelivered},
	enums.OrderStatusDelivered:  {enums.OrderStatusReturned},
}

// AllowedTargets lists the statuses a wholesaler may move an order to from current.
func AllowedTargets(current enums.OrderStatus) []enums.OrderStatus {
	targets := wholesalerTransitions[current]
	out := make([]enums.OrderStatus, len(targets))
	copy(out, targets)
	return out
}

// CanTransition reports whether a wholesaler may move an order from -> to.
func CanTransition(from, to enums.OrderStatus) bool {
	for _, candidate := range wholesalerTransitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}
