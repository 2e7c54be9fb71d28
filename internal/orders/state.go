package orders

import "github.com/angelmondragon/storefront-backend/pkg/enums"

var transitions = map[enums.OrderStatus][]enums.OrderStatus{
	enums.OrderStatusPending:   {enums.OrderStatusConfirmed, enums.OrderStatusCancelled},
	enums.OrderStatusConfirmed: {enums.OrderStatusShipped, enums.OrderStatusCancelled},
	enums.OrderStatusShipped:   {enums.OrderStatusDelivered},
}

// CanTransition reports whether an order may move from one status to another.
func CanTransition(from, to enums.OrderStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// CustomerCanCancel is narrower than the table: customers only get the
// cancel action while the order is still pending.
func CustomerCanCancel(status enums.OrderStatus) bool {
	return status == enums.OrderStatusPending
}
