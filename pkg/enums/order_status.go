package enums

import "fmt"

// OrderStatus tracks the buyer-facing lifecycle of an order. The values are
// the Turkish labels the marketplace exposes to its users.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "onaylandı"
	OrderStatusPreparing OrderStatus = "hazırlanıyor"
	OrderStatusShipped   OrderStatus = "kargoda"
	OrderStatusDelivered OrderStatus = "teslim edildi"
	OrderStatusCancelled OrderStatus = "iptal edildi"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusConfirmed,
	OrderStatusPreparing,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

// orderStatusRank orders the forward progression. Cancelled is a side exit
// and carries no rank.
var orderStatusRank = map[OrderStatus]int{
	OrderStatusPending:   0,
	OrderStatusConfirmed: 1,
	OrderStatusPreparing: 2,
	OrderStatusShipped:   3,
	OrderStatusDelivered: 4,
}

// String implements fmt.Stringer.
func (s OrderStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known OrderStatus.
func (s OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are allowed.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// CanAdvanceTo reports whether a seller may move the order from s to target.
// Sellers only move forward; cancellation is not a seller transition.
func (s OrderStatus) CanAdvanceTo(target OrderStatus) bool {
	from, ok := orderStatusRank[s]
	if !ok {
		return false
	}
	to, ok := orderStatusRank[target]
	if !ok {
		return false
	}
	return to > from
}

// ParseOrderStatus converts raw input into an OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}
