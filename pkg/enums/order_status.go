package enums

// OrderStatus models the admin-operated delivery lifecycle of an order.
// Transitions are strictly forward and only to the immediate successor.
type OrderStatus string

const (
	OrderStatusConfirmed      OrderStatus = "Confirmed"
	OrderStatusPacked         OrderStatus = "Packed"
	OrderStatusOutForDelivery OrderStatus = "Out for Delivery"
	OrderStatusDelivered      OrderStatus = "Delivered"
)

// Next returns the immediate successor status, or false when the status is
// terminal or unknown.
func (s OrderStatus) Next() (OrderStatus, bool) {
	switch s {
	case OrderStatusConfirmed:
		return OrderStatusPacked, true
	case OrderStatusPacked:
		return OrderStatusOutForDelivery, true
	case OrderStatusOutForDelivery:
		return OrderStatusDelivered, true
	}
	return "", false
}

// IsTerminal reports whether the order has reached its final state.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered
}

// IsValid reports whether the value is one of the known statuses.
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusConfirmed, OrderStatusPacked, OrderStatusOutForDelivery, OrderStatusDelivered:
		return true
	}
	return false
}
