package payloads

import (
	"time"

	"github.com/google/uuid"

	"github.com/frostcrinkle/bakery-backend/pkg/enums"
)

// OrderPlacedEvent signals a paid checkout that materialized an order.
type OrderPlacedEvent struct {
	OrderID        uuid.UUID `json:"order_id"`
	CustomerID     uuid.UUID `json:"customer_id"`
	PaymentOrderID string    `json:"payment_order_id"`
	Total          string    `json:"total"`
	ItemCount      int       `json:"item_count"`
	PlacedAt       time.Time `json:"placed_at"`
}

// OrderStatusChangedEvent is emitted on every delivery lifecycle transition.
type OrderStatusChangedEvent struct {
	OrderID    uuid.UUID         `json:"order_id"`
	CustomerID uuid.UUID         `json:"customer_id"`
	FromStatus enums.OrderStatus `json:"from_status"`
	ToStatus   enums.OrderStatus `json:"to_status"`
	ChangedAt  time.Time         `json:"changed_at"`
}
