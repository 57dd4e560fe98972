package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/frostcrinkle/bakery-backend/pkg/enums"
	"github.com/frostcrinkle/bakery-backend/pkg/types"
)

// Order is the immutable record produced by checkout. Line items and the
// delivery address are snapshots; later catalog edits never reprice an order.
// PaymentOrderID carries a unique index so a verified payment proof can
// materialize at most one order.
type Order struct {
	ID               uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	CustomerID       uuid.UUID             `gorm:"column:customer_id;type:uuid;not null;index"`
	CartID           uuid.UUID             `gorm:"column:cart_id;type:uuid;not null"`
	Status           enums.OrderStatus     `gorm:"column:status;type:text;not null;default:'Confirmed'"`
	DeliveryAddress  types.DeliveryAddress `gorm:"column:delivery_address;type:jsonb;serializer:json"`
	DeliveryNotes    *string               `gorm:"column:delivery_notes;type:text"`
	Subtotal         decimal.Decimal       `gorm:"column:subtotal;type:numeric(10,2);not null"`
	EgglessSurcharge decimal.Decimal       `gorm:"column:eggless_surcharge;type:numeric(10,2);not null;default:0"`
	Total            decimal.Decimal       `gorm:"column:total;type:numeric(10,2);not null"`
	PaymentOrderID   string                `gorm:"column:payment_order_id;type:text;not null;uniqueIndex:idx_orders_payment_order_id"`
	PaymentID        string                `gorm:"column:payment_id;type:text;not null"`
	PaymentSignature string                `gorm:"column:payment_signature;type:text;not null"`
	PlacedAt         time.Time             `gorm:"column:placed_at;not null"`
	DeliveredAt      *time.Time            `gorm:"column:delivered_at"`
	Items            []OrderItem           `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	History          []OrderStatusChange   `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt        time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
