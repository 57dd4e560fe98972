package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderHistoryEntry is written once when an order reaches Delivered. The
// orders table stays the source of truth; this table is the read-only
// summary the customer history screen lists.
type OrderHistoryEntry struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	OrderID     uuid.UUID       `gorm:"column:order_id;type:uuid;not null;uniqueIndex"`
	CustomerID  uuid.UUID       `gorm:"column:customer_id;type:uuid;not null;index"`
	Total       decimal.Decimal `gorm:"column:total;type:numeric(10,2);not null"`
	ItemCount   int             `gorm:"column:item_count;not null"`
	PlacedAt    time.Time       `gorm:"column:placed_at;not null"`
	DeliveredAt time.Time       `gorm:"column:delivered_at;not null"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (OrderHistoryEntry) TableName() string {
	return "order_history"
}
