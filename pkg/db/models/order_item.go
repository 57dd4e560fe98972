package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/frostcrinkle/bakery-backend/pkg/enums"
)

// OrderItem captures the snapshot of each line within an order.
type OrderItem struct {
	ID               uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	OrderID          uuid.UUID        `gorm:"column:order_id;type:uuid;not null;index"`
	ItemID           *uuid.UUID       `gorm:"column:item_id;type:uuid"`
	Name             string           `gorm:"column:name;not null"`
	Category         string           `gorm:"column:category;not null"`
	Quantity         int              `gorm:"column:quantity;not null"`
	SelectedWeightKg *decimal.Decimal `gorm:"column:selected_weight_kg;type:numeric(5,2)"`
	EggType          enums.EggType    `gorm:"column:egg_type;type:text;not null;default:'EGG'"`
	UnitPrice        decimal.Decimal  `gorm:"column:unit_price;type:numeric(10,2);not null"`
	LineTotal        decimal.Decimal  `gorm:"column:line_total;type:numeric(10,2);not null"`
	CreatedAt        time.Time        `gorm:"column:created_at;autoCreateTime"`
}
