package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/frostcrinkle/bakery-backend/pkg/enums"
)

// CartItem is a line in a cart. PriceAtAddition freezes the price the
// customer saw when they added the line; pricing prefers it over the live
// catalog price.
type CartItem struct {
	ID               uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	CartID           uuid.UUID        `gorm:"column:cart_id;type:uuid;not null;index"`
	ItemID           uuid.UUID        `gorm:"column:item_id;type:uuid;not null"`
	Quantity         int              `gorm:"column:quantity;not null"`
	SelectedWeightKg *decimal.Decimal `gorm:"column:selected_weight_kg;type:numeric(5,2)"`
	EggType          enums.EggType    `gorm:"column:egg_type;type:text;not null;default:'EGG'"`
	PriceAtAddition  *decimal.Decimal `gorm:"column:price_at_addition;type:numeric(10,2)"`
	Item             *Item            `gorm:"foreignKey:ItemID"`
	CreatedAt        time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
