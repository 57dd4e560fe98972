package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Weight-priced categories sell by the kilogram and carry a cake inscription.
const (
	CategoryOccasional = "occasional"
	CategoryPremium    = "premium"
	CategoryParty      = "party"
)

// Item is a catalog entry. Price is the base price in rupees; for
// weight-priced categories it is the per-kilogram price.
type Item struct {
	ID                uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Name              string          `gorm:"column:name;type:text;not null"`
	Category          string          `gorm:"column:category;type:text;not null"`
	Description       *string         `gorm:"column:description;type:text"`
	Price             decimal.Decimal `gorm:"column:price;type:numeric(10,2);not null"`
	EgglessAvailable  bool            `gorm:"column:eggless_available;not null;default:false"`
	Stock             int             `gorm:"column:stock;not null;default:0"`
	LowStockThreshold int             `gorm:"column:low_stock_threshold;not null;default:5"`
	IsActive          bool            `gorm:"column:is_active;not null;default:true"`
	CreatedAt         time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// IsWeightPriced reports whether the item's category sells by weight.
func (i Item) IsWeightPriced() bool {
	switch i.Category {
	case CategoryOccasional, CategoryPremium, CategoryParty:
		return true
	}
	return false
}
