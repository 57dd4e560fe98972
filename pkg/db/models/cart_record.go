package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/frostcrinkle/bakery-backend/pkg/enums"
)

// CartRecord is a customer-scoped cart. One active cart per customer; a cart
// flips to converted when an order is placed against it.
type CartRecord struct {
	ID          uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	CustomerID  uuid.UUID        `gorm:"column:customer_id;type:uuid;not null;index"`
	Status      enums.CartStatus `gorm:"column:status;type:text;not null;default:'active'"`
	ConvertedAt *time.Time       `gorm:"column:converted_at"`
	Items       []CartItem       `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
