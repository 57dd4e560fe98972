package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/frostcrinkle/bakery-backend/pkg/enums"
)

// PaymentIntent records a gateway order registered ahead of the confirmation
// surface. ProviderOrderID is the gateway's order identifier and is the key
// the verified proof comes back with.
type PaymentIntent struct {
	ID              uuid.UUID                 `gorm:"column:id;type:uuid;primaryKey"`
	CustomerID      uuid.UUID                 `gorm:"column:customer_id;type:uuid;not null;index"`
	CartID          uuid.UUID                 `gorm:"column:cart_id;type:uuid;not null"`
	ProviderOrderID string                    `gorm:"column:provider_order_id;type:text;not null;uniqueIndex"`
	AmountPaise     int64                     `gorm:"column:amount_paise;not null"`
	Currency        string                    `gorm:"column:currency;type:text;not null;default:'INR'"`
	Status          enums.PaymentIntentStatus `gorm:"column:status;type:text;not null;default:'created'"`
	ConsumedAt      *time.Time                `gorm:"column:consumed_at"`
	CreatedAt       time.Time                 `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time                 `gorm:"column:updated_at;autoUpdateTime"`
}
