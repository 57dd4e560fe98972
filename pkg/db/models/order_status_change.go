package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/frostcrinkle/bakery-backend/pkg/enums"
)

// OrderStatusChange is an append-only audit row recorded for every
// transition an order takes, including the initial Confirmed entry.
type OrderStatusChange struct {
	ID         uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	OrderID    uuid.UUID          `gorm:"column:order_id;type:uuid;not null;index"`
	FromStatus *enums.OrderStatus `gorm:"column:from_status;type:text"`
	ToStatus   enums.OrderStatus  `gorm:"column:to_status;type:text;not null"`
	ActorID    *uuid.UUID         `gorm:"column:actor_id;type:uuid"`
	ActorRole  enums.Role         `gorm:"column:actor_role;type:text;not null"`
	Note       *string            `gorm:"column:note;type:text"`
	CreatedAt  time.Time          `gorm:"column:created_at;autoCreateTime"`
}
