package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/frostcrinkle/bakery-backend/pkg/enums"
)

// Notification stores a durable in-app notification. RecipientRole lets
// admin-wide notifications fan out without enumerating admin accounts.
type Notification struct {
	ID            uuid.UUID              `gorm:"type:uuid;primaryKey"`
	RecipientID   *uuid.UUID             `gorm:"column:recipient_id;type:uuid;index"`
	RecipientRole enums.Role             `gorm:"column:recipient_role;type:text;not null"`
	Type          enums.NotificationType `gorm:"column:type;type:text;not null"`
	Message       string                 `gorm:"column:message;type:text;not null"`
	OrderID       *uuid.UUID             `gorm:"column:order_id;type:uuid"`
	ReadAt        *time.Time             `gorm:"column:read_at"`
	CreatedAt     time.Time              `gorm:"column:created_at;autoCreateTime"`
}
