package notifications

import (
	"time"

	"github.com/google/uuid"

	"github.com/frostcrinkle/bakery-backend/pkg/db/models"
	"github.com/frostcrinkle/bakery-backend/pkg/enums"
)

// NotificationDTO is the public projection of a durable notification.
type NotificationDTO struct {
	ID        uuid.UUID              `json:"id"`
	Type      enums.NotificationType `json:"type"`
	Message   string                 `json:"message"`
	OrderID   *uuid.UUID             `json:"order_id,omitempty"`
	Read      bool                   `json:"read"`
	CreatedAt time.Time              `json:"created_at"`
}

// ToDTOs maps durable rows onto the API projection.
func ToDTOs(rows []models.Notification) []NotificationDTO {
	out := make([]NotificationDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, NotificationDTO{
			ID:        row.ID,
			Type:      row.Type,
			Message:   row.Message,
			OrderID:   row.OrderID,
			Read:      row.ReadAt != nil,
			CreatedAt: row.CreatedAt,
		})
	}
	return out
}
