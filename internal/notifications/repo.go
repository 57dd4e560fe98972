package notifications

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/frostcrinkle/bakery-backend/pkg/db/models"
	"github.com/frostcrinkle/bakery-backend/pkg/enums"
)

// Repository is the durable notification store.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, notification *models.Notification) error
	ListForRecipient(ctx context.Context, role enums.Role, recipientID uuid.UUID, limit int) ([]models.Notification, error)
	UnreadCount(ctx context.Context, role enums.Role, recipientID uuid.UUID) (int64, error)
	MarkRead(ctx context.Context, id uuid.UUID, role enums.Role, recipientID uuid.UUID, at time.Time) (bool, error)
	MarkAllRead(ctx context.Context, role enums.Role, recipientID uuid.UUID, at time.Time) (int64, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, notification *models.Notification) error {
	return r.db.WithContext(ctx).Create(notification).Error
}

// recipientScope matches direct notifications and, for admins, the
// role-wide ones that carry no recipient.
func recipientScope(db *gorm.DB, role enums.Role, recipientID uuid.UUID) *gorm.DB {
	query := db.Where("recipient_role = ?", role)
	if role == enums.RoleAdmin {
		return query.Where("recipient_id = ? OR recipient_id IS NULL", recipientID)
	}
	return query.Where("recipient_id = ?", recipientID)
}

func (r *repositoryImpl) ListForRecipient(ctx context.Context, role enums.Role, recipientID uuid.UUID, limit int) ([]models.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	var rows []models.Notification
	err := recipientScope(r.db.WithContext(ctx), role, recipientID).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repositoryImpl) UnreadCount(ctx context.Context, role enums.Role, recipientID uuid.UUID) (int64, error) {
	var count int64
	err := recipientScope(r.db.WithContext(ctx).Model(&models.Notification{}), role, recipientID).
		Where("read_at IS NULL").
		Count(&count).Error
	return count, err
}

func (r *repositoryImpl) MarkRead(ctx context.Context, id uuid.UUID, role enums.Role, recipientID uuid.UUID, at time.Time) (bool, error) {
	result := recipientScope(r.db.WithContext(ctx).Model(&models.Notification{}), role, recipientID).
		Where("id = ? AND read_at IS NULL", id).
		Update("read_at", at)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *repositoryImpl) MarkAllRead(ctx context.Context, role enums.Role, recipientID uuid.UUID, at time.Time) (int64, error) {
	result := recipientScope(r.db.WithContext(ctx).Model(&models.Notification{}), role, recipientID).
		Where("read_at IS NULL").
		Update("read_at", at)
	return result.RowsAffected, result.Error
}
