package payments

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/frostcrinkle/bakery-backend/pkg/db/models"
	"github.com/frostcrinkle/bakery-backend/pkg/enums"
)

// Repository persists payment intents.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, intent *models.PaymentIntent) error
	FindByProviderOrderID(ctx context.Context, providerOrderID string) (*models.PaymentIntent, error)
	// Consume flips a created intent to consumed. It reports false when the
	// intent was already consumed, which is how replayed proofs are detected.
	Consume(ctx context.Context, intentID uuid.UUID, at time.Time) (bool, error)
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

func (r *repositoryImpl) Create(ctx context.Context, intent *models.PaymentIntent) error {
	return r.db.WithContext(ctx).Create(intent).Error
}

func (r *repositoryImpl) FindByProviderOrderID(ctx context.Context, providerOrderID string) (*models.PaymentIntent, error) {
	var intent models.PaymentIntent
	err := r.db.WithContext(ctx).
		First(&intent, "provider_order_id = ?", providerOrderID).Error
	if err != nil {
		return nil, err
	}
	return &intent, nil
}

func (r *repositoryImpl) Consume(ctx context.Context, intentID uuid.UUID, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.PaymentIntent{}).
		Where("id = ? AND status = ?", intentID, enums.PaymentIntentStatusCreated).
		Updates(map[string]any{
			"status":      enums.PaymentIntentStatusConsumed,
			"consumed_at": at,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}
