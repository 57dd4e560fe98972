package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/frostcrinkle/bakery-backend/pkg/db/models"
	"github.com/frostcrinkle/bakery-backend/pkg/enums"
	"github.com/frostcrinkle/bakery-backend/pkg/pagination"
)

// Repository serves order reads and the status transition writes.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	ListForCustomer(ctx context.Context, customerID uuid.UUID, limit int) ([]models.Order, error)
	// ListAll pages through every order newest first. The returned string is
	// the cursor for the next page, empty when this page is the last.
	ListAll(ctx context.Context, limit int, cursor *pagination.Cursor) ([]models.Order, string, error)
	// AdvanceStatus moves an order from one status to the next with a
	// compare-and-set, so two admins racing the same transition cannot both
	// win. Returns false when the order was no longer at `from`.
	AdvanceStatus(ctx context.Context, orderID uuid.UUID, from, to enums.OrderStatus, updates map[string]any) (bool, error)
	AppendStatusChange(ctx context.Context, change *models.OrderStatusChange) error
	CreateHistoryEntry(ctx context.Context, entry *models.OrderHistoryEntry) error
	ListHistoryForCustomer(ctx context.Context, customerID uuid.UUID, limit int) ([]models.OrderHistoryEntry, error)
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

func (r *repositoryImpl) FindByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("History", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		First(&order, "id = ?", orderID).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repositoryImpl) ListForCustomer(ctx context.Context, customerID uuid.UUID, limit int) ([]models.Order, error) {
	var rows []models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("customer_id = ?", customerID).
		Order("placed_at DESC").
		Limit(clampLimit(limit)).
		Find(&rows).Error
	return rows, err
}

func (r *repositoryImpl) ListAll(ctx context.Context, limit int, cursor *pagination.Cursor) ([]models.Order, string, error) {
	limit = pagination.NormalizeLimit(limit)

	query := r.db.WithContext(ctx).
		Preload("Items").
		Order("placed_at DESC, id DESC")
	if cursor != nil {
		query = query.Where(
			"placed_at < ? OR (placed_at = ? AND id < ?)",
			cursor.Ts, cursor.Ts, cursor.ID,
		)
	}

	// Fetch one extra row to learn whether a next page exists.
	var rows []models.Order
	if err := query.Limit(limit + 1).Find(&rows).Error; err != nil {
		return nil, "", err
	}

	next := ""
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[limit-1]
		next = pagination.EncodeCursor(pagination.Cursor{Ts: last.PlacedAt, ID: last.ID})
	}
	return rows, next, nil
}

func (r *repositoryImpl) AdvanceStatus(ctx context.Context, orderID uuid.UUID, from, to enums.OrderStatus, updates map[string]any) (bool, error) {
	if updates == nil {
		updates = map[string]any{}
	}
	updates["status"] = to
	result := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ?", orderID, from).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *repositoryImpl) AppendStatusChange(ctx context.Context, change *models.OrderStatusChange) error {
	return r.db.WithContext(ctx).Create(change).Error
}

func (r *repositoryImpl) CreateHistoryEntry(ctx context.Context, entry *models.OrderHistoryEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repositoryImpl) ListHistoryForCustomer(ctx context.Context, customerID uuid.UUID, limit int) ([]models.OrderHistoryEntry, error) {
	var rows []models.OrderHistoryEntry
	err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("delivered_at DESC").
		Limit(clampLimit(limit)).
		Find(&rows).Error
	return rows, err
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > 100 {
		return 50
	}
	return limit
}
