package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/frostcrinkle/bakery-backend/internal/notifications"
	"github.com/frostcrinkle/bakery-backend/pkg/db/models"
	"github.com/frostcrinkle/bakery-backend/pkg/enums"
	pkgerrors "github.com/frostcrinkle/bakery-backend/pkg/errors"
	"github.com/frostcrinkle/bakery-backend/pkg/logger"
	"github.com/frostcrinkle/bakery-backend/pkg/metrics"
	"github.com/frostcrinkle/bakery-backend/pkg/outbox"
	"github.com/frostcrinkle/bakery-backend/pkg/outbox/payloads"
	"github.com/frostcrinkle/bakery-backend/pkg/pagination"
)

// Service operates the delivery lifecycle and serves order reads.
type Service interface {
	// Advance moves an order to the target status. Only the immediate
	// successor of the current status is accepted.
	Advance(ctx context.Context, orderID uuid.UUID, target enums.OrderStatus, actorID uuid.UUID) (*models.Order, error)
	GetForCustomer(ctx context.Context, orderID, customerID uuid.UUID) (*models.Order, error)
	Get(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	ListForCustomer(ctx context.Context, customerID uuid.UUID, limit int) ([]models.Order, error)
	ListAll(ctx context.Context, params pagination.Params) ([]models.Order, string, error)
	HistoryForCustomer(ctx context.Context, customerID uuid.UUID, limit int) ([]models.OrderHistoryEntry, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type service struct {
	tx            txRunner
	repo          Repository
	notifications notifications.Service
	outbox        outboxEmitter
	metrics       *metrics.CheckoutMetrics
	logg          *logger.Logger
}

type NewServiceParams struct {
	Tx            txRunner
	Repo          Repository
	Notifications notifications.Service
	Outbox        outboxEmitter
	Metrics       *metrics.CheckoutMetrics
	Logger        *logger.Logger
}

func NewService(params NewServiceParams) (Service, error) {
	switch {
	case params.Tx == nil:
		return nil, errors.New("orders: transaction runner is required")
	case params.Repo == nil:
		return nil, errors.New("orders: repository is required")
	case params.Notifications == nil:
		return nil, errors.New("orders: notifications service is required")
	case params.Outbox == nil:
		return nil, errors.New("orders: outbox emitter is required")
	case params.Logger == nil:
		return nil, errors.New("orders: logger is required")
	}
	return &service{
		tx:            params.Tx,
		repo:          params.Repo,
		notifications: params.Notifications,
		outbox:        params.Outbox,
		metrics:       params.Metrics,
		logg:          params.Logger,
	}, nil
}

func (s *service) Advance(ctx context.Context, orderID uuid.UUID, target enums.OrderStatus, actorID uuid.UUID) (*models.Order, error) {
	if !target.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown order status %q", target))
	}

	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading order")
	}

	from := order.Status
	next, ok := from.Next()
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("order is already %s", from)).
			WithDetails(map[string]string{"current": string(from)})
	}
	if next != target {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("cannot move order from %s to %s", from, target)).
			WithDetails(map[string]string{"current": string(from), "allowed": string(next)})
	}

	now := time.Now().UTC()
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		updates := map[string]any{}
		if target == enums.OrderStatusDelivered {
			updates["delivered_at"] = now
		}
		moved, err := repo.AdvanceStatus(ctx, orderID, from, target, updates)
		if err != nil {
			return err
		}
		if !moved {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order status changed concurrently").
				WithDetails(map[string]string{"attempted": string(target)})
		}

		fromCopy := from
		if err := repo.AppendStatusChange(ctx, &models.OrderStatusChange{
			ID:         uuid.New(),
			OrderID:    orderID,
			FromStatus: &fromCopy,
			ToStatus:   target,
			ActorID:    &actorID,
			ActorRole:  enums.RoleAdmin,
		}); err != nil {
			return err
		}

		if target == enums.OrderStatusDelivered {
			if err := repo.CreateHistoryEntry(ctx, &models.OrderHistoryEntry{
				ID:          uuid.New(),
				OrderID:     orderID,
				CustomerID:  order.CustomerID,
				Total:       order.Total,
				ItemCount:   countItems(order.Items),
				PlacedAt:    order.PlacedAt,
				DeliveredAt: now,
			}); err != nil {
				return err
			}
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderStatusChanged,
			AggregateType: enums.AggregateOrder,
			AggregateID:   orderID,
			Actor:         &outbox.ActorRef{CustomerID: actorID, Role: string(enums.RoleAdmin)},
			OccurredAt:    now,
			Data: payloads.OrderStatusChangedEvent{
				OrderID:    orderID,
				CustomerID: order.CustomerID,
				FromStatus: from,
				ToStatus:   target,
				ChangedAt:  now,
			},
		})
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "advancing order status")
	}

	order.Status = target
	if target == enums.OrderStatusDelivered {
		order.DeliveredAt = &now
	}

	s.metrics.IncTransition(string(target))
	if err := s.notifications.StatusChanged(ctx, order, target); err != nil {
		s.logg.Error(ctx, "status change fan-out incomplete", err)
	}

	ctx = s.logg.WithFields(ctx, map[string]any{
		"order_id":    orderID.String(),
		"from_status": string(from),
		"to_status":   string(target),
	})
	s.logg.Info(ctx, "order status advanced")
	return order, nil
}

func countItems(items []models.OrderItem) int {
	count := 0
	for _, item := range items {
		count += item.Quantity
	}
	return count
}

func (s *service) GetForCustomer(ctx context.Context, orderID, customerID uuid.UUID) (*models.Order, error) {
	order, err := s.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.CustomerID != customerID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return order, nil
}

func (s *service) Get(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading order")
	}
	return order, nil
}

func (s *service) ListForCustomer(ctx context.Context, customerID uuid.UUID, limit int) ([]models.Order, error) {
	rows, err := s.repo.ListForCustomer(ctx, customerID, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing orders")
	}
	return rows, nil
}

func (s *service) ListAll(ctx context.Context, params pagination.Params) ([]models.Order, string, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, next, err := s.repo.ListAll(ctx, params.Limit, cursor)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing orders")
	}
	return rows, next, nil
}

func (s *service) HistoryForCustomer(ctx context.Context, customerID uuid.UUID, limit int) ([]models.OrderHistoryEntry, error) {
	rows, err := s.repo.ListHistoryForCustomer(ctx, customerID, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing order history")
	}
	return rows, nil
}
