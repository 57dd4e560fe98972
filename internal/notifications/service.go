package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/frostcrinkle/bakery-backend/pkg/config"
	"github.com/frostcrinkle/bakery-backend/pkg/db/models"
	"github.com/frostcrinkle/bakery-backend/pkg/enums"
	pkgerrors "github.com/frostcrinkle/bakery-backend/pkg/errors"
	"github.com/frostcrinkle/bakery-backend/pkg/logger"
)

// adminWideKey is the mirror slot for notifications addressed to the whole
// admin role rather than one account.
const adminWideKey = "all"

type feedCache interface {
	PushCapped(ctx context.Context, key string, value any, cap int64) error
	ListRange(ctx context.Context, key string, start, stop int64) ([]string, error)
	NotificationFeedKey(role, recipientID string) string
}

// Service fans lifecycle notifications out to the durable store, the
// bounded cache mirror, and the in-process bus, and serves feed reads.
type Service interface {
	OrderPlaced(ctx context.Context, order *models.Order, customerName string) error
	StatusChanged(ctx context.Context, order *models.Order, to enums.OrderStatus) error
	LowStock(ctx context.Context, item models.Item) error

	Feed(ctx context.Context, role enums.Role, recipientID uuid.UUID, limit int) ([]models.Notification, error)
	CachedFeed(ctx context.Context, role enums.Role, recipientID uuid.UUID) ([]Event, error)
	UnreadCount(ctx context.Context, role enums.Role, recipientID uuid.UUID) (int64, error)
	MarkRead(ctx context.Context, id uuid.UUID, role enums.Role, recipientID uuid.UUID) error
	MarkAllRead(ctx context.Context, role enums.Role, recipientID uuid.UUID) (int64, error)
	Subscribe(role enums.Role, recipientID uuid.UUID, buffer int) (<-chan Event, func())
}

type service struct {
	repo     Repository
	cache    feedCache
	bus      *Bus
	cacheCap int64
	logg     *logger.Logger
}

type NewServiceParams struct {
	Repo   Repository
	Cache  feedCache
	Bus    *Bus
	Config config.NotificationsConfig
	Logger *logger.Logger
}

func NewService(params NewServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, errors.New("notifications: repository is required")
	}
	if params.Bus == nil {
		return nil, errors.New("notifications: bus is required")
	}
	if params.Logger == nil {
		return nil, errors.New("notifications: logger is required")
	}
	cacheCap := int64(params.Config.CacheCap)
	if cacheCap <= 0 {
		cacheCap = 20
	}
	return &service{
		repo:     params.Repo,
		cache:    params.Cache,
		bus:      params.Bus,
		cacheCap: cacheCap,
		logg:     params.Logger,
	}, nil
}

func (s *service) OrderPlaced(ctx context.Context, order *models.Order, customerName string) error {
	customerID := order.CustomerID
	orderID := order.ID
	return multierr.Combine(
		s.deliver(ctx, &models.Notification{
			RecipientID:   &customerID,
			RecipientRole: enums.RoleCustomer,
			Type:          enums.NotificationTypeOrderPlaced,
			Message:       customerOrderPlacedMessage(orderID),
			OrderID:       &orderID,
		}),
		s.deliver(ctx, &models.Notification{
			RecipientRole: enums.RoleAdmin,
			Type:          enums.NotificationTypeOrderPlaced,
			Message:       adminOrderPlacedMessage(orderID, customerName),
			OrderID:       &orderID,
		}),
	)
}

func (s *service) StatusChanged(ctx context.Context, order *models.Order, to enums.OrderStatus) error {
	notifType, message := customerStatusMessage(order.ID, to)
	if notifType == "" {
		return nil
	}
	customerID := order.CustomerID
	orderID := order.ID
	err := s.deliver(ctx, &models.Notification{
		RecipientID:   &customerID,
		RecipientRole: enums.RoleCustomer,
		Type:          notifType,
		Message:       message,
		OrderID:       &orderID,
	})
	if to == enums.OrderStatusDelivered {
		err = multierr.Append(err, s.deliver(ctx, &models.Notification{
			RecipientRole: enums.RoleAdmin,
			Type:          enums.NotificationTypeOrderDelivered,
			Message:       adminOrderDeliveredMessage(orderID),
			OrderID:       &orderID,
		}))
	}
	return err
}

func (s *service) LowStock(ctx context.Context, item models.Item) error {
	return s.deliver(ctx, &models.Notification{
		RecipientRole: enums.RoleAdmin,
		Type:          enums.NotificationTypeLowStock,
		Message:       adminLowStockMessage(item.Name, item.Stock),
	})
}

// deliver writes the durable row first, then the cache mirror and the bus.
// The tiers are independent: a failed durable write is reported but does
// not stop the mirror or the broadcast.
func (s *service) deliver(ctx context.Context, notification *models.Notification) error {
	if notification.ID == uuid.Nil {
		notification.ID = uuid.New()
	}
	if notification.CreatedAt.IsZero() {
		notification.CreatedAt = time.Now().UTC()
	}

	var combined error
	if err := s.repo.Create(ctx, notification); err != nil {
		s.logg.Error(ctx, "durable notification write failed", err)
		combined = multierr.Append(combined, err)
	}

	event := Event{
		ID:        notification.ID,
		Type:      notification.Type,
		Message:   notification.Message,
		OrderID:   notification.OrderID,
		CreatedAt: notification.CreatedAt.Format(time.RFC3339),
	}

	if s.cache != nil {
		if err := s.mirror(ctx, notification, event); err != nil {
			s.logg.Error(ctx, "notification cache mirror failed", err)
			combined = multierr.Append(combined, err)
		}
	}

	s.bus.Publish(notification.RecipientRole, notification.RecipientID, event)
	return combined
}

func (s *service) mirror(ctx context.Context, notification *models.Notification, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	recipient := adminWideKey
	if notification.RecipientID != nil {
		recipient = notification.RecipientID.String()
	}
	key := s.cache.NotificationFeedKey(string(notification.RecipientRole), recipient)
	return s.cache.PushCapped(ctx, key, payload, s.cacheCap)
}

func (s *service) Feed(ctx context.Context, role enums.Role, recipientID uuid.UUID, limit int) ([]models.Notification, error) {
	rows, err := s.repo.ListForRecipient(ctx, role, recipientID, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing notifications")
	}
	return rows, nil
}

// CachedFeed serves the bounded mirror. Admins see their direct feed merged
// with the role-wide one, newest first, still capped.
func (s *service) CachedFeed(ctx context.Context, role enums.Role, recipientID uuid.UUID) ([]Event, error) {
	if s.cache == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notification cache not configured")
	}

	keys := []string{s.cache.NotificationFeedKey(string(role), recipientID.String())}
	if role == enums.RoleAdmin {
		keys = append(keys, s.cache.NotificationFeedKey(string(role), adminWideKey))
	}

	events := make([]Event, 0, s.cacheCap)
	for _, key := range keys {
		raw, err := s.cache.ListRange(ctx, key, 0, s.cacheCap-1)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reading notification mirror")
		}
		for _, entry := range raw {
			var event Event
			if err := json.Unmarshal([]byte(entry), &event); err != nil {
				continue
			}
			events = append(events, event)
		}
	}

	// RFC3339 UTC timestamps compare chronologically as strings.
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].CreatedAt > events[j].CreatedAt
	})
	if int64(len(events)) > s.cacheCap {
		events = events[:s.cacheCap]
	}
	return events, nil
}

func (s *service) UnreadCount(ctx context.Context, role enums.Role, recipientID uuid.UUID) (int64, error) {
	count, err := s.repo.UnreadCount(ctx, role, recipientID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "counting unread notifications")
	}
	return count, nil
}

func (s *service) MarkRead(ctx context.Context, id uuid.UUID, role enums.Role, recipientID uuid.UUID) error {
	done, err := s.repo.MarkRead(ctx, id, role, recipientID, time.Now().UTC())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marking notification read")
	}
	if !done {
		return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found or already read")
	}
	return nil
}

func (s *service) MarkAllRead(ctx context.Context, role enums.Role, recipientID uuid.UUID) (int64, error) {
	count, err := s.repo.MarkAllRead(ctx, role, recipientID, time.Now().UTC())
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marking notifications read")
	}
	return count, nil
}

func (s *service) Subscribe(role enums.Role, recipientID uuid.UUID, buffer int) (<-chan Event, func()) {
	return s.bus.Subscribe(role, recipientID, buffer)
}
