package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/frostcrinkle/bakery-backend/internal/address"
	"github.com/frostcrinkle/bakery-backend/internal/cart"
	"github.com/frostcrinkle/bakery-backend/internal/customers"
	"github.com/frostcrinkle/bakery-backend/internal/notifications"
	"github.com/frostcrinkle/bakery-backend/internal/payments"
	"github.com/frostcrinkle/bakery-backend/pkg/db"
	"github.com/frostcrinkle/bakery-backend/pkg/db/models"
	"github.com/frostcrinkle/bakery-backend/pkg/enums"
	pkgerrors "github.com/frostcrinkle/bakery-backend/pkg/errors"
	"github.com/frostcrinkle/bakery-backend/pkg/logger"
	"github.com/frostcrinkle/bakery-backend/pkg/metrics"
	"github.com/frostcrinkle/bakery-backend/pkg/outbox"
	"github.com/frostcrinkle/bakery-backend/pkg/outbox/payloads"
	"github.com/frostcrinkle/bakery-backend/pkg/types"
)

// AddressInput is the raw delivery address as submitted, resolved against
// the service area during placement.
type AddressInput struct {
	Method types.AddressMethod
	Device address.DeviceInput
	Manual address.ManualInput
}

// PlaceOrderInput is everything checkout needs besides the authenticated
// customer: the gateway proof and the delivery address.
type PlaceOrderInput struct {
	Proof   payments.Proof
	Address AddressInput
}

// Service turns a verified payment into an order in one transaction.
type Service interface {
	PlaceOrder(ctx context.Context, customerID uuid.UUID, input PlaceOrderInput) (*models.Order, error)
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
	carts         cart.Service
	cartRepo      cart.Repository
	payments      payments.Service
	intents       payments.Repository
	resolver      *address.Resolver
	customers     *customers.Repository
	notifications notifications.Service
	outbox        outboxEmitter
	metrics       *metrics.CheckoutMetrics
	logg          *logger.Logger
}

type NewServiceParams struct {
	Tx            txRunner
	Repo          Repository
	Carts         cart.Service
	CartRepo      cart.Repository
	Payments      payments.Service
	Intents       payments.Repository
	Resolver      *address.Resolver
	Customers     *customers.Repository
	Notifications notifications.Service
	Outbox        outboxEmitter
	Metrics       *metrics.CheckoutMetrics
	Logger        *logger.Logger
}

func NewService(params NewServiceParams) (Service, error) {
	switch {
	case params.Tx == nil:
		return nil, errors.New("checkout: transaction runner is required")
	case params.Repo == nil:
		return nil, errors.New("checkout: repository is required")
	case params.Carts == nil:
		return nil, errors.New("checkout: cart service is required")
	case params.CartRepo == nil:
		return nil, errors.New("checkout: cart repository is required")
	case params.Payments == nil:
		return nil, errors.New("checkout: payments service is required")
	case params.Intents == nil:
		return nil, errors.New("checkout: intent repository is required")
	case params.Resolver == nil:
		return nil, errors.New("checkout: address resolver is required")
	case params.Customers == nil:
		return nil, errors.New("checkout: customers repository is required")
	case params.Notifications == nil:
		return nil, errors.New("checkout: notifications service is required")
	case params.Outbox == nil:
		return nil, errors.New("checkout: outbox emitter is required")
	case params.Logger == nil:
		return nil, errors.New("checkout: logger is required")
	}
	return &service{
		tx:            params.Tx,
		repo:          params.Repo,
		carts:         params.Carts,
		cartRepo:      params.CartRepo,
		payments:      params.Payments,
		intents:       params.Intents,
		resolver:      params.Resolver,
		customers:     params.Customers,
		notifications: params.Notifications,
		outbox:        params.Outbox,
		metrics:       params.Metrics,
		logg:          params.Logger,
	}, nil
}

func (s *service) PlaceOrder(ctx context.Context, customerID uuid.UUID, input PlaceOrderInput) (*models.Order, error) {
	started := time.Now()
	order, outcome, err := s.placeOrder(ctx, customerID, input)
	s.metrics.IncPlacement(outcome)
	s.metrics.ObservePlacementDuration(outcome, time.Since(started))
	return order, err
}

func (s *service) placeOrder(ctx context.Context, customerID uuid.UUID, input PlaceOrderInput) (*models.Order, string, error) {
	intent, err := s.payments.VerifyProof(ctx, input.Proof)
	if err != nil {
		return nil, "proof_rejected", err
	}
	if intent.CustomerID != customerID {
		return nil, "proof_rejected", pkgerrors.New(pkgerrors.CodeForbidden, "payment intent belongs to another customer")
	}

	// A proof that already produced an order returns that order.
	if existing, err := s.repo.FindByPaymentOrderID(ctx, intent.ProviderOrderID); err == nil {
		return existing, "replayed", nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "error", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "checking for existing order")
	}

	snapshot, err := s.carts.Snapshot(ctx, customerID)
	if err != nil {
		return nil, "cart_rejected", err
	}
	if snapshot.CartID != intent.CartID {
		return nil, "cart_rejected", pkgerrors.New(pkgerrors.CodeValidation, "cart changed since payment intent")
	}
	if snapshot.AmountPaise() != intent.AmountPaise {
		return nil, "cart_rejected", pkgerrors.New(pkgerrors.CodeValidation, "cart total no longer matches the paid amount")
	}

	resolved, notes, err := s.resolveAddress(input.Address, snapshot.HasWeightPricedLine())
	if err != nil {
		return nil, "address_rejected", err
	}

	now := time.Now().UTC()
	order := buildOrder(customerID, snapshot, intent, input.Proof, resolved, notes, now)

	var lowStock []models.Item
	txErr := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		consumed, err := s.intents.WithTx(tx).Consume(ctx, intent.ID, now)
		if err != nil {
			return err
		}
		if !consumed {
			return errIntentConsumed
		}

		for _, line := range snapshot.Lines {
			ok, err := repo.DecrementStock(ctx, line.ItemID, line.Quantity)
			if err != nil {
				return err
			}
			if !ok {
				item, err := repo.GetItem(ctx, line.ItemID)
				if err != nil {
					return err
				}
				return pkgerrors.New(pkgerrors.CodeInsufficientStock, fmt.Sprintf(
					"Insufficient stock for item: %s. Available: %d, Requested: %d",
					item.Name, item.Stock, line.Quantity))
			}
			item, err := repo.GetItem(ctx, line.ItemID)
			if err != nil {
				return err
			}
			if item.Stock <= item.LowStockThreshold {
				lowStock = append(lowStock, *item)
			}
		}

		if err := repo.CreateOrder(ctx, order); err != nil {
			return err
		}
		if err := s.cartRepo.WithTx(tx).MarkConverted(ctx, snapshot.CartID, now); err != nil {
			return err
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderPlaced,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{CustomerID: customerID, Role: string(enums.RoleCustomer)},
			OccurredAt:    now,
			Data: payloads.OrderPlacedEvent{
				OrderID:        order.ID,
				CustomerID:     customerID,
				PaymentOrderID: intent.ProviderOrderID,
				Total:          order.Total.StringFixed(2),
				ItemCount:      snapshot.ItemCount(),
				PlacedAt:       now,
			},
		})
	})
	if txErr != nil {
		return s.mapPlacementFailure(ctx, intent.ProviderOrderID, input.Proof.PaymentID, txErr)
	}

	s.afterPlacement(ctx, order, lowStock)
	return order, "placed", nil
}

// errIntentConsumed signals a concurrent placement that won the intent.
var errIntentConsumed = errors.New("payment intent already consumed")

func (s *service) mapPlacementFailure(ctx context.Context, providerOrderID, paymentID string, txErr error) (*models.Order, string, error) {
	// A consumed intent or a duplicate payment_order_id row both mean a
	// concurrent placement finished first; hand back its order.
	if errors.Is(txErr, errIntentConsumed) || db.IsUniqueViolation(txErr, "") {
		if existing, err := s.repo.FindByPaymentOrderID(ctx, providerOrderID); err == nil {
			return existing, "replayed", nil
		}
		return nil, "error", pkgerrors.Wrap(pkgerrors.CodeDependency, txErr,
			"order state unknown, contact support with your payment id").
			WithDetails(map[string]string{"payment_id": paymentID})
	}

	if typed := pkgerrors.As(txErr); typed != nil {
		if typed.Code() == pkgerrors.CodeInsufficientStock {
			return nil, "insufficient_stock", txErr
		}
		return nil, "rejected", txErr
	}

	return nil, "error", pkgerrors.Wrap(pkgerrors.CodeDependency, txErr,
		"order state unknown, contact support with your payment id").
		WithDetails(map[string]string{"payment_id": paymentID})
}

func (s *service) resolveAddress(input AddressInput, requireNotes bool) (*types.DeliveryAddress, *string, error) {
	switch input.Method {
	case types.AddressMethodLocated:
		resolved, err := s.resolver.ResolveFromDevice(input.Device, requireNotes)
		return resolved, optionalNotes(input.Device.DeliveryNotes), err
	case types.AddressMethodManual:
		resolved, err := s.resolver.ResolveFromManualFields(input.Manual, requireNotes)
		return resolved, optionalNotes(input.Manual.DeliveryNotes), err
	default:
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown address method").
			WithDetails([]address.FieldError{{Field: "method", Message: "must be located or manual"}})
	}
}

func optionalNotes(notes string) *string {
	if notes == "" {
		return nil
	}
	return &notes
}

func buildOrder(customerID uuid.UUID, snapshot *cart.Snapshot, intent *models.PaymentIntent,
	proof payments.Proof, resolved *types.DeliveryAddress, notes *string, now time.Time) *models.Order {

	orderID := uuid.New()
	items := make([]models.OrderItem, 0, len(snapshot.Lines))
	for _, line := range snapshot.Lines {
		itemID := line.ItemID
		items = append(items, models.OrderItem{
			ID:               uuid.New(),
			OrderID:          orderID,
			ItemID:           &itemID,
			Name:             line.Name,
			Category:         line.Category,
			Quantity:         line.Quantity,
			SelectedWeightKg: line.SelectedWeightKg,
			EggType:          line.EggType,
			UnitPrice:        line.UnitPrice,
			LineTotal:        line.LineTotal,
		})
	}

	initial := enums.OrderStatusConfirmed
	return &models.Order{
		ID:               orderID,
		CustomerID:       customerID,
		CartID:           snapshot.CartID,
		Status:           initial,
		DeliveryAddress:  *resolved,
		DeliveryNotes:    notes,
		Subtotal:         snapshot.Subtotal,
		EgglessSurcharge: snapshot.EgglessSurcharge,
		Total:            snapshot.Total,
		PaymentOrderID:   intent.ProviderOrderID,
		PaymentID:        proof.PaymentID,
		PaymentSignature: proof.Signature,
		PlacedAt:         now,
		Items:            items,
		History: []models.OrderStatusChange{{
			ID:        uuid.New(),
			OrderID:   orderID,
			ToStatus:  initial,
			ActorID:   &customerID,
			ActorRole: enums.RoleCustomer,
		}},
	}
}

// afterPlacement runs the best-effort fan-out once the transaction has
// committed. Failures here never undo a placed order.
func (s *service) afterPlacement(ctx context.Context, order *models.Order, lowStock []models.Item) {
	customerName := "a customer"
	if customer, err := s.customers.FindByID(ctx, order.CustomerID); err == nil {
		customerName = customer.Name
	}

	if err := s.notifications.OrderPlaced(ctx, order, customerName); err != nil {
		s.logg.Error(ctx, "order placed fan-out incomplete", err)
	}
	for _, item := range lowStock {
		if err := s.notifications.LowStock(ctx, item); err != nil {
			s.logg.Error(ctx, "low stock fan-out incomplete", err)
		}
	}

	ctx = s.logg.WithFields(ctx, map[string]any{
		"order_id":         order.ID.String(),
		"payment_order_id": order.PaymentOrderID,
		"total":            order.Total.StringFixed(2),
	})
	s.logg.Info(ctx, "order placed")
}
