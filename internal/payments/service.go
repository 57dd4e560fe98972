package payments

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/frostcrinkle/bakery-backend/internal/cart"
	"github.com/frostcrinkle/bakery-backend/pkg/db/models"
	pkgerrors "github.com/frostcrinkle/bakery-backend/pkg/errors"
	"github.com/frostcrinkle/bakery-backend/pkg/logger"
	"github.com/frostcrinkle/bakery-backend/pkg/metrics"
	"github.com/frostcrinkle/bakery-backend/pkg/razorpay"
)

// Proof is the confirmation tuple the gateway hands back after a customer
// completes payment. All three fields are required for verification.
type Proof struct {
	ProviderOrderID string `json:"razorpay_order_id"`
	PaymentID       string `json:"razorpay_payment_id"`
	Signature       string `json:"razorpay_signature"`
}

// Complete reports whether every proof field is present.
func (p Proof) Complete() bool {
	return p.ProviderOrderID != "" && p.PaymentID != "" && p.Signature != ""
}

// Intent is the public projection of a registered payment intent.
type Intent struct {
	ProviderOrderID string `json:"provider_order_id"`
	AmountPaise     int64  `json:"amount_paise"`
	Currency        string `json:"currency"`
	KeyID           string `json:"key_id"`
}

type gatewayClient interface {
	CreateOrder(ctx context.Context, amountPaise int64, receipt string) (*razorpay.Order, error)
	KeyID() string
	KeySecret() string
}

// Service registers payment intents with the gateway and verifies payment
// proofs against them.
type Service interface {
	CreateIntent(ctx context.Context, customerID uuid.UUID) (*Intent, error)
	// VerifyProof checks completeness and the HMAC signature, returning the
	// matching intent row. It does not consume the intent.
	VerifyProof(ctx context.Context, proof Proof) (*models.PaymentIntent, error)
}

type service struct {
	carts   cart.Service
	repo    Repository
	gateway gatewayClient
	metrics *metrics.CheckoutMetrics
	logg    *logger.Logger
}

type NewServiceParams struct {
	Carts   cart.Service
	Repo    Repository
	Gateway gatewayClient
	Metrics *metrics.CheckoutMetrics
	Logger  *logger.Logger
}

func NewService(params NewServiceParams) (Service, error) {
	if params.Carts == nil {
		return nil, errors.New("payments: cart service is required")
	}
	if params.Repo == nil {
		return nil, errors.New("payments: repository is required")
	}
	if params.Gateway == nil {
		return nil, errors.New("payments: gateway client is required")
	}
	if params.Logger == nil {
		return nil, errors.New("payments: logger is required")
	}
	return &service{
		carts:   params.Carts,
		repo:    params.Repo,
		gateway: params.Gateway,
		metrics: params.Metrics,
		logg:    params.Logger,
	}, nil
}

func (s *service) CreateIntent(ctx context.Context, customerID uuid.UUID) (*Intent, error) {
	snapshot, err := s.carts.Snapshot(ctx, customerID)
	if err != nil {
		s.metrics.IncIntent("cart_rejected")
		return nil, err
	}

	receipt := fmt.Sprintf("cart_%s", snapshot.CartID)
	order, err := s.gateway.CreateOrder(ctx, snapshot.AmountPaise(), receipt)
	if err != nil {
		s.metrics.IncIntent("gateway_error")
		return nil, err
	}

	row := &models.PaymentIntent{
		ID:              uuid.New(),
		CustomerID:      customerID,
		CartID:          snapshot.CartID,
		ProviderOrderID: order.ID,
		AmountPaise:     order.AmountPaise,
		Currency:        order.Currency,
	}
	if err := s.repo.Create(ctx, row); err != nil {
		s.metrics.IncIntent("persist_error")
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persisting payment intent")
	}

	s.metrics.IncIntent("created")
	ctx = s.logg.WithFields(ctx, map[string]any{
		"provider_order_id": order.ID,
		"amount_paise":      order.AmountPaise,
	})
	s.logg.Info(ctx, "payment intent registered")

	return &Intent{
		ProviderOrderID: order.ID,
		AmountPaise:     order.AmountPaise,
		Currency:        order.Currency,
		KeyID:           s.gateway.KeyID(),
	}, nil
}

func (s *service) VerifyProof(ctx context.Context, proof Proof) (*models.PaymentIntent, error) {
	// Resolve through the attempt latch so an incomplete proof maps to the
	// same failure outcome a racing client callback would latch.
	gate := NewGate()
	gate.MarkSuccess(proof)
	latched, latchErr, _ := gate.Result()
	if latchErr != nil {
		return nil, latchErr
	}
	proof = latched

	intent, err := s.repo.FindByProviderOrderID(ctx, proof.ProviderOrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeSignatureInvalid, "no payment intent for order").
				WithDetails(map[string]string{"payment_id": proof.PaymentID})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading payment intent")
	}

	if !razorpay.VerifySignature(proof.ProviderOrderID, proof.PaymentID, proof.Signature, s.gateway.KeySecret()) {
		s.logg.Warn(s.logg.WithField(ctx, "payment_id", proof.PaymentID), "payment signature rejected")
		return nil, pkgerrors.New(pkgerrors.CodeSignatureInvalid, "payment signature verification failed").
			WithDetails(map[string]string{"payment_id": proof.PaymentID})
	}
	return intent, nil
}
