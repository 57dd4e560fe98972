package controllers

import (
	"net/http"

	"github.com/frostcrinkle/bakery-backend/api/responses"
	"github.com/frostcrinkle/bakery-backend/api/validators"
	"github.com/frostcrinkle/bakery-backend/internal/address"
	"github.com/frostcrinkle/bakery-backend/internal/checkout"
	"github.com/frostcrinkle/bakery-backend/internal/orders"
	"github.com/frostcrinkle/bakery-backend/internal/payments"
	pkgerrors "github.com/frostcrinkle/bakery-backend/pkg/errors"
	"github.com/frostcrinkle/bakery-backend/pkg/logger"
	"github.com/frostcrinkle/bakery-backend/pkg/types"
)

// CheckoutRequest carries the gateway proof and the delivery address the
// storefront captured during payment.
type CheckoutRequest struct {
	RazorpayOrderID   string `json:"razorpay_order_id" validate:"required"`
	RazorpayPaymentID string `json:"razorpay_payment_id" validate:"required"`
	RazorpaySignature string `json:"razorpay_signature" validate:"required"`

	Address CheckoutAddress `json:"address" validate:"required"`
}

// CheckoutAddress mirrors the tagged address union: method selects which
// fields are read.
type CheckoutAddress struct {
	Method        string   `json:"method" validate:"required"`
	RecipientName string   `json:"recipient_name"`
	Phone         string   `json:"phone"`
	Latitude      *float64 `json:"latitude,omitempty"`
	Longitude     *float64 `json:"longitude,omitempty"`
	DoorNo        string   `json:"door_no,omitempty"`
	Street        string   `json:"street,omitempty"`
	Area          string   `json:"area,omitempty"`
	City          string   `json:"city,omitempty"`
	Pincode       string   `json:"pincode,omitempty"`
	DeliveryNotes string   `json:"delivery_notes,omitempty"`
}

func (req CheckoutRequest) toInput() checkout.PlaceOrderInput {
	input := checkout.PlaceOrderInput{
		Proof: payments.Proof{
			ProviderOrderID: req.RazorpayOrderID,
			PaymentID:       req.RazorpayPaymentID,
			Signature:       req.RazorpaySignature,
		},
		Address: checkout.AddressInput{
			Method: types.AddressMethod(req.Address.Method),
		},
	}
	switch input.Address.Method {
	case types.AddressMethodLocated:
		input.Address.Device = address.DeviceInput{
			RecipientName: req.Address.RecipientName,
			Phone:         req.Address.Phone,
			Latitude:      req.Address.Latitude,
			Longitude:     req.Address.Longitude,
			DeliveryNotes: req.Address.DeliveryNotes,
		}
	default:
		input.Address.Manual = address.ManualInput{
			RecipientName: req.Address.RecipientName,
			Phone:         req.Address.Phone,
			DoorNo:        req.Address.DoorNo,
			Street:        req.Address.Street,
			Area:          req.Address.Area,
			City:          req.Address.City,
			Pincode:       req.Address.Pincode,
			DeliveryNotes: req.Address.DeliveryNotes,
		}
	}
	return input
}

// Checkout places an order from a verified payment proof.
func Checkout(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		customerID, err := customerIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body CheckoutRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.PlaceOrder(r.Context(), customerID, body.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, orders.ToDTO(order))
	}
}
