package controllers

import (
	"net/http"

	"github.com/frostcrinkle/bakery-backend/api/middleware"
	"github.com/frostcrinkle/bakery-backend/api/responses"
	"github.com/frostcrinkle/bakery-backend/api/validators"
	"github.com/frostcrinkle/bakery-backend/internal/orders"
	"github.com/frostcrinkle/bakery-backend/pkg/enums"
	pkgerrors "github.com/frostcrinkle/bakery-backend/pkg/errors"
	"github.com/frostcrinkle/bakery-backend/pkg/logger"
	"github.com/frostcrinkle/bakery-backend/pkg/pagination"
	"github.com/google/uuid"
)

// AdminOrdersListResponse is one page of the admin order feed.
type AdminOrdersListResponse struct {
	Orders     []orders.OrderDTO `json:"orders"`
	NextCursor string            `json:"next_cursor,omitempty"`
}

// AdminOrdersList returns every order, newest first, cursor paged. This is
// the authoritative view the admin dashboard refetches after a transition.
func AdminOrdersList(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", defaultListLimit, 1, maxListLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, next, err := svc.ListAll(r.Context(), pagination.Params{
			Limit:  limit,
			Cursor: r.URL.Query().Get("cursor"),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, AdminOrdersListResponse{
			Orders:     orders.ToDTOs(list),
			NextCursor: next,
		})
	}
}

// AdminOrderStatusRequest names the transition target.
type AdminOrderStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// AdminOrderStatus advances an order one step along its lifecycle.
func AdminOrderStatus(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body AdminOrderStatusRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actorID := uuid.Nil
		if raw := middleware.CustomerIDFromContext(r.Context()); raw != "" {
			if parsed, parseErr := uuid.Parse(raw); parseErr == nil {
				actorID = parsed
			}
		}

		order, err := svc.Advance(r.Context(), orderID, enums.OrderStatus(body.Status), actorID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, orders.ToDTO(order))
	}
}
