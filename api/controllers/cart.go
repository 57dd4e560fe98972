package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/frostcrinkle/bakery-backend/api/middleware"
	"github.com/frostcrinkle/bakery-backend/api/responses"
	"github.com/frostcrinkle/bakery-backend/internal/cart"
	pkgerrors "github.com/frostcrinkle/bakery-backend/pkg/errors"
	"github.com/frostcrinkle/bakery-backend/pkg/logger"
)

// CartFetch returns the priced snapshot of the customer's active cart.
func CartFetch(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		customerID, err := customerIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		snapshot, err := svc.Snapshot(r.Context(), customerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, cart.ToDTO(snapshot))
	}
}

func customerIDFromRequest(r *http.Request) (uuid.UUID, error) {
	raw := middleware.CustomerIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "customer context missing")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid customer id")
	}
	return id, nil
}
