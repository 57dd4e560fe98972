package controllers

import (
	"context"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/frostcrinkle/bakery-backend/api/middleware"
	"github.com/frostcrinkle/bakery-backend/pkg/enums"
	"github.com/frostcrinkle/bakery-backend/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func addRouteParam(req *http.Request, key, value string) *http.Request {
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
}

func asCustomer(req *http.Request, customerID uuid.UUID) *http.Request {
	ctx := middleware.WithCustomerID(req.Context(), customerID.String())
	ctx = middleware.WithRole(ctx, string(enums.RoleCustomer))
	return req.WithContext(ctx)
}

func asAdmin(req *http.Request, adminID uuid.UUID) *http.Request {
	ctx := middleware.WithCustomerID(req.Context(), adminID.String())
	ctx = middleware.WithRole(ctx, string(enums.RoleAdmin))
	return req.WithContext(ctx)
}
