package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/frostcrinkle/bakery-backend/pkg/db/models"
	"github.com/frostcrinkle/bakery-backend/pkg/enums"
	pkgerrors "github.com/frostcrinkle/bakery-backend/pkg/errors"
	"github.com/frostcrinkle/bakery-backend/pkg/pagination"
)

func TestAdminOrdersListReturnsFirstPage(t *testing.T) {
	svc := &testOrdersService{
		listAllFn: func(_ context.Context, params pagination.Params) ([]models.Order, string, error) {
			if params.Limit != 50 {
				t.Fatalf("expected default limit 50 got %d", params.Limit)
			}
			if params.Cursor != "" {
				t.Fatalf("expected empty cursor got %q", params.Cursor)
			}
			return []models.Order{*sampleOrder(uuid.New()), *sampleOrder(uuid.New())}, "next-page-token", nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/orders", nil)
	req = asAdmin(req, uuid.New())
	resp := httptest.NewRecorder()
	AdminOrdersList(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var envelope struct {
		Data struct {
			Orders     []json.RawMessage `json:"orders"`
			NextCursor string            `json:"next_cursor"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if len(envelope.Data.Orders) != 2 {
		t.Fatalf("expected 2 orders got %d", len(envelope.Data.Orders))
	}
	if envelope.Data.NextCursor != "next-page-token" {
		t.Fatalf("expected next cursor in payload got %q", envelope.Data.NextCursor)
	}
}

func TestAdminOrdersListForwardsCursor(t *testing.T) {
	svc := &testOrdersService{
		listAllFn: func(_ context.Context, params pagination.Params) ([]models.Order, string, error) {
			if params.Cursor != "opaque-cursor" {
				t.Fatalf("expected cursor forwarded got %q", params.Cursor)
			}
			if params.Limit != 10 {
				t.Fatalf("expected limit 10 got %d", params.Limit)
			}
			return []models.Order{*sampleOrder(uuid.New())}, "", nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/orders?limit=10&cursor=opaque-cursor", nil)
	req = asAdmin(req, uuid.New())
	resp := httptest.NewRecorder()
	AdminOrdersList(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var envelope struct {
		Data struct {
			Orders     []json.RawMessage `json:"orders"`
			NextCursor string            `json:"next_cursor"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if envelope.Data.NextCursor != "" {
		t.Fatalf("expected no next cursor on last page got %q", envelope.Data.NextCursor)
	}
}

func TestAdminOrderStatusAdvances(t *testing.T) {
	adminID := uuid.New()
	order := sampleOrder(uuid.New())
	svc := &testOrdersService{
		advanceFn: func(_ context.Context, oid uuid.UUID, target enums.OrderStatus, actorID uuid.UUID) (*models.Order, error) {
			if oid != order.ID {
				t.Fatalf("unexpected order %s", oid)
			}
			if target != enums.OrderStatusPacked {
				t.Fatalf("unexpected target %s", target)
			}
			if actorID != adminID {
				t.Fatalf("unexpected actor %s", actorID)
			}
			advanced := *order
			advanced.Status = enums.OrderStatusPacked
			return &advanced, nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/admin/v1/orders/"+order.ID.String()+"/status", strings.NewReader(`{"status":"Packed"}`))
	req.Header.Set("Content-Type", "application/json")
	req = asAdmin(req, adminID)
	req = addRouteParam(req, "orderId", order.ID.String())
	resp := httptest.NewRecorder()
	AdminOrderStatus(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	var envelope struct {
		Data struct {
			Status string `json:"status"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if envelope.Data.Status != "Packed" {
		t.Fatalf("unexpected status %q", envelope.Data.Status)
	}
}

func TestAdminOrderStatusSurfacesTransitionConflict(t *testing.T) {
	order := sampleOrder(uuid.New())
	svc := &testOrdersService{
		advanceFn: func(context.Context, uuid.UUID, enums.OrderStatus, uuid.UUID) (*models.Order, error) {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "cannot move order from Confirmed to Delivered")
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/admin/v1/orders/"+order.ID.String()+"/status", strings.NewReader(`{"status":"Delivered"}`))
	req.Header.Set("Content-Type", "application/json")
	req = asAdmin(req, uuid.New())
	req = addRouteParam(req, "orderId", order.ID.String())
	resp := httptest.NewRecorder()
	AdminOrderStatus(svc, testLogger())(resp, req)

	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "cannot move order") {
		t.Fatalf("expected transition message in body: %s", resp.Body.String())
	}
}

func TestAdminOrderStatusRequiresBodyStatus(t *testing.T) {
	order := sampleOrder(uuid.New())
	req := httptest.NewRequest(http.MethodPost, "/api/admin/v1/orders/"+order.ID.String()+"/status", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	req = asAdmin(req, uuid.New())
	req = addRouteParam(req, "orderId", order.ID.String())
	resp := httptest.NewRecorder()
	AdminOrderStatus(&testOrdersService{}, testLogger())(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}
