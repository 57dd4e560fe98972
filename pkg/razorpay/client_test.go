package razorpay

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/frostcrinkle/bakery-backend/pkg/config"
	pkgerrors "github.com/frostcrinkle/bakery-backend/pkg/errors"
)

func testClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	c, err := NewClient(context.Background(), config.RazorpayConfig{
		KeyID:     "rzp_test_key",
		KeySecret: "test-secret",
		BaseURL:   baseURL,
	}, nil)
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	return c
}

func TestCreateOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/orders" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != "rzp_test_key" || pass != "test-secret" {
			t.Fatalf("missing or wrong basic auth")
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		if body["amount"] != float64(48500) {
			t.Fatalf("expected amount 48500 paise, got %v", body["amount"])
		}
		if body["currency"] != "INR" {
			t.Fatalf("expected INR, got %v", body["currency"])
		}
		json.NewEncoder(w).Encode(map[string]any{
			"id": "order_abc123", "amount": 48500, "currency": "INR", "status": "created",
		})
	}))
	defer srv.Close()

	order, err := testClient(t, srv.URL).CreateOrder(context.Background(), 48500, "rcpt-1")
	if err != nil {
		t.Fatalf("CreateOrder failed: %v", err)
	}
	if order.ID != "order_abc123" {
		t.Fatalf("unexpected order id %q", order.ID)
	}
	if order.AmountPaise != 48500 {
		t.Fatalf("unexpected amount %d", order.AmountPaise)
	}
}

func TestCreateOrderGatewayDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := testClient(t, srv.URL).CreateOrder(context.Background(), 1000, "rcpt-2")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeGatewayUnavailable {
		t.Fatalf("expected gateway unavailable, got %v", err)
	}
}

func TestCreateOrderUnreachable(t *testing.T) {
	c := testClient(t, "http://127.0.0.1:1")

	_, err := c.CreateOrder(context.Background(), 1000, "rcpt-3")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeGatewayUnavailable {
		t.Fatalf("expected gateway unavailable, got %v", err)
	}
}

func TestCreateOrderRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"code": "BAD_REQUEST_ERROR", "description": "amount exceeds maximum"},
		})
	}))
	defer srv.Close()

	_, err := testClient(t, srv.URL).CreateOrder(context.Background(), 1000, "rcpt-4")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodePaymentFailed {
		t.Fatalf("expected payment failed, got %v", err)
	}
	if typed.Message() != "amount exceeds maximum" {
		t.Fatalf("expected gateway description surfaced, got %q", typed.Message())
	}
}

func TestCreateOrderInvalidAmount(t *testing.T) {
	_, err := testClient(t, "http://unused").CreateOrder(context.Background(), 0, "rcpt-5")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestVerifySignature(t *testing.T) {
	const secret = "test-secret"
	sig := Sign("order_abc", "pay_xyz", secret)

	if !VerifySignature("order_abc", "pay_xyz", sig, secret) {
		t.Fatal("expected valid signature to verify")
	}
	if VerifySignature("order_abc", "pay_other", sig, secret) {
		t.Fatal("signature must be bound to the payment id")
	}
	if VerifySignature("order_other", "pay_xyz", sig, secret) {
		t.Fatal("signature must be bound to the order id")
	}
	if VerifySignature("order_abc", "pay_xyz", sig, "wrong-secret") {
		t.Fatal("signature must be bound to the secret")
	}
	if VerifySignature("", "pay_xyz", sig, secret) {
		t.Fatal("empty order id must not verify")
	}
	if VerifySignature("order_abc", "pay_xyz", "", secret) {
		t.Fatal("empty signature must not verify")
	}
}

func TestNewClientValidation(t *testing.T) {
	if _, err := NewClient(context.Background(), config.RazorpayConfig{KeySecret: "s"}, nil); err == nil {
		t.Fatal("expected error without key id")
	}
	if _, err := NewClient(context.Background(), config.RazorpayConfig{KeyID: "k"}, nil); err == nil {
		t.Fatal("expected error without key secret")
	}
}
