package payments

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/frostcrinkle/bakery-backend/internal/cart"
	"github.com/frostcrinkle/bakery-backend/pkg/db/models"
	"github.com/frostcrinkle/bakery-backend/pkg/enums"
	pkgerrors "github.com/frostcrinkle/bakery-backend/pkg/errors"
	"github.com/frostcrinkle/bakery-backend/pkg/logger"
	"github.com/frostcrinkle/bakery-backend/pkg/razorpay"
)

const testKeySecret = "test_secret_key"

type fakeGateway struct {
	lastAmount  int64
	lastReceipt string
	err         error
}

func (f *fakeGateway) CreateOrder(_ context.Context, amountPaise int64, receipt string) (*razorpay.Order, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.lastAmount = amountPaise
	f.lastReceipt = receipt
	return &razorpay.Order{
		ID:          "order_fake001",
		AmountPaise: amountPaise,
		Currency:    "INR",
		Receipt:     receipt,
		Status:      "created",
	}, nil
}

func (f *fakeGateway) KeyID() string     { return "rzp_test_key" }
func (f *fakeGateway) KeySecret() string { return testKeySecret }

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(
		&models.Customer{},
		&models.Item{},
		&models.CartRecord{},
		&models.CartItem{},
		&models.PaymentIntent{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

func seedCartWithLine(t *testing.T, conn *gorm.DB, price string, qty int) uuid.UUID {
	t.Helper()
	customer := models.Customer{
		ID:           uuid.New(),
		Name:         "Meena",
		Email:        uuid.New().String() + "@example.com",
		PasswordHash: "x",
		Role:         enums.RoleCustomer,
	}
	if err := conn.Create(&customer).Error; err != nil {
		t.Fatalf("seed customer: %v", err)
	}
	item := models.Item{
		ID:       uuid.New(),
		Name:     "Garlic Loaf",
		Category: "breads",
		Price:    decimal.RequireFromString(price),
		Stock:    25,
		IsActive: true,
	}
	if err := conn.Create(&item).Error; err != nil {
		t.Fatalf("seed item: %v", err)
	}
	record := models.CartRecord{
		ID:         uuid.New(),
		CustomerID: customer.ID,
		Status:     enums.CartStatusActive,
	}
	if err := conn.Create(&record).Error; err != nil {
		t.Fatalf("seed cart: %v", err)
	}
	line := models.CartItem{
		ID:       uuid.New(),
		CartID:   record.ID,
		ItemID:   item.ID,
		Quantity: qty,
		EggType:  enums.EggTypeEgg,
	}
	if err := conn.Create(&line).Error; err != nil {
		t.Fatalf("seed line: %v", err)
	}
	return customer.ID
}

func newTestService(t *testing.T, conn *gorm.DB, gateway *fakeGateway) Service {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "payments-test", Output: io.Discard})
	carts, err := cart.NewService(cart.NewServiceParams{
		Repo:   cart.NewRepository(conn),
		Logger: logg,
	})
	if err != nil {
		t.Fatalf("cart service: %v", err)
	}
	svc, err := NewService(NewServiceParams{
		Carts:   carts,
		Repo:    NewRepository(conn),
		Gateway: gateway,
		Logger:  logg,
	})
	if err != nil {
		t.Fatalf("payments service: %v", err)
	}
	return svc
}

func TestCreateIntentRegistersGatewayOrder(t *testing.T) {
	conn := newTestDB(t)
	gateway := &fakeGateway{}
	svc := newTestService(t, conn, gateway)
	customerID := seedCartWithLine(t, conn, "150.00", 2)

	intent, err := svc.CreateIntent(context.Background(), customerID)
	if err != nil {
		t.Fatalf("create intent: %v", err)
	}
	if intent.AmountPaise != 30000 {
		t.Fatalf("amount = %d, want 30000", intent.AmountPaise)
	}
	if gateway.lastAmount != 30000 {
		t.Fatalf("gateway got amount %d", gateway.lastAmount)
	}
	if intent.ProviderOrderID != "order_fake001" {
		t.Fatalf("provider order id = %q", intent.ProviderOrderID)
	}
	if intent.KeyID != "rzp_test_key" {
		t.Fatalf("key id = %q", intent.KeyID)
	}

	var row models.PaymentIntent
	if err := conn.First(&row, "provider_order_id = ?", "order_fake001").Error; err != nil {
		t.Fatalf("intent row not persisted: %v", err)
	}
	if row.AmountPaise != 30000 || row.Status != enums.PaymentIntentStatusCreated {
		t.Fatalf("unexpected row %+v", row)
	}
}

func TestCreateIntentPropagatesGatewayError(t *testing.T) {
	conn := newTestDB(t)
	gateway := &fakeGateway{
		err: pkgerrors.New(pkgerrors.CodeGatewayUnavailable, "payment gateway unreachable"),
	}
	svc := newTestService(t, conn, gateway)
	customerID := seedCartWithLine(t, conn, "150.00", 1)

	_, err := svc.CreateIntent(context.Background(), customerID)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeGatewayUnavailable {
		t.Fatalf("expected gateway unavailable, got %v", err)
	}

	var count int64
	if err := conn.Model(&models.PaymentIntent{}).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Fatalf("no intent row expected on gateway failure, found %d", count)
	}
}

func TestCreateIntentEmptyCart(t *testing.T) {
	conn := newTestDB(t)
	svc := newTestService(t, conn, &fakeGateway{})

	_, err := svc.CreateIntent(context.Background(), uuid.New())
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeEmptyCart {
		t.Fatalf("expected empty cart, got %v", err)
	}
}

func TestVerifyProof(t *testing.T) {
	conn := newTestDB(t)
	gateway := &fakeGateway{}
	svc := newTestService(t, conn, gateway)
	customerID := seedCartWithLine(t, conn, "150.00", 1)

	intent, err := svc.CreateIntent(context.Background(), customerID)
	if err != nil {
		t.Fatalf("create intent: %v", err)
	}

	proof := Proof{
		ProviderOrderID: intent.ProviderOrderID,
		PaymentID:       "pay_abc",
		Signature:       razorpay.Sign(intent.ProviderOrderID, "pay_abc", testKeySecret),
	}
	row, err := svc.VerifyProof(context.Background(), proof)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if row.ProviderOrderID != intent.ProviderOrderID {
		t.Fatalf("wrong intent returned: %+v", row)
	}

	proof.Signature = "0000"
	if _, err := svc.VerifyProof(context.Background(), proof); pkgerrors.As(err) == nil ||
		pkgerrors.As(err).Code() != pkgerrors.CodeSignatureInvalid {
		t.Fatalf("expected signature invalid, got %v", err)
	}

	_, err = svc.VerifyProof(context.Background(), Proof{ProviderOrderID: intent.ProviderOrderID})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodePaymentFailed {
		t.Fatalf("expected payment failed for incomplete proof, got %v", err)
	}
	if typed.Message() != "payment data incomplete" {
		t.Fatalf("unexpected message %q", typed.Message())
	}

	unknown := Proof{
		ProviderOrderID: "order_unknown",
		PaymentID:       "pay_abc",
		Signature:       razorpay.Sign("order_unknown", "pay_abc", testKeySecret),
	}
	if _, err := svc.VerifyProof(context.Background(), unknown); pkgerrors.As(err) == nil ||
		pkgerrors.As(err).Code() != pkgerrors.CodeSignatureInvalid {
		t.Fatalf("expected signature invalid for unknown order, got %v", err)
	}
}

func TestConsumeIsSingleUse(t *testing.T) {
	conn := newTestDB(t)
	repo := NewRepository(conn)

	intent := models.PaymentIntent{
		ID:              uuid.New(),
		CustomerID:      uuid.New(),
		CartID:          uuid.New(),
		ProviderOrderID: "order_consume",
		AmountPaise:     10000,
		Currency:        "INR",
		Status:          enums.PaymentIntentStatusCreated,
	}
	if err := conn.Create(&intent).Error; err != nil {
		t.Fatalf("seed intent: %v", err)
	}

	now := time.Now().UTC()
	first, err := repo.Consume(context.Background(), intent.ID, now)
	if err != nil || !first {
		t.Fatalf("first consume = (%v, %v)", first, err)
	}
	second, err := repo.Consume(context.Background(), intent.ID, now)
	if err != nil {
		t.Fatalf("second consume: %v", err)
	}
	if second {
		t.Fatal("second consume should report already consumed")
	}
}
