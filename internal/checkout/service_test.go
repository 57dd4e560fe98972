package checkout

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/frostcrinkle/bakery-backend/internal/address"
	"github.com/frostcrinkle/bakery-backend/internal/cart"
	"github.com/frostcrinkle/bakery-backend/internal/customers"
	"github.com/frostcrinkle/bakery-backend/internal/notifications"
	"github.com/frostcrinkle/bakery-backend/internal/payments"
	"github.com/frostcrinkle/bakery-backend/pkg/config"
	"github.com/frostcrinkle/bakery-backend/pkg/db"
	"github.com/frostcrinkle/bakery-backend/pkg/db/models"
	"github.com/frostcrinkle/bakery-backend/pkg/enums"
	pkgerrors "github.com/frostcrinkle/bakery-backend/pkg/errors"
	"github.com/frostcrinkle/bakery-backend/pkg/logger"
	"github.com/frostcrinkle/bakery-backend/pkg/outbox"
	"github.com/frostcrinkle/bakery-backend/pkg/razorpay"
	"github.com/frostcrinkle/bakery-backend/pkg/types"
)

const testKeySecret = "test_secret_key"

type fakeGateway struct {
	orderSeq int
}

func (f *fakeGateway) CreateOrder(_ context.Context, amountPaise int64, receipt string) (*razorpay.Order, error) {
	f.orderSeq++
	return &razorpay.Order{
		ID:          fmt.Sprintf("order_fake%03d", f.orderSeq),
		AmountPaise: amountPaise,
		Currency:    "INR",
		Receipt:     receipt,
		Status:      "created",
	}, nil
}

func (f *fakeGateway) KeyID() string     { return "rzp_test_key" }
func (f *fakeGateway) KeySecret() string { return testKeySecret }

type fixture struct {
	conn     *gorm.DB
	svc      Service
	payments payments.Service
}

func newFixture(t *testing.T) *fixture {
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
		&models.Order{},
		&models.OrderItem{},
		&models.OrderStatusChange{},
		&models.Notification{},
		&models.OutboxEvent{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	logg := logger.New(logger.Options{ServiceName: "checkout-test", Output: io.Discard})

	carts, err := cart.NewService(cart.NewServiceParams{
		Repo:   cart.NewRepository(conn),
		Logger: logg,
	})
	if err != nil {
		t.Fatalf("cart service: %v", err)
	}

	paySvc, err := payments.NewService(payments.NewServiceParams{
		Carts:   carts,
		Repo:    payments.NewRepository(conn),
		Gateway: &fakeGateway{},
		Logger:  logg,
	})
	if err != nil {
		t.Fatalf("payments service: %v", err)
	}

	notifSvc, err := notifications.NewService(notifications.NewServiceParams{
		Repo:   notifications.NewRepository(conn),
		Bus:    notifications.NewBus(),
		Config: config.NotificationsConfig{CacheCap: 20},
		Logger: logg,
	})
	if err != nil {
		t.Fatalf("notifications service: %v", err)
	}

	svc, err := NewService(NewServiceParams{
		Tx:            db.FromConn(conn),
		Repo:          NewRepository(conn),
		Carts:         carts,
		CartRepo:      cart.NewRepository(conn),
		Payments:      paySvc,
		Intents:       payments.NewRepository(conn),
		Resolver:      address.NewResolver(config.DeliveryConfig{City: "Coimbatore", PincodePrefix: "641"}),
		Customers:     customers.NewRepository(conn),
		Notifications: notifSvc,
		Outbox:        outbox.NewService(outbox.NewRepository(conn), logg),
		Logger:        logg,
	})
	if err != nil {
		t.Fatalf("checkout service: %v", err)
	}

	return &fixture{conn: conn, svc: svc, payments: paySvc}
}

func (f *fixture) seedCustomer(t *testing.T) uuid.UUID {
	t.Helper()
	customer := models.Customer{
		ID:           uuid.New(),
		Name:         "Meena Iyer",
		Email:        uuid.New().String() + "@example.com",
		PasswordHash: "x",
		Role:         enums.RoleCustomer,
	}
	if err := f.conn.Create(&customer).Error; err != nil {
		t.Fatalf("seed customer: %v", err)
	}
	return customer.ID
}

func (f *fixture) seedItem(t *testing.T, name, category, price string, stock, threshold int) models.Item {
	t.Helper()
	item := models.Item{
		ID:                uuid.New(),
		Name:              name,
		Category:          category,
		Price:             decimal.RequireFromString(price),
		Stock:             stock,
		LowStockThreshold: threshold,
		IsActive:          true,
	}
	if err := f.conn.Create(&item).Error; err != nil {
		t.Fatalf("seed item: %v", err)
	}
	return item
}

func (f *fixture) seedCart(t *testing.T, customerID uuid.UUID, lines ...models.CartItem) uuid.UUID {
	t.Helper()
	record := models.CartRecord{
		ID:         uuid.New(),
		CustomerID: customerID,
		Status:     enums.CartStatusActive,
	}
	if err := f.conn.Create(&record).Error; err != nil {
		t.Fatalf("seed cart: %v", err)
	}
	for i := range lines {
		lines[i].ID = uuid.New()
		lines[i].CartID = record.ID
		if err := f.conn.Create(&lines[i]).Error; err != nil {
			t.Fatalf("seed line: %v", err)
		}
	}
	return record.ID
}

func (f *fixture) intentAndProof(t *testing.T, customerID uuid.UUID) payments.Proof {
	t.Helper()
	intent, err := f.payments.CreateIntent(context.Background(), customerID)
	if err != nil {
		t.Fatalf("create intent: %v", err)
	}
	paymentID := "pay_" + uuid.New().String()[:8]
	return payments.Proof{
		ProviderOrderID: intent.ProviderOrderID,
		PaymentID:       paymentID,
		Signature:       razorpay.Sign(intent.ProviderOrderID, paymentID, testKeySecret),
	}
}

func manualAddress(notes string) AddressInput {
	return AddressInput{
		Method: types.AddressMethodManual,
		Manual: address.ManualInput{
			RecipientName: "Meena Iyer",
			Phone:         "9876543210",
			DoorNo:        "12B",
			Street:        "Cross Cut Road",
			Area:          "Gandhipuram",
			Pincode:       "641012",
			DeliveryNotes: notes,
		},
	}
}

func TestPlaceOrderHappyPath(t *testing.T) {
	f := newFixture(t)
	customerID := f.seedCustomer(t)
	bread := f.seedItem(t, "Garlic Loaf", "breads", "120.00", 10, 2)
	f.seedCart(t, customerID, models.CartItem{
		ItemID:   bread.ID,
		Quantity: 2,
		EggType:  enums.EggTypeEgg,
	})
	proof := f.intentAndProof(t, customerID)

	order, err := f.svc.PlaceOrder(context.Background(), customerID, PlaceOrderInput{
		Proof:   proof,
		Address: manualAddress(""),
	})
	if err != nil {
		t.Fatalf("place order: %v", err)
	}

	if order.Status != enums.OrderStatusConfirmed {
		t.Fatalf("status = %s", order.Status)
	}
	if got := order.Total.StringFixed(2); got != "240.00" {
		t.Fatalf("total = %s", got)
	}
	if order.PaymentOrderID != proof.ProviderOrderID {
		t.Fatalf("payment order id = %q", order.PaymentOrderID)
	}
	if order.DeliveryAddress.City != "Coimbatore" {
		t.Fatalf("address city = %q", order.DeliveryAddress.City)
	}

	var item models.Item
	if err := f.conn.First(&item, "id = ?", bread.ID).Error; err != nil {
		t.Fatalf("reload item: %v", err)
	}
	if item.Stock != 8 {
		t.Fatalf("stock = %d, want 8", item.Stock)
	}

	var cartRow models.CartRecord
	if err := f.conn.First(&cartRow, "customer_id = ?", customerID).Error; err != nil {
		t.Fatalf("reload cart: %v", err)
	}
	if cartRow.Status != enums.CartStatusConverted {
		t.Fatalf("cart status = %s", cartRow.Status)
	}

	var intent models.PaymentIntent
	if err := f.conn.First(&intent, "provider_order_id = ?", proof.ProviderOrderID).Error; err != nil {
		t.Fatalf("reload intent: %v", err)
	}
	if intent.Status != enums.PaymentIntentStatusConsumed {
		t.Fatalf("intent status = %s", intent.Status)
	}

	var history []models.OrderStatusChange
	if err := f.conn.Find(&history, "order_id = ?", order.ID).Error; err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 1 || history[0].ToStatus != enums.OrderStatusConfirmed || history[0].FromStatus != nil {
		t.Fatalf("unexpected history %+v", history)
	}

	var outboxCount int64
	if err := f.conn.Model(&models.OutboxEvent{}).
		Where("event_type = ?", enums.EventOrderPlaced).
		Count(&outboxCount).Error; err != nil {
		t.Fatalf("outbox count: %v", err)
	}
	if outboxCount != 1 {
		t.Fatalf("outbox rows = %d", outboxCount)
	}

	var notifCount int64
	if err := f.conn.Model(&models.Notification{}).Count(&notifCount).Error; err != nil {
		t.Fatalf("notification count: %v", err)
	}
	if notifCount != 2 {
		t.Fatalf("notification rows = %d, want customer + admin", notifCount)
	}
}

func TestPlaceOrderReplayReturnsExistingOrder(t *testing.T) {
	f := newFixture(t)
	customerID := f.seedCustomer(t)
	bread := f.seedItem(t, "Garlic Loaf", "breads", "120.00", 10, 2)
	f.seedCart(t, customerID, models.CartItem{
		ItemID:   bread.ID,
		Quantity: 1,
		EggType:  enums.EggTypeEgg,
	})
	proof := f.intentAndProof(t, customerID)
	input := PlaceOrderInput{Proof: proof, Address: manualAddress("")}

	first, err := f.svc.PlaceOrder(context.Background(), customerID, input)
	if err != nil {
		t.Fatalf("first placement: %v", err)
	}
	second, err := f.svc.PlaceOrder(context.Background(), customerID, input)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("replay created a second order: %s vs %s", first.ID, second.ID)
	}

	var item models.Item
	if err := f.conn.First(&item, "id = ?", bread.ID).Error; err != nil {
		t.Fatalf("reload item: %v", err)
	}
	if item.Stock != 9 {
		t.Fatalf("stock decremented twice: %d", item.Stock)
	}
	var orderCount int64
	if err := f.conn.Model(&models.Order{}).Count(&orderCount).Error; err != nil {
		t.Fatalf("count orders: %v", err)
	}
	if orderCount != 1 {
		t.Fatalf("order rows = %d", orderCount)
	}
}

func TestPlaceOrderInsufficientStockRollsBack(t *testing.T) {
	f := newFixture(t)
	customerID := f.seedCustomer(t)
	bread := f.seedItem(t, "Garlic Loaf", "breads", "120.00", 10, 2)
	cake := f.seedItem(t, "Plum Cake", models.CategoryOccasional, "500.00", 1, 1)
	f.seedCart(t, customerID,
		models.CartItem{ItemID: bread.ID, Quantity: 2, EggType: enums.EggTypeEgg},
		models.CartItem{ItemID: cake.ID, Quantity: 3, EggType: enums.EggTypeEgg, SelectedWeightKg: weightPtr("1.00")},
	)
	proof := f.intentAndProof(t, customerID)

	_, err := f.svc.PlaceOrder(context.Background(), customerID, PlaceOrderInput{
		Proof:   proof,
		Address: manualAddress("Happy Birthday"),
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeInsufficientStock {
		t.Fatalf("expected insufficient stock, got %v", err)
	}
	want := "Insufficient stock for item: Plum Cake. Available: 1, Requested: 3"
	if typed.Message() != want {
		t.Fatalf("message = %q, want %q", typed.Message(), want)
	}

	// The whole transaction rolls back: no partial stock decrement, no
	// order, intent still usable.
	var reloaded models.Item
	if err := f.conn.First(&reloaded, "id = ?", bread.ID).Error; err != nil {
		t.Fatalf("reload bread: %v", err)
	}
	if reloaded.Stock != 10 {
		t.Fatalf("bread stock = %d, want 10", reloaded.Stock)
	}
	var orderCount int64
	if err := f.conn.Model(&models.Order{}).Count(&orderCount).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if orderCount != 0 {
		t.Fatalf("order rows = %d", orderCount)
	}
	var intent models.PaymentIntent
	if err := f.conn.First(&intent, "provider_order_id = ?", proof.ProviderOrderID).Error; err != nil {
		t.Fatalf("intent: %v", err)
	}
	if intent.Status != enums.PaymentIntentStatusCreated {
		t.Fatalf("intent status = %s, want created", intent.Status)
	}
}

func weightPtr(value string) *decimal.Decimal {
	d := decimal.RequireFromString(value)
	return &d
}

func TestPlaceOrderRejectsBadSignature(t *testing.T) {
	f := newFixture(t)
	customerID := f.seedCustomer(t)
	bread := f.seedItem(t, "Garlic Loaf", "breads", "120.00", 10, 2)
	f.seedCart(t, customerID, models.CartItem{
		ItemID:   bread.ID,
		Quantity: 1,
		EggType:  enums.EggTypeEgg,
	})
	proof := f.intentAndProof(t, customerID)
	proof.Signature = "0badc0de"

	_, err := f.svc.PlaceOrder(context.Background(), customerID, PlaceOrderInput{
		Proof:   proof,
		Address: manualAddress(""),
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeSignatureInvalid {
		t.Fatalf("expected signature invalid, got %v", err)
	}
	details, ok := typed.Details().(map[string]string)
	if !ok || details["payment_id"] != proof.PaymentID {
		t.Fatalf("payment id not attached: %+v", typed.Details())
	}
}

func TestPlaceOrderRequiresNotesForCakes(t *testing.T) {
	f := newFixture(t)
	customerID := f.seedCustomer(t)
	cake := f.seedItem(t, "Chocolate Truffle", models.CategoryPremium, "600.00", 5, 1)
	f.seedCart(t, customerID, models.CartItem{
		ItemID:           cake.ID,
		Quantity:         1,
		EggType:          enums.EggTypeEgg,
		SelectedWeightKg: weightPtr("1.00"),
	})
	proof := f.intentAndProof(t, customerID)

	_, err := f.svc.PlaceOrder(context.Background(), customerID, PlaceOrderInput{
		Proof:   proof,
		Address: manualAddress(""),
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation failure, got %v", err)
	}
	fields, ok := typed.Details().([]address.FieldError)
	if !ok {
		t.Fatalf("details = %T", typed.Details())
	}
	found := false
	for _, field := range fields {
		if field.Field == "delivery_notes" {
			found = true
		}
	}
	if !found {
		t.Fatalf("missing delivery_notes error: %+v", fields)
	}

	var item models.Item
	if err := f.conn.First(&item, "id = ?", cake.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if item.Stock != 5 {
		t.Fatalf("stock touched on rejected address: %d", item.Stock)
	}
}

func TestPlaceOrderRejectsForeignIntent(t *testing.T) {
	f := newFixture(t)
	owner := f.seedCustomer(t)
	other := f.seedCustomer(t)
	bread := f.seedItem(t, "Garlic Loaf", "breads", "120.00", 10, 2)
	f.seedCart(t, owner, models.CartItem{
		ItemID:   bread.ID,
		Quantity: 1,
		EggType:  enums.EggTypeEgg,
	})
	proof := f.intentAndProof(t, owner)

	_, err := f.svc.PlaceOrder(context.Background(), other, PlaceOrderInput{
		Proof:   proof,
		Address: manualAddress(""),
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestPlaceOrderLowStockNotifiesAdmin(t *testing.T) {
	f := newFixture(t)
	customerID := f.seedCustomer(t)
	bread := f.seedItem(t, "Garlic Loaf", "breads", "120.00", 6, 5)
	f.seedCart(t, customerID, models.CartItem{
		ItemID:   bread.ID,
		Quantity: 2,
		EggType:  enums.EggTypeEgg,
	})
	proof := f.intentAndProof(t, customerID)

	if _, err := f.svc.PlaceOrder(context.Background(), customerID, PlaceOrderInput{
		Proof:   proof,
		Address: manualAddress(""),
	}); err != nil {
		t.Fatalf("place order: %v", err)
	}

	var row models.Notification
	if err := f.conn.First(&row, "type = ?", enums.NotificationTypeLowStock).Error; err != nil {
		t.Fatalf("low stock notification missing: %v", err)
	}
	if !strings.Contains(row.Message, "Garlic Loaf (4 items left)") {
		t.Fatalf("message = %q", row.Message)
	}
}

func TestPlaceOrderEgglessSurchargeOnOrderRow(t *testing.T) {
	f := newFixture(t)
	customerID := f.seedCustomer(t)
	cookie := f.seedItem(t, "Oat Cookie", "cookies", "45.00", 50, 5)
	f.seedCart(t, customerID, models.CartItem{
		ItemID:   cookie.ID,
		Quantity: 2,
		EggType:  enums.EggTypeEggless,
	})
	proof := f.intentAndProof(t, customerID)

	order, err := f.svc.PlaceOrder(context.Background(), customerID, PlaceOrderInput{
		Proof:   proof,
		Address: manualAddress(""),
	})
	if err != nil {
		t.Fatalf("place order: %v", err)
	}
	if got := order.EgglessSurcharge.StringFixed(2); got != "60.00" {
		t.Fatalf("surcharge = %s, want 60.00", got)
	}
	if got := order.Total.StringFixed(2); got != "150.00" {
		t.Fatalf("total = %s, want 150.00", got)
	}
}
