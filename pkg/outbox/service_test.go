package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/frostcrinkle/bakery-backend/pkg/db/models"
	"github.com/frostcrinkle/bakery-backend/pkg/enums"
	"github.com/frostcrinkle/bakery-backend/pkg/outbox/payloads"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&models.OutboxEvent{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

func TestEmitWritesEnvelopeRow(t *testing.T) {
	conn := newTestDB(t)
	svc := NewService(NewRepository(conn), nil)

	orderID := uuid.New()
	customerID := uuid.New()
	err := conn.Transaction(func(tx *gorm.DB) error {
		return svc.Emit(context.Background(), tx, DomainEvent{
			EventType:     enums.EventOrderPlaced,
			AggregateType: enums.AggregateOrder,
			AggregateID:   orderID,
			Actor:         &ActorRef{CustomerID: customerID, Role: "CUSTOMER"},
			Data: payloads.OrderPlacedEvent{
				OrderID:    orderID,
				CustomerID: customerID,
				Total:      "530.00",
				ItemCount:  2,
			},
		})
	})
	if err != nil {
		t.Fatalf("emit failed: %v", err)
	}

	var row models.OutboxEvent
	if err := conn.First(&row).Error; err != nil {
		t.Fatalf("fetch row: %v", err)
	}
	if row.EventType != enums.EventOrderPlaced {
		t.Fatalf("unexpected event type %s", row.EventType)
	}
	if row.AggregateID != orderID {
		t.Fatalf("unexpected aggregate id %s", row.AggregateID)
	}
	if row.PublishedAt != nil {
		t.Fatal("new row should not be published")
	}

	var envelope PayloadEnvelope
	if err := json.Unmarshal(row.Payload, &envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if envelope.Version != 1 {
		t.Fatalf("expected default version 1, got %d", envelope.Version)
	}
	if envelope.EventID == "" || envelope.OccurredAt.IsZero() {
		t.Fatalf("envelope missing identity fields: %+v", envelope)
	}
	if envelope.Actor == nil || envelope.Actor.CustomerID != customerID {
		t.Fatalf("actor not recorded: %+v", envelope.Actor)
	}
}

func TestEmitRequiresTransaction(t *testing.T) {
	svc := NewService(NewRepository(newTestDB(t)), nil)
	if err := svc.Emit(context.Background(), nil, DomainEvent{}); err == nil {
		t.Fatal("expected error without transaction")
	}
}

func TestFetchUnpublishedSkipsExhaustedRows(t *testing.T) {
	conn := newTestDB(t)
	repo := NewRepository(conn)
	svc := NewService(repo, nil)

	ids := make([]uuid.UUID, 3)
	err := conn.Transaction(func(tx *gorm.DB) error {
		for i := range ids {
			ids[i] = uuid.New()
			if err := svc.Emit(context.Background(), tx, DomainEvent{
				EventType:     enums.EventOrderStatusChanged,
				AggregateType: enums.AggregateOrder,
				AggregateID:   ids[i],
				Data:          payloads.OrderStatusChangedEvent{OrderID: ids[i]},
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	var all []models.OutboxEvent
	if err := conn.Order("created_at ASC").Find(&all).Error; err != nil {
		t.Fatalf("list rows: %v", err)
	}

	err = conn.Transaction(func(tx *gorm.DB) error {
		if err := repo.MarkPublishedTx(tx, all[0].ID); err != nil {
			return err
		}
		for i := 0; i < 5; i++ {
			if err := repo.MarkFailedTx(tx, all[1].ID, errors.New("publish timeout")); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("marking failed: %v", err)
	}

	err = conn.Transaction(func(tx *gorm.DB) error {
		rows, err := repo.FetchUnpublishedForPublish(tx, 10, 5)
		if err != nil {
			return err
		}
		if len(rows) != 1 {
			t.Fatalf("expected 1 publishable row, got %d", len(rows))
		}
		if rows[0].ID != all[2].ID {
			t.Fatalf("unexpected row %s", rows[0].ID)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
}
