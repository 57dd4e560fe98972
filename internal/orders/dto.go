package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/frostcrinkle/bakery-backend/pkg/db/models"
	"github.com/frostcrinkle/bakery-backend/pkg/enums"
	"github.com/frostcrinkle/bakery-backend/pkg/types"
)

// OrderItemDTO is one snapshotted line of an order.
type OrderItemDTO struct {
	ItemID           *uuid.UUID       `json:"item_id,omitempty"`
	Name             string           `json:"name"`
	Category         string           `json:"category"`
	Quantity         int              `json:"quantity"`
	EggType          enums.EggType    `json:"egg_type"`
	SelectedWeightKg *decimal.Decimal `json:"selected_weight_kg,omitempty"`
	UnitPrice        decimal.Decimal  `json:"unit_price"`
	LineTotal        decimal.Decimal  `json:"line_total"`
}

// StatusChangeDTO is one audit entry of the order's lifecycle.
type StatusChangeDTO struct {
	FromStatus *enums.OrderStatus `json:"from_status,omitempty"`
	ToStatus   enums.OrderStatus  `json:"to_status"`
	ActorRole  enums.Role         `json:"actor_role"`
	ChangedAt  time.Time          `json:"changed_at"`
}

// OrderDTO is the public projection of an order.
type OrderDTO struct {
	ID               uuid.UUID             `json:"id"`
	CustomerID       uuid.UUID             `json:"customer_id"`
	Status           enums.OrderStatus     `json:"status"`
	DeliveryAddress  types.DeliveryAddress `json:"delivery_address"`
	DeliveryNotes    *string               `json:"delivery_notes,omitempty"`
	Subtotal         decimal.Decimal       `json:"subtotal"`
	EgglessSurcharge decimal.Decimal       `json:"eggless_surcharge"`
	Total            decimal.Decimal       `json:"total"`
	PaymentOrderID   string                `json:"payment_order_id"`
	PlacedAt         time.Time             `json:"placed_at"`
	DeliveredAt      *time.Time            `json:"delivered_at,omitempty"`
	Items            []OrderItemDTO        `json:"items"`
	History          []StatusChangeDTO     `json:"history,omitempty"`
}

// HistoryEntryDTO summarizes a delivered order.
type HistoryEntryDTO struct {
	OrderID     uuid.UUID       `json:"order_id"`
	Total       decimal.Decimal `json:"total"`
	ItemCount   int             `json:"item_count"`
	PlacedAt    time.Time       `json:"placed_at"`
	DeliveredAt time.Time       `json:"delivered_at"`
}

// ToDTO maps an order model onto its API projection.
func ToDTO(order *models.Order) *OrderDTO {
	if order == nil {
		return nil
	}
	items := make([]OrderItemDTO, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, OrderItemDTO{
			ItemID:           item.ItemID,
			Name:             item.Name,
			Category:         item.Category,
			Quantity:         item.Quantity,
			EggType:          item.EggType,
			SelectedWeightKg: item.SelectedWeightKg,
			UnitPrice:        item.UnitPrice,
			LineTotal:        item.LineTotal,
		})
	}
	history := make([]StatusChangeDTO, 0, len(order.History))
	for _, change := range order.History {
		history = append(history, StatusChangeDTO{
			FromStatus: change.FromStatus,
			ToStatus:   change.ToStatus,
			ActorRole:  change.ActorRole,
			ChangedAt:  change.CreatedAt,
		})
	}
	return &OrderDTO{
		ID:               order.ID,
		CustomerID:       order.CustomerID,
		Status:           order.Status,
		DeliveryAddress:  order.DeliveryAddress,
		DeliveryNotes:    order.DeliveryNotes,
		Subtotal:         order.Subtotal,
		EgglessSurcharge: order.EgglessSurcharge,
		Total:            order.Total,
		PaymentOrderID:   order.PaymentOrderID,
		PlacedAt:         order.PlacedAt,
		DeliveredAt:      order.DeliveredAt,
		Items:            items,
		History:          history,
	}
}

// ToDTOs maps a list of orders, dropping per-order history to keep list
// payloads small.
func ToDTOs(orders []models.Order) []OrderDTO {
	out := make([]OrderDTO, 0, len(orders))
	for i := range orders {
		dto := ToDTO(&orders[i])
		dto.History = nil
		out = append(out, *dto)
	}
	return out
}

// HistoryToDTOs maps delivered-order summaries.
func HistoryToDTOs(entries []models.OrderHistoryEntry) []HistoryEntryDTO {
	out := make([]HistoryEntryDTO, 0, len(entries))
	for _, entry := range entries {
		out = append(out, HistoryEntryDTO{
			OrderID:     entry.OrderID,
			Total:       entry.Total,
			ItemCount:   entry.ItemCount,
			PlacedAt:    entry.PlacedAt,
			DeliveredAt: entry.DeliveredAt,
		})
	}
	return out
}
