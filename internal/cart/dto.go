package cart

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/frostcrinkle/bakery-backend/pkg/enums"
)

// LineDTO is the public projection of a priced cart line.
type LineDTO struct {
	ItemID           uuid.UUID        `json:"item_id"`
	Name             string           `json:"name"`
	Category         string           `json:"category"`
	Quantity         int              `json:"quantity"`
	EggType          enums.EggType    `json:"egg_type"`
	SelectedWeightKg *decimal.Decimal `json:"selected_weight_kg,omitempty"`
	UnitPrice        decimal.Decimal  `json:"unit_price"`
	LineTotal        decimal.Decimal  `json:"line_total"`
}

// SnapshotDTO is the priced cart as returned by the API. AmountPaise is
// included so the storefront can open the payment sheet without repeating
// the rounding logic.
type SnapshotDTO struct {
	CartID           uuid.UUID       `json:"cart_id"`
	Lines            []LineDTO       `json:"lines"`
	ItemCount        int             `json:"item_count"`
	Subtotal         decimal.Decimal `json:"subtotal"`
	EgglessSurcharge decimal.Decimal `json:"eggless_surcharge"`
	Total            decimal.Decimal `json:"total"`
	AmountPaise      int64           `json:"amount_paise"`
}

// ToDTO maps a snapshot onto its API projection.
func ToDTO(s *Snapshot) *SnapshotDTO {
	if s == nil {
		return nil
	}
	lines := make([]LineDTO, 0, len(s.Lines))
	for _, line := range s.Lines {
		lines = append(lines, LineDTO{
			ItemID:           line.ItemID,
			Name:             line.Name,
			Category:         line.Category,
			Quantity:         line.Quantity,
			EggType:          line.EggType,
			SelectedWeightKg: line.SelectedWeightKg,
			UnitPrice:        line.UnitPrice,
			LineTotal:        line.LineTotal,
		})
	}
	return &SnapshotDTO{
		CartID:           s.CartID,
		Lines:            lines,
		ItemCount:        s.ItemCount(),
		Subtotal:         s.Subtotal,
		EgglessSurcharge: s.EgglessSurcharge,
		Total:            s.Total,
		AmountPaise:      s.AmountPaise(),
	}
}
