package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	pkgerrors "github.com/frostcrinkle/bakery-backend/pkg/errors"
	"github.com/frostcrinkle/bakery-backend/pkg/db/models"
	"github.com/frostcrinkle/bakery-backend/pkg/enums"
	"github.com/frostcrinkle/bakery-backend/pkg/logger"
)

// EgglessSurchargeRupees is added per unit when a line is prepared eggless.
var EgglessSurchargeRupees = decimal.NewFromInt(30)

// Line is one priced cart line. UnitPrice already includes the eggless
// surcharge when it applies.
type Line struct {
	ItemID           uuid.UUID
	Name             string
	Category         string
	Quantity         int
	EggType          enums.EggType
	SelectedWeightKg *decimal.Decimal
	UnitPrice        decimal.Decimal
	LineTotal        decimal.Decimal
}

// Snapshot is a priced view of a customer's active cart, frozen at read
// time so checkout and payment work from the same totals.
type Snapshot struct {
	CartID           uuid.UUID
	CustomerID       uuid.UUID
	Lines            []Line
	Subtotal         decimal.Decimal
	EgglessSurcharge decimal.Decimal
	Total            decimal.Decimal
}

// AmountPaise converts the snapshot total to the smallest currency unit.
func (s Snapshot) AmountPaise() int64 {
	return s.Total.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// ItemCount sums line quantities.
func (s Snapshot) ItemCount() int {
	count := 0
	for _, line := range s.Lines {
		count += line.Quantity
	}
	return count
}

// HasWeightPricedLine reports whether any line sells by weight. Those
// orders require delivery notes carrying the cake inscription.
func (s Snapshot) HasWeightPricedLine() bool {
	for _, line := range s.Lines {
		switch line.Category {
		case models.CategoryOccasional, models.CategoryPremium, models.CategoryParty:
			return true
		}
	}
	return false
}

// Service reads and prices active carts.
type Service interface {
	Snapshot(ctx context.Context, customerID uuid.UUID) (*Snapshot, error)
}

type service struct {
	repo Repository
	logg *logger.Logger
}

// NewServiceParams carries the dependencies for NewService.
type NewServiceParams struct {
	Repo   Repository
	Logger *logger.Logger
}

func NewService(params NewServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, errors.New("cart: repository is required")
	}
	if params.Logger == nil {
		return nil, errors.New("cart: logger is required")
	}
	return &service{repo: params.Repo, logg: params.Logger}, nil
}

func (s *service) Snapshot(ctx context.Context, customerID uuid.UUID) (*Snapshot, error) {
	record, err := s.repo.FindActiveByCustomer(ctx, customerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeEmptyCart, "no active cart for customer")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading active cart")
	}
	if len(record.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeEmptyCart, "active cart has no items")
	}

	snapshot := &Snapshot{
		CartID:           record.ID,
		CustomerID:       record.CustomerID,
		Lines:            make([]Line, 0, len(record.Items)),
		Subtotal:         decimal.Zero,
		EgglessSurcharge: decimal.Zero,
	}

	for _, entry := range record.Items {
		if entry.Item == nil {
			return nil, pkgerrors.New(pkgerrors.CodeInternal,
				fmt.Sprintf("cart line %s references missing item", entry.ID))
		}
		if !entry.Item.IsActive {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("item no longer available: %s", entry.Item.Name))
		}
		if entry.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("invalid quantity for item: %s", entry.Item.Name))
		}
		// A weight selection fixes the line to a single unit.
		if entry.SelectedWeightKg != nil && entry.Quantity != 1 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("weight-selected item must have quantity 1: %s", entry.Item.Name))
		}

		line, surchargePerUnit := priceLine(entry)
		qty := decimal.NewFromInt(int64(entry.Quantity))
		snapshot.Subtotal = snapshot.Subtotal.Add(line.UnitPrice.Sub(surchargePerUnit).Mul(qty))
		snapshot.EgglessSurcharge = snapshot.EgglessSurcharge.Add(surchargePerUnit.Mul(qty))
		snapshot.Lines = append(snapshot.Lines, line)
	}

	snapshot.Total = snapshot.Subtotal.Add(snapshot.EgglessSurcharge)
	ctx = s.logg.WithFields(ctx, map[string]any{
		"cart_id":    snapshot.CartID.String(),
		"line_count": len(snapshot.Lines),
		"total":      snapshot.Total.StringFixed(2),
	})
	s.logg.Info(ctx, "cart snapshot priced")
	return snapshot, nil
}

// priceLine resolves the unit price for a cart line. The price captured at
// addition wins when present and already bakes in any eggless surcharge;
// otherwise the live catalog price applies, scaled by weight for
// weight-priced categories and topped up with the eggless surcharge when
// the line is eggless. The returned surcharge is per unit.
func priceLine(entry models.CartItem) (Line, decimal.Decimal) {
	item := entry.Item
	surcharge := decimal.Zero
	var unit decimal.Decimal
	switch {
	case entry.PriceAtAddition != nil:
		unit = *entry.PriceAtAddition
	case item.IsWeightPriced() && entry.SelectedWeightKg != nil:
		unit = item.Price.Mul(*entry.SelectedWeightKg)
	default:
		unit = item.Price
	}
	if entry.PriceAtAddition == nil && entry.EggType == enums.EggTypeEggless {
		surcharge = EgglessSurchargeRupees
		unit = unit.Add(surcharge)
	}

	qty := decimal.NewFromInt(int64(entry.Quantity))
	return Line{
		ItemID:           entry.ItemID,
		Name:             item.Name,
		Category:         item.Category,
		Quantity:         entry.Quantity,
		EggType:          entry.EggType,
		SelectedWeightKg: entry.SelectedWeightKg,
		UnitPrice:        unit,
		LineTotal:        unit.Mul(qty),
	}, surcharge
}
