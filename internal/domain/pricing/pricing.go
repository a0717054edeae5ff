// Package pricing turns single allocations into monetary subtotals.
// Every function here is pure: no state, no I/O.
package pricing

import (
	"github.com/retreat/backend/internal/domain/reservation"
	"github.com/shopspring/decimal"
)

// CostBasis selects which unit price a meal is valued at
type CostBasis string

const (
	// CostBasisRetail values meals at the participant-facing price
	CostBasisRetail CostBasis = "retail"
	// CostBasisIngredient values meals at the wholesale food cost table
	CostBasisIngredient CostBasis = "ingredient"
)

// IsValid checks if the cost basis is known
func (b CostBasis) IsValid() bool {
	return b == CostBasisRetail || b == CostBasisIngredient
}

var thousand = decimal.NewFromInt(1000)

// Config holds the fixed pricing parameters
type Config struct {
	// OverageRate is the surcharge per extra person per night
	OverageRate decimal.Decimal
	// IngredientPrices is the per-serving food cost keyed by meal type
	IngredientPrices map[reservation.MealType]decimal.Decimal
}

// DefaultConfig returns the facility's standard pricing table
func DefaultConfig() Config {
	return Config{
		OverageRate: decimal.NewFromInt(10000),
		IngredientPrices: map[reservation.MealType]decimal.Decimal{
			reservation.MealTypeBreakfast: decimal.NewFromInt(3500),
			reservation.MealTypeLunch:     decimal.NewFromInt(5000),
			reservation.MealTypeDinner:    decimal.NewFromInt(6000),
			reservation.MealTypeSnack:     decimal.NewFromInt(2000),
			reservation.MealTypeBanquet:   decimal.NewFromInt(12000),
		},
	}
}

// LodgingCost computes the cost of one room allocation.
// A positive TotalPrice is a manual override and wins over the formula.
func LodgingCost(a reservation.LodgingAllocation, overageRate decimal.Decimal) decimal.Decimal {
	if a.TotalPrice != nil && a.TotalPrice.IsPositive() {
		return *a.TotalPrice
	}

	nights := decimal.NewFromInt(int64(a.Nights))
	subtotal := a.Price.Mul(nights)
	if a.Occupancy > a.Capacity {
		extra := decimal.NewFromInt(int64(a.Occupancy - a.Capacity))
		subtotal = subtotal.Add(extra.Mul(overageRate).Mul(nights))
	}
	return subtotal
}

// MealCost computes the cost of one meal service under the given basis.
// Under the ingredient basis the stored price is ignored; an unknown meal type costs nothing.
func MealCost(a reservation.MealAllocation, basis CostBasis, ingredientPrices map[reservation.MealType]decimal.Decimal) decimal.Decimal {
	participants := decimal.NewFromInt(int64(a.Participants))

	if basis == CostBasisIngredient {
		unit, ok := ingredientPrices[a.MealType]
		if !ok {
			return decimal.Zero
		}
		return unit.Mul(participants)
	}

	if a.Participants <= 0 {
		return a.Price
	}
	unit := a.Price.Div(participants).Round(0)
	return unit.Mul(participants)
}

// ProgramCost computes the cost of one program session.
// Group billing charges the flat price regardless of headcount.
func ProgramCost(a reservation.ProgramAllocation) decimal.Decimal {
	if a.BillingMode == reservation.BillingModeGroup {
		return a.Price
	}
	return a.Price.Mul(decimal.NewFromInt(int64(a.Participants)))
}

// ItemCost sums the upstream per-item totals of supply or other-cost lines
func ItemCost(items []reservation.ItemAllocation) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Total)
	}
	return total
}

// ToThousandUnits converts a currency total into ledger units: round(total / 1000)
func ToThousandUnits(total decimal.Decimal) int64 {
	return total.Div(thousand).Round(0).IntPart()
}
