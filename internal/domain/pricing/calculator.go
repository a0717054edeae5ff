package pricing

import (
	"sort"
	"time"

	"github.com/retreat/backend/internal/domain/reservation"
	"github.com/shopspring/decimal"
)

// Calculator applies a pricing Config to whole allocation lists
type Calculator struct {
	config Config
}

// NewCalculator creates a calculator bound to the given config
func NewCalculator(config Config) *Calculator {
	if config.IngredientPrices == nil {
		config.IngredientPrices = DefaultConfig().IngredientPrices
	}
	return &Calculator{config: config}
}

// Config returns the calculator's pricing parameters
func (c *Calculator) Config() Config {
	return c.config
}

// LodgingTotal sums LodgingCost over all allocations
func (c *Calculator) LodgingTotal(allocs []reservation.LodgingAllocation) decimal.Decimal {
	total := decimal.Zero
	for _, a := range allocs {
		total = total.Add(LodgingCost(a, c.config.OverageRate))
	}
	return total
}

// MealTotal sums MealCost over all allocations
func (c *Calculator) MealTotal(allocs []reservation.MealAllocation, basis CostBasis) decimal.Decimal {
	total := decimal.Zero
	for _, a := range allocs {
		total = total.Add(MealCost(a, basis, c.config.IngredientPrices))
	}
	return total
}

// ProgramTotal sums ProgramCost over all allocations.
// Allocations without their own billing mode inherit the reservation's.
func (c *Calculator) ProgramTotal(allocs []reservation.ProgramAllocation, fallback reservation.BillingMode) decimal.Decimal {
	total := decimal.Zero
	for _, a := range allocs {
		if !a.BillingMode.IsValid() {
			a.BillingMode = fallback
		}
		total = total.Add(ProgramCost(a))
	}
	return total
}

// ItemTotal sums supply or other-cost lines
func (c *Calculator) ItemTotal(items []reservation.ItemAllocation) decimal.Decimal {
	return ItemCost(items)
}

// LodgingGroup is the display grouping of lodging cost by check-in date and room type
type LodgingGroup struct {
	CheckIn   time.Time       `json:"check_in"`
	RoomType  string          `json:"room_type"`
	Rooms     int             `json:"rooms"`
	Occupancy int             `json:"occupancy"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// GroupLodging groups allocations by (check-in date, room type), ordered by date then room type
func GroupLodging(allocs []reservation.LodgingAllocation, overageRate decimal.Decimal) []LodgingGroup {
	type groupKey struct {
		day      string
		roomType string
	}

	index := make(map[groupKey]int)
	groups := make([]LodgingGroup, 0)
	for _, a := range allocs {
		day := a.CheckIn.Format("2006-01-02")
		key := groupKey{day: day, roomType: a.RoomType}
		i, ok := index[key]
		if !ok {
			y, m, d := a.CheckIn.Date()
			groups = append(groups, LodgingGroup{
				CheckIn:  time.Date(y, m, d, 0, 0, 0, 0, a.CheckIn.Location()),
				RoomType: a.RoomType,
				Subtotal: decimal.Zero,
			})
			i = len(groups) - 1
			index[key] = i
		}
		groups[i].Rooms++
		groups[i].Occupancy += a.Occupancy
		groups[i].Subtotal = groups[i].Subtotal.Add(LodgingCost(a, overageRate))
	}

	sort.SliceStable(groups, func(i, j int) bool {
		if !groups[i].CheckIn.Equal(groups[j].CheckIn) {
			return groups[i].CheckIn.Before(groups[j].CheckIn)
		}
		return groups[i].RoomType < groups[j].RoomType
	})
	return groups
}
