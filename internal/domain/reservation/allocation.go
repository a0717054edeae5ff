package reservation

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BillingMode decides how a program price is charged
type BillingMode string

const (
	BillingModeGroup      BillingMode = "group"      // flat price per session
	BillingModeIndividual BillingMode = "individual" // price per participant
)

// IsValid checks if the billing mode is known
func (m BillingMode) IsValid() bool {
	return m == BillingModeGroup || m == BillingModeIndividual
}

// OrgCategory classifies the booking organization
type OrgCategory string

const (
	OrgCategoryProfit             OrgCategory = "profit"
	OrgCategorySocialContribution OrgCategory = "social_contribution"
)

// IsValid checks if the organization category is known
func (c OrgCategory) IsValid() bool {
	return c == OrgCategoryProfit || c == OrgCategorySocialContribution
}

// MealType identifies a served meal
type MealType string

const (
	MealTypeBreakfast MealType = "breakfast"
	MealTypeLunch     MealType = "lunch"
	MealTypeDinner    MealType = "dinner"
	MealTypeSnack     MealType = "snack"
	MealTypeBanquet   MealType = "banquet"
)

// LodgingAllocation is one room booking for a stay.
// TotalPrice, when set and positive, is a manual override of the computed cost.
type LodgingAllocation struct {
	CheckIn    time.Time        `json:"check_in"`
	RoomType   string           `json:"room_type"`
	Price      decimal.Decimal  `json:"price"`
	Nights     int              `json:"nights"`
	Occupancy  int              `json:"occupancy"`
	Capacity   int              `json:"capacity"`
	TotalPrice *decimal.Decimal `json:"total_price,omitempty"`
}

// MealAllocation is one meal service for a day
type MealAllocation struct {
	ServedOn     time.Time       `json:"served_on"`
	MealType     MealType        `json:"meal_type"`
	Price        decimal.Decimal `json:"price"`
	Participants int             `json:"participants"`
}

// ProgramAllocation is one scheduled program session
type ProgramAllocation struct {
	ProgramName     string          `json:"program_name"`
	Price           decimal.Decimal `json:"price"`
	Participants    int             `json:"participants"`
	BillingMode     BillingMode     `json:"billing_mode"`
	InstructorLabel string          `json:"instructor_label"`
}

// ItemAllocation is a supply or other-cost line. Total is supplied upstream.
type ItemAllocation struct {
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	Total     decimal.Decimal `json:"total"`
}

// Meta carries the reservation attributes that drive pricing policy
type Meta struct {
	ReservationID uuid.UUID   `json:"reservation_id"`
	OrgName       string      `json:"org_name"`
	BillingMode   BillingMode `json:"billing_mode"`
	OrgCategory   OrgCategory `json:"org_category"`
}

// IsSocialContribution reports whether lodging costs are waived for this reservation
func (m Meta) IsSocialContribution() bool {
	return m.OrgCategory == OrgCategorySocialContribution
}
