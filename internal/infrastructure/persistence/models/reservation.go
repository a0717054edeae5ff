package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/retreat/backend/internal/domain/reservation"
	"github.com/shopspring/decimal"
)

// ReservationModel is the upstream reservation header
type ReservationModel struct {
	BaseModel
	OrgName     string    `gorm:"type:varchar(200);not null"`
	OrgCategory string    `gorm:"type:varchar(30);not null;default:'profit'"`
	BillingMode string    `gorm:"type:varchar(20);not null;default:'individual'"`
	CheckIn     time.Time `gorm:"not null"`
	CheckOut    time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ReservationModel) TableName() string {
	return "reservations"
}

// ToMeta converts the reservation header into pricing metadata
func (m *ReservationModel) ToMeta() *reservation.Meta {
	return &reservation.Meta{
		ReservationID: m.ID,
		OrgName:       m.OrgName,
		BillingMode:   reservation.BillingMode(m.BillingMode),
		OrgCategory:   reservation.OrgCategory(m.OrgCategory),
	}
}

// LodgingAllocationModel is one room booked for a reservation
type LodgingAllocationModel struct {
	BaseModel
	ReservationID uuid.UUID        `gorm:"type:uuid;not null;index"`
	CheckIn       time.Time        `gorm:"not null"`
	RoomType      string           `gorm:"type:varchar(50);not null"`
	Price         decimal.Decimal  `gorm:"type:decimal(18,2);not null"`
	Nights        int              `gorm:"not null"`
	Occupancy     int              `gorm:"not null"`
	Capacity      int              `gorm:"not null"`
	TotalPrice    *decimal.Decimal `gorm:"type:decimal(18,2)"`
}

// TableName returns the table name for GORM
func (LodgingAllocationModel) TableName() string {
	return "lodging_allocations"
}

// ToDomain converts the row into a lodging allocation
func (m *LodgingAllocationModel) ToDomain() reservation.LodgingAllocation {
	return reservation.LodgingAllocation{
		CheckIn:    m.CheckIn,
		RoomType:   m.RoomType,
		Price:      m.Price,
		Nights:     m.Nights,
		Occupancy:  m.Occupancy,
		Capacity:   m.Capacity,
		TotalPrice: m.TotalPrice,
	}
}

// MealAllocationModel is one meal service for a reservation
type MealAllocationModel struct {
	BaseModel
	ReservationID uuid.UUID       `gorm:"type:uuid;not null;index"`
	ServedOn      time.Time       `gorm:"not null"`
	MealType      string          `gorm:"type:varchar(20);not null"`
	Price         decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Participants  int             `gorm:"not null"`
}

// TableName returns the table name for GORM
func (MealAllocationModel) TableName() string {
	return "meal_allocations"
}

// ToDomain converts the row into a meal allocation
func (m *MealAllocationModel) ToDomain() reservation.MealAllocation {
	return reservation.MealAllocation{
		ServedOn:     m.ServedOn,
		MealType:     reservation.MealType(m.MealType),
		Price:        m.Price,
		Participants: m.Participants,
	}
}

// ProgramAllocationModel is one scheduled program session
type ProgramAllocationModel struct {
	BaseModel
	ReservationID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProgramName     string          `gorm:"type:varchar(200);not null"`
	Price           decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Participants    int             `gorm:"not null"`
	BillingMode     *string         `gorm:"type:varchar(20)"`
	InstructorLabel string          `gorm:"type:varchar(200)"`
}

// TableName returns the table name for GORM
func (ProgramAllocationModel) TableName() string {
	return "program_allocations"
}

// ToDomain converts the row into a program allocation. A null billing mode stays empty.
func (m *ProgramAllocationModel) ToDomain() reservation.ProgramAllocation {
	a := reservation.ProgramAllocation{
		ProgramName:     m.ProgramName,
		Price:           m.Price,
		Participants:    m.Participants,
		InstructorLabel: m.InstructorLabel,
	}
	if m.BillingMode != nil {
		a.BillingMode = reservation.BillingMode(*m.BillingMode)
	}
	return a
}

// ItemLineModel holds the columns of supply and other-cost lines
type ItemLineModel struct {
	BaseModel
	ReservationID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Name          string          `gorm:"type:varchar(200);not null"`
	UnitPrice     decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Quantity      int             `gorm:"not null"`
	Total         decimal.Decimal `gorm:"type:decimal(18,2);not null"`
}

// ToDomain converts the row into an item allocation
func (m *ItemLineModel) ToDomain() reservation.ItemAllocation {
	return reservation.ItemAllocation{
		Name:      m.Name,
		UnitPrice: m.UnitPrice,
		Quantity:  m.Quantity,
		Total:     m.Total,
	}
}

// SupplyItemModel is a supply line of a reservation
type SupplyItemModel struct {
	ItemLineModel
}

// TableName returns the table name for GORM
func (SupplyItemModel) TableName() string {
	return "supply_items"
}

// OtherCostItemModel is an other-cost line of a reservation
type OtherCostItemModel struct {
	ItemLineModel
}

// TableName returns the table name for GORM
func (OtherCostItemModel) TableName() string {
	return "other_cost_items"
}

// All returns every model, in dependency order, for AutoMigrate
func All() []any {
	return []any{
		&ReservationModel{},
		&LodgingAllocationModel{},
		&MealAllocationModel{},
		&ProgramAllocationModel{},
		&SupplyItemModel{},
		&OtherCostItemModel{},
		&ExpenseRecordModel{},
		&IncomeRecordModel{},
	}
}
