package reservation

import (
	"context"

	"github.com/google/uuid"
)

// LodgingSource exposes lodging allocations of a reservation
type LodgingSource interface {
	LodgingAllocations(ctx context.Context, reservationID uuid.UUID) ([]LodgingAllocation, error)
}

// MealSource exposes meal allocations of a reservation
type MealSource interface {
	MealAllocations(ctx context.Context, reservationID uuid.UUID) ([]MealAllocation, error)
}

// ProgramSource exposes scheduled programs of a reservation
type ProgramSource interface {
	ProgramAllocations(ctx context.Context, reservationID uuid.UUID) ([]ProgramAllocation, error)
}

// ItemSource exposes supply or other-cost lines of a reservation.
// The same shape serves both kinds; the kind is fixed per implementation instance.
type ItemSource interface {
	ItemAllocations(ctx context.Context, reservationID uuid.UUID) ([]ItemAllocation, error)
}

// MetaSource exposes reservation attributes
type MetaSource interface {
	ReservationMeta(ctx context.Context, reservationID uuid.UUID) (*Meta, error)
}

// Sources bundles every read-only provider the reconciler consumes
type Sources struct {
	Lodging  LodgingSource
	Meals    MealSource
	Programs ProgramSource
	Supplies ItemSource
	Others   ItemSource
	Meta     MetaSource
}
