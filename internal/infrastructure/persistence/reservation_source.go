package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/retreat/backend/internal/domain/reservation"
	"github.com/retreat/backend/internal/domain/shared"
	"github.com/retreat/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormReservationSource reads upstream allocation tables. It never writes.
type GormReservationSource struct {
	db *gorm.DB
}

// NewGormReservationSource creates a new GormReservationSource
func NewGormReservationSource(db *gorm.DB) *GormReservationSource {
	return &GormReservationSource{db: db}
}

// ReservationMeta loads the reservation header
func (s *GormReservationSource) ReservationMeta(ctx context.Context, reservationID uuid.UUID) (*reservation.Meta, error) {
	var model models.ReservationModel
	if err := s.db.WithContext(ctx).First(&model, "id = ?", reservationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("reservation %s: %w", reservationID, shared.ErrNotFound)
		}
		return nil, fmt.Errorf("load reservation: %w", err)
	}
	return model.ToMeta(), nil
}

// LodgingAllocations lists the rooms of a reservation ordered by check-in and room type
func (s *GormReservationSource) LodgingAllocations(ctx context.Context, reservationID uuid.UUID) ([]reservation.LodgingAllocation, error) {
	var rows []models.LodgingAllocationModel
	if err := s.db.WithContext(ctx).
		Where("reservation_id = ?", reservationID).
		Order("check_in ASC, room_type ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load lodging allocations: %w", err)
	}
	out := make([]reservation.LodgingAllocation, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, nil
}

// MealAllocations lists the meal services of a reservation
func (s *GormReservationSource) MealAllocations(ctx context.Context, reservationID uuid.UUID) ([]reservation.MealAllocation, error) {
	var rows []models.MealAllocationModel
	if err := s.db.WithContext(ctx).
		Where("reservation_id = ?", reservationID).
		Order("served_on ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load meal allocations: %w", err)
	}
	out := make([]reservation.MealAllocation, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, nil
}

// ProgramAllocations lists the program sessions of a reservation
func (s *GormReservationSource) ProgramAllocations(ctx context.Context, reservationID uuid.UUID) ([]reservation.ProgramAllocation, error) {
	var rows []models.ProgramAllocationModel
	if err := s.db.WithContext(ctx).
		Where("reservation_id = ?", reservationID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load program allocations: %w", err)
	}
	out := make([]reservation.ProgramAllocation, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, nil
}

// Supplies returns the item source reading supply_items
func (s *GormReservationSource) Supplies() reservation.ItemSource {
	return gormItemSource[models.SupplyItemModel, *models.SupplyItemModel]{db: s.db, what: "supply items"}
}

// Others returns the item source reading other_cost_items
func (s *GormReservationSource) Others() reservation.ItemSource {
	return gormItemSource[models.OtherCostItemModel, *models.OtherCostItemModel]{db: s.db, what: "other cost items"}
}

// Sources bundles every provider backed by this database
func (s *GormReservationSource) Sources() reservation.Sources {
	return reservation.Sources{
		Lodging:  s,
		Meals:    s,
		Programs: s,
		Supplies: s.Supplies(),
		Others:   s.Others(),
		Meta:     s,
	}
}

// itemRow is a pointer to a supply or other-cost row model
type itemRow[T any] interface {
	*T
	ToDomain() reservation.ItemAllocation
}

type gormItemSource[T any, PT itemRow[T]] struct {
	db   *gorm.DB
	what string
}

func (s gormItemSource[T, PT]) ItemAllocations(ctx context.Context, reservationID uuid.UUID) ([]reservation.ItemAllocation, error) {
	var rows []T
	if err := s.db.WithContext(ctx).
		Where("reservation_id = ?", reservationID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load %s: %w", s.what, err)
	}
	out := make([]reservation.ItemAllocation, len(rows))
	for i := range rows {
		out[i] = PT(&rows[i]).ToDomain()
	}
	return out, nil
}
