package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/dineflow/reserva-backend/models"
	"github.com/dineflow/reserva-backend/models/scopes"
	"github.com/dineflow/reserva-backend/utils"
)

// SlotCount is the number of free tables of one type at one slot.
type SlotCount struct {
	Slot           string `json:"slot"`
	AvailableCount int    `json:"available_count"`
}

type TypeAvailability struct {
	TableTypeID     uint        `json:"table_type_id"`
	Name            string      `json:"name"`
	MinimumCapacity int         `json:"minimum_capacity"`
	MaximumCapacity int         `json:"maximum_capacity"`
	Shape           string      `json:"shape,omitempty"`
	TotalTables     int         `json:"total_table_count"`
	Counts          []SlotCount `json:"count_info"`
}

// AvailabilityResult distinguishes a closed day (Closed=true, no slots) from
// an open day that happens to be fully booked (slots present, zero counts).
// Callers must not collapse the two.
type AvailabilityResult struct {
	Date   string             `json:"date"`
	Closed bool               `json:"closed"`
	Slots  []string           `json:"slots"`
	Types  []TypeAvailability `json:"types"`
}

// AvailabilityService derives per-type, per-slot free-table counts. The
// result is advisory, for display: the allocator never reads it and instead
// re-derives the committed-table set inside its own transaction.
type AvailabilityService struct {
	db    *gorm.DB
	cache *AvailabilityCache
}

func NewAvailabilityService(db *gorm.DB, cache *AvailabilityCache) *AvailabilityService {
	return &AvailabilityService{db: db, cache: cache}
}

// ForDate computes availability for every live table type of a restaurant on
// one date. Types with zero instances are reported with all-zero counts, not
// omitted. Counts are never negative.
func (s *AvailabilityService) ForDate(restaurantID uint, date string) (*AvailabilityResult, error) {
	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		return nil, ErrInvalidInput
	}

	if s.cache != nil {
		if res, ok := s.cache.Get(restaurantID, date); ok {
			return res, nil
		}
	}

	var restaurant models.Restaurant
	err = s.db.Scopes(scopes.Live, scopes.WithID(restaurantID)).
		Preload("Policy").
		Preload("OperatingHours").
		First(&restaurant).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if restaurant.Policy == nil || len(restaurant.OperatingHours) == 0 {
		return nil, ErrPolicyMissing
	}

	opening, closing, open := OpeningHoursFor(day, restaurant.OperatingHours)
	if !open {
		return &AvailabilityResult{Date: date, Closed: true}, nil
	}
	slots := GenerateTimeSlots(opening, closing, restaurant.Policy.ReservationDuration)

	result := &AvailabilityResult{Date: date, Slots: slots}

	// Live instance count per type; LEFT JOIN keeps zero-instance types.
	type typeRow struct {
		ID              uint
		Name            string
		MinimumCapacity int
		MaximumCapacity int
		Shape           string
		Total           int
	}
	var typeRows []typeRow
	err = s.db.Model(&models.TableType{}).
		Select("table_types.id, table_types.name, table_types.minimum_capacity, table_types.maximum_capacity, table_types.shape, COUNT(table_instances.id) AS total").
		Joins("LEFT JOIN table_instances ON table_instances.table_type_id = table_types.id AND table_instances.is_deleted = ? AND table_instances.is_available = ?", false, true).
		Where("table_types.restaurant_id = ? AND table_types.is_deleted = ?", restaurantID, false).
		Group("table_types.id, table_types.name, table_types.minimum_capacity, table_types.maximum_capacity, table_types.shape").
		Scan(&typeRows).Error
	if err != nil {
		return nil, err
	}

	// Committed tables per (type, slot), only for bookings that still occupy
	// capacity. Terminal bookings never consume tables.
	type bookedRow struct {
		TableTypeID uint
		StartTime   string
		Booked      int
	}
	var bookedRows []bookedRow
	err = s.db.Model(&models.BookingTable{}).
		Select("table_instances.table_type_id, bookings.start_time, COUNT(booking_tables.id) AS booked").
		Joins("JOIN bookings ON bookings.id = booking_tables.booking_id").
		Joins("JOIN table_instances ON table_instances.id = booking_tables.table_instance_id").
		Where("bookings.restaurant_id = ? AND bookings.date = ? AND bookings.status IN ?", restaurantID, date, models.NonTerminalStatuses).
		Group("table_instances.table_type_id, bookings.start_time").
		Scan(&bookedRows).Error
	if err != nil {
		return nil, err
	}

	booked := make(map[uint]map[string]int, len(bookedRows))
	for _, row := range bookedRows {
		if booked[row.TableTypeID] == nil {
			booked[row.TableTypeID] = make(map[string]int)
		}
		booked[row.TableTypeID][row.StartTime] = row.Booked
	}

	for _, tr := range typeRows {
		ta := TypeAvailability{
			TableTypeID:     tr.ID,
			Name:            tr.Name,
			MinimumCapacity: tr.MinimumCapacity,
			MaximumCapacity: tr.MaximumCapacity,
			Shape:           tr.Shape,
			TotalTables:     tr.Total,
			Counts:          make([]SlotCount, 0, len(slots)),
		}
		for _, slot := range slots {
			free := tr.Total - booked[tr.ID][slot]
			if free < 0 {
				free = 0
			}
			ta.Counts = append(ta.Counts, SlotCount{Slot: slot, AvailableCount: free})
		}
		result.Types = append(result.Types, ta)
	}

	if s.cache != nil {
		s.cache.Put(restaurantID, date, result)
	}
	return result, nil
}

// RefreshCache recomputes and stores tomorrow's availability for every live
// restaurant. Run nightly; safe to re-run since Put overwrites.
func (s *AvailabilityService) RefreshCache() error {
	if s.cache == nil {
		return nil
	}
	tomorrow := time.Now().UTC().AddDate(0, 0, 1).Format("2006-01-02")

	var ids []uint
	if err := s.db.Model(&models.Restaurant{}).Scopes(scopes.Live).Pluck("id", &ids).Error; err != nil {
		return err
	}
	for _, id := range ids {
		s.cache.Invalidate(id, tomorrow)
		if _, err := s.ForDate(id, tomorrow); err != nil && !errors.Is(err, ErrPolicyMissing) {
			utils.ErrorLogger.Printf("availability refresh for restaurant %d: %v", id, err)
		}
	}
	return nil
}
