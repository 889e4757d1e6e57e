package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/dineflow/reserva-backend/models"
	"github.com/dineflow/reserva-backend/models/scopes"
	"github.com/dineflow/reserva-backend/utils"
)

// DashboardStats is the aggregate the admin dashboard renders for a date
// range. Occupancy is slot-normalized: the denominator is every table-slot
// the restaurant could have sold across the range.
type DashboardStats struct {
	RestaurantID          uint    `json:"restaurant_id"`
	StartDate             string  `json:"start_date"`
	EndDate               string  `json:"end_date"`
	TotalReservations     int64   `json:"total_reservations"`
	CancelledReservations int64   `json:"cancelled_reservations"`
	NoShowReservations    int64   `json:"no_show_reservations"`
	ReservedOccupancy     int64   `json:"reserved_occupancy"`
	MaximumOccupancy      int64   `json:"maximum_occupancy"`
	OccupancyRate         float64 `json:"occupancy_rate"`
	TotalRevenue          float64 `json:"total_revenue"`
}

// RollupService aggregates bookings into dashboard numbers. Historical days
// are served from materialized daily_stats rows when present; today and any
// day missing a row is computed live, so the nightly materializer is an
// optimization rather than a correctness requirement.
type RollupService struct {
	db *gorm.DB
}

func NewRollupService(db *gorm.DB) *RollupService {
	return &RollupService{db: db}
}

// ForRange computes dashboard stats between start and end ("2006-01-02",
// inclusive).
func (s *RollupService) ForRange(restaurantID uint, startDate, endDate string) (*DashboardStats, error) {
	start, err := time.Parse("2006-01-02", startDate)
	if err != nil {
		return nil, ErrInvalidInput
	}
	end, err := time.Parse("2006-01-02", endDate)
	if err != nil {
		return nil, ErrInvalidInput
	}
	if end.Before(start) {
		return nil, ErrInvalidInput
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
	if restaurant.Policy == nil {
		return nil, ErrPolicyMissing
	}

	stats := DashboardStats{RestaurantID: restaurantID, StartDate: startDate, EndDate: endDate}
	slotsPerDay := SlotsPerWeekday(restaurant.OperatingHours, restaurant.Policy.ReservationDuration)

	today := todayIn(restaurant.Timezone)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		day := d.Format("2006-01-02")
		if day < today {
			if cached := s.materializedDay(restaurantID, day); cached != nil {
				addDay(&stats, cached)
				continue
			}
		}
		live, err := s.computeDay(&restaurant, d, slotsPerDay)
		if err != nil {
			return nil, err
		}
		addDay(&stats, live)
	}

	if stats.MaximumOccupancy > 0 {
		stats.OccupancyRate = utils.Round2(float64(stats.ReservedOccupancy) / float64(stats.MaximumOccupancy) * 100)
	}
	stats.TotalRevenue = utils.Round2(stats.TotalRevenue)
	return &stats, nil
}

// MaterializeDay writes (or overwrites) the daily_stats row for one
// restaurant and day. Re-running it replaces the row in place, so the
// nightly job can be retried without double counting.
func (s *RollupService) MaterializeDay(restaurantID uint, date string) error {
	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		return ErrInvalidInput
	}

	var restaurant models.Restaurant
	err = s.db.Scopes(scopes.Live, scopes.WithID(restaurantID)).
		Preload("Policy").
		Preload("OperatingHours").
		First(&restaurant).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	if restaurant.Policy == nil {
		return ErrPolicyMissing
	}

	slotsPerDay := SlotsPerWeekday(restaurant.OperatingHours, restaurant.Policy.ReservationDuration)
	computed, err := s.computeDay(&restaurant, day, slotsPerDay)
	if err != nil {
		return err
	}

	var existing models.DailyStats
	err = s.db.Where("restaurant_id = ? AND date = ?", restaurantID, date).First(&existing).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return s.db.Create(computed).Error
	case err != nil:
		return err
	default:
		computed.ID = existing.ID
		return s.db.Model(&existing).Updates(map[string]interface{}{
			"total_reservations":     computed.TotalReservations,
			"cancelled_reservations": computed.CancelledReservations,
			"no_show_reservations":   computed.NoShowReservations,
			"reserved_occupancy":     computed.ReservedOccupancy,
			"maximum_occupancy":      computed.MaximumOccupancy,
			"total_revenue":          computed.TotalRevenue,
		}).Error
	}
}

// MaterializeYesterday runs MaterializeDay for every live restaurant's
// previous local day. Registered as the nightly rollup job.
func (s *RollupService) MaterializeYesterday() error {
	var restaurants []models.Restaurant
	if err := s.db.Scopes(scopes.Live).Find(&restaurants).Error; err != nil {
		return err
	}
	var failed int
	for _, r := range restaurants {
		loc, err := time.LoadLocation(r.Timezone)
		if err != nil {
			loc = time.UTC
		}
		yesterday := time.Now().In(loc).AddDate(0, 0, -1).Format("2006-01-02")
		if err := s.MaterializeDay(r.ID, yesterday); err != nil {
			if errors.Is(err, ErrPolicyMissing) {
				continue
			}
			utils.ErrorLogger.Printf("rollup: restaurant %d day %s: %v", r.ID, yesterday, err)
			failed++
		}
	}
	if failed > 0 {
		return errors.New("rollup: some restaurants failed to materialize")
	}
	return nil
}

// computeDay does the live aggregation for a single day. Maximum occupancy
// is slots-on-that-weekday times live table instances; reserved occupancy
// counts BookingTable rows of non-cancelled bookings.
func (s *RollupService) computeDay(restaurant *models.Restaurant, day time.Time, slotsPerDay map[int]int) (*models.DailyStats, error) {
	date := day.Format("2006-01-02")
	out := models.DailyStats{RestaurantID: restaurant.ID, Date: date}

	slotCount := slotsPerDay[ISOWeekday(day)]

	var instanceCount int64
	err := s.db.Model(&models.TableInstance{}).
		Joins("JOIN table_types ON table_types.id = table_instances.table_type_id").
		Where("table_types.restaurant_id = ? AND table_types.is_deleted = ?", restaurant.ID, false).
		Where("table_instances.is_deleted = ?", false).
		Count(&instanceCount).Error
	if err != nil {
		return nil, err
	}
	out.MaximumOccupancy = int64(slotCount) * instanceCount

	if err := s.db.Model(&models.Booking{}).
		Where("restaurant_id = ? AND date = ?", restaurant.ID, date).
		Count(&out.TotalReservations).Error; err != nil {
		return nil, err
	}
	if err := s.db.Model(&models.Booking{}).
		Where("restaurant_id = ? AND date = ? AND status = ?", restaurant.ID, date, models.BookingStatusCancelled).
		Count(&out.CancelledReservations).Error; err != nil {
		return nil, err
	}
	if err := s.db.Model(&models.Booking{}).
		Where("restaurant_id = ? AND date = ? AND status = ?", restaurant.ID, date, models.BookingStatusNoShow).
		Count(&out.NoShowReservations).Error; err != nil {
		return nil, err
	}

	err = s.db.Model(&models.BookingTable{}).
		Joins("JOIN bookings ON bookings.id = booking_tables.booking_id").
		Where("bookings.restaurant_id = ? AND bookings.date = ? AND bookings.status <> ?",
			restaurant.ID, date, models.BookingStatusCancelled).
		Count(&out.ReservedOccupancy).Error
	if err != nil {
		return nil, err
	}

	var revenue *float64
	err = s.db.Model(&models.FoodOrder{}).
		Select("SUM(food_orders.total_amount)").
		Joins("JOIN bookings ON bookings.id = food_orders.booking_id").
		Where("bookings.restaurant_id = ? AND bookings.date = ? AND food_orders.is_finalized = ?",
			restaurant.ID, date, true).
		Scan(&revenue).Error
	if err != nil {
		return nil, err
	}
	if revenue != nil {
		out.TotalRevenue = *revenue
	}
	return &out, nil
}

func (s *RollupService) materializedDay(restaurantID uint, date string) *models.DailyStats {
	var row models.DailyStats
	err := s.db.Where("restaurant_id = ? AND date = ?", restaurantID, date).First(&row).Error
	if err != nil {
		return nil
	}
	return &row
}

func addDay(total *DashboardStats, day *models.DailyStats) {
	total.TotalReservations += day.TotalReservations
	total.CancelledReservations += day.CancelledReservations
	total.NoShowReservations += day.NoShowReservations
	total.ReservedOccupancy += day.ReservedOccupancy
	total.MaximumOccupancy += day.MaximumOccupancy
	total.TotalRevenue += day.TotalRevenue
}

func todayIn(timezone string) string {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		loc = time.UTC
	}
	return time.Now().In(loc).Format("2006-01-02")
}
