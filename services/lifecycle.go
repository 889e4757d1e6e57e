package services

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/dineflow/reserva-backend/models"
	"github.com/dineflow/reserva-backend/models/scopes"
	"github.com/dineflow/reserva-backend/utils"
)

// LifecycleService moves bookings between states. Legal transitions:
//
//	pending -> active     (check-in code presented)
//	pending -> cancelled  (owner cancels, or walk-in cancels with the code)
//	active  -> completed  (sweep, auto-complete job or staff)
//	active  -> no_show    (staff, after the grace window)
//
// Terminal states never transition again.
type LifecycleService struct {
	db        *gorm.DB
	scheduler JobScheduler
	cache     *AvailabilityCache
}

func NewLifecycleService(db *gorm.DB, scheduler JobScheduler, cache *AvailabilityCache) *LifecycleService {
	return &LifecycleService{db: db, scheduler: scheduler, cache: cache}
}

// CheckIn activates the pending booking holding the given code. Reusing a
// code whose booking already moved on is ErrAlreadyProcessed so the staff UI
// can distinguish a stale ticket from a bad one.
func (s *LifecycleService) CheckIn(restaurantID uint, code string) (*models.Booking, error) {
	var booking models.Booking
	err := s.db.Where("restaurant_id = ? AND checkin_code = ?", restaurantID, code).
		Order("id DESC").
		First(&booking).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if booking.Status != models.BookingStatusPending {
		return nil, ErrAlreadyProcessed
	}

	res := s.db.Model(&models.Booking{}).
		Where("id = ? AND status = ?", booking.ID, models.BookingStatusPending).
		Update("status", models.BookingStatusActive)
	if res.Error != nil {
		return nil, res.Error
	}
	// Zero rows means another caller won the transition between our read and
	// the guarded update.
	if res.RowsAffected == 0 {
		return nil, ErrAlreadyProcessed
	}
	booking.Status = models.BookingStatusActive
	return &booking, nil
}

// Cancel cancels a pending booking. Online bookings may only be cancelled by
// the user who placed them; walk-ins authenticate with the check-in code.
// Active and terminal bookings cannot be cancelled.
func (s *LifecycleService) Cancel(restaurantID, bookingID uint, userID *uint, checkinCode string) error {
	var booking models.Booking
	err := s.db.Scopes(scopes.WithID(bookingID), scopes.ByRestaurant(restaurantID)).First(&booking).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	switch booking.Source {
	case models.BookingSourceOnline:
		if userID == nil || booking.UserID == nil || *booking.UserID != *userID {
			return ErrForbidden
		}
	case models.BookingSourceWalkin:
		if checkinCode == "" || booking.CheckinCode != checkinCode {
			return ErrForbidden
		}
	}

	if booking.Status != models.BookingStatusPending {
		return ErrCannotCancel
	}

	changed := false
	err = s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Booking{}).
			Where("id = ? AND status = ?", booking.ID, models.BookingStatusPending).
			Update("status", models.BookingStatusCancelled)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		changed = true
		return releaseSlotClaims(tx, booking.ID)
	})
	if err != nil {
		return err
	}
	// A concurrent check-in beat us: the booking went active, nothing was
	// cancelled and the auto-complete job must stay scheduled.
	if !changed {
		return ErrCannotCancel
	}

	if s.scheduler != nil {
		s.scheduler.Cancel(autoCompleteKey(booking.ID))
	}
	if s.cache != nil {
		s.cache.Invalidate(booking.RestaurantID, booking.Date)
	}
	return nil
}

// Complete finishes an active booking. Completing an already completed
// booking is a no-op, so the sweep, the scheduled job and a staff click can
// all race without harm.
func (s *LifecycleService) Complete(restaurantID, bookingID uint) error {
	var booking models.Booking
	err := s.db.Scopes(scopes.WithID(bookingID), scopes.ByRestaurant(restaurantID)).
		First(&booking).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	switch booking.Status {
	case models.BookingStatusCompleted:
		return nil
	case models.BookingStatusActive:
		return markBookingCompleted(s.db, booking.ID)
	default:
		return fmt.Errorf("%w: booking is %s", ErrInvalidInput, booking.Status)
	}
}

// MarkNoShow flags an active booking whose party never turned up. Staff may
// only flag it once the restaurant's grace window past the slot start has
// elapsed.
func (s *LifecycleService) MarkNoShow(restaurantID, bookingID uint) error {
	var booking models.Booking
	err := s.db.Scopes(scopes.WithID(bookingID), scopes.ByRestaurant(restaurantID)).
		First(&booking).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if booking.Status != models.BookingStatusActive {
		return fmt.Errorf("%w: booking is %s", ErrInvalidInput, booking.Status)
	}

	var restaurant models.Restaurant
	err = s.db.Scopes(scopes.WithID(restaurantID)).Preload("Policy").First(&restaurant).Error
	if err != nil {
		return err
	}
	grace := 30
	if restaurant.Policy != nil {
		grace = restaurant.Policy.NoShowGraceMinutes
	}
	if !graceElapsed(booking.Date, booking.StartTime, restaurant.Timezone, grace) {
		return fmt.Errorf("%w: grace window has not elapsed", ErrInvalidInput)
	}

	changed := false
	err = s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Booking{}).
			Where("id = ? AND status = ?", booking.ID, models.BookingStatusActive).
			Update("status", models.BookingStatusNoShow)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		changed = true
		return releaseSlotClaims(tx, booking.ID)
	})
	if err != nil {
		return err
	}
	if !changed {
		return ErrAlreadyProcessed
	}
	if s.scheduler != nil {
		s.scheduler.Cancel(autoCompleteKey(booking.ID))
	}
	if s.cache != nil {
		s.cache.Invalidate(booking.RestaurantID, booking.Date)
	}
	return nil
}

// SweepExpired completes every active booking whose slot ended before now.
// It backstops scheduled auto-complete jobs lost to a process restart and is
// registered as a recurring job.
func (s *LifecycleService) SweepExpired() error {
	var bookings []models.Booking
	err := s.db.Where("status = ?", models.BookingStatusActive).Find(&bookings).Error
	if err != nil {
		return err
	}

	restaurants := make(map[uint]*models.Restaurant)
	now := time.Now()
	var failed int
	for i := range bookings {
		b := &bookings[i]
		r, ok := restaurants[b.RestaurantID]
		if !ok {
			var loaded models.Restaurant
			if err := s.db.Scopes(scopes.WithID(b.RestaurantID)).Preload("Policy").First(&loaded).Error; err != nil {
				failed++
				continue
			}
			r = &loaded
			restaurants[b.RestaurantID] = r
		}
		duration := 90
		if r.Policy != nil {
			duration = r.Policy.ReservationDuration
		}
		end, err := slotEndInstant(b.Date, b.StartTime, r.Timezone, duration)
		if err != nil || end.After(now) {
			continue
		}
		if err := markBookingCompleted(s.db, b.ID); err != nil {
			utils.ErrorLogger.Printf("sweep: completing booking %d: %v", b.ID, err)
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("sweep: %d bookings failed to complete", failed)
	}
	return nil
}

// markBookingCompleted is the shared terminal transition used by staff
// completion, the scheduled auto-complete job and the sweep. The guarded
// UPDATE makes it idempotent under concurrent callers: losing the race (zero
// rows) is success, and the slot claims are only released by the caller that
// actually flipped the status.
func markBookingCompleted(db *gorm.DB, bookingID uint) error {
	return db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Booking{}).
			Where("id = ? AND status = ?", bookingID, models.BookingStatusActive).
			Update("status", models.BookingStatusCompleted)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		return releaseSlotClaims(tx, bookingID)
	})
}

func graceElapsed(date, startTime, timezone string, graceMinutes int) bool {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		loc = time.UTC
	}
	start, err := time.ParseInLocation("2006-01-02 15:04", date+" "+startTime, loc)
	if err != nil {
		return false
	}
	return time.Now().In(loc).After(start.Add(time.Duration(graceMinutes) * time.Minute))
}

func slotEndInstant(date, startTime, timezone string, durationMinutes int) (time.Time, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		loc = time.UTC
	}
	start, err := time.ParseInLocation("2006-01-02 15:04", date+" "+startTime, loc)
	if err != nil {
		return time.Time{}, err
	}
	return start.Add(time.Duration(durationMinutes) * time.Minute), nil
}
