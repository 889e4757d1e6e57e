package services

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dineflow/reserva-backend/models"
)

// recordingScheduler captures Cancel calls so tests can assert that lifecycle
// transitions only drop the auto-complete job when they actually happened.
type recordingScheduler struct {
	mu        sync.Mutex
	cancelled []string
}

func (r *recordingScheduler) ScheduleAt(key string, at time.Time, fn func() error) error { return nil }

func (r *recordingScheduler) Cancel(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cancelled = append(r.cancelled, key)
}

func (r *recordingScheduler) Every(name string, interval time.Duration, fn func() error) error {
	return nil
}

func (r *recordingScheduler) Daily(name string, hour, minute int, fn func() error) error { return nil }

func (r *recordingScheduler) cancelCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.cancelled)
}

func makeBooking(t *testing.T, svc *BookingService, fx fixture, guests int) *BookingResult {
	t.Helper()
	result, err := svc.Create(BookingRequest{
		RestaurantID:  fx.Restaurant.ID,
		Date:          tomorrow(),
		StartTime:     "12:00",
		GuestCount:    guests,
		Source:        models.BookingSourceWalkin,
		CustomerName:  "Dana",
		CustomerPhone: "555",
	})
	require.NoError(t, err)
	return result
}

func TestCheckInRoundTrip(t *testing.T) {
	db := newTestDB(t, "lifecycle_checkin")
	fx := seedRestaurant(t, db, 4)
	bookings := NewBookingService(db, nil, nil)
	lifecycle := NewLifecycleService(db, nil, nil)

	created := makeBooking(t, bookings, fx, 2)

	booking, err := lifecycle.CheckIn(fx.Restaurant.ID, created.CheckinCode)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusActive, booking.Status)

	// Same code again is a conflict, not a silent success.
	_, err = lifecycle.CheckIn(fx.Restaurant.ID, created.CheckinCode)
	assert.ErrorIs(t, err, ErrAlreadyProcessed)

	_, err = lifecycle.CheckIn(fx.Restaurant.ID, "ZZZZZZ")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestConcurrentCheckInSingleWinner(t *testing.T) {
	db := newTestDB(t, "lifecycle_checkin_race")
	fx := seedRestaurant(t, db, 4)
	bookings := NewBookingService(db, nil, nil)
	lifecycle := NewLifecycleService(db, nil, nil)

	created := makeBooking(t, bookings, fx, 2)

	const attempts = 8
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = lifecycle.CheckIn(fx.Restaurant.ID, created.CheckinCode)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, ErrAlreadyProcessed)
	}
	assert.Equal(t, 1, succeeded, "only one check-in may activate the booking")
}

func TestCancelCheckInRace(t *testing.T) {
	db := newTestDB(t, "lifecycle_cancel_race")
	fx := seedRestaurant(t, db, 4)
	bookings := NewBookingService(db, nil, nil)
	scheduler := &recordingScheduler{}
	lifecycle := NewLifecycleService(db, scheduler, nil)

	created := makeBooking(t, bookings, fx, 2)

	var wg sync.WaitGroup
	var checkInErr, cancelErr error
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, checkInErr = lifecycle.CheckIn(fx.Restaurant.ID, created.CheckinCode)
	}()
	go func() {
		defer wg.Done()
		cancelErr = lifecycle.Cancel(fx.Restaurant.ID, created.BookingID, nil, created.CheckinCode)
	}()
	wg.Wait()

	var booking models.Booking
	require.NoError(t, db.First(&booking, created.BookingID).Error)

	switch {
	case cancelErr == nil:
		// Cancel won: the check-in must have failed and the booking is gone.
		assert.Error(t, checkInErr)
		assert.Equal(t, models.BookingStatusCancelled, booking.Status)
		assert.Equal(t, 1, scheduler.cancelCount())
	case checkInErr == nil:
		// Check-in won: the cancel must not report success, and the still
		// running auto-complete job must not be dropped.
		assert.ErrorIs(t, cancelErr, ErrCannotCancel)
		assert.Equal(t, models.BookingStatusActive, booking.Status)
		assert.Equal(t, 0, scheduler.cancelCount())
	default:
		t.Fatalf("both transitions failed: checkin=%v cancel=%v", checkInErr, cancelErr)
	}
}

func TestCancelOnlyWhilePending(t *testing.T) {
	db := newTestDB(t, "lifecycle_cancel")
	fx := seedRestaurant(t, db, 4)
	bookings := NewBookingService(db, nil, nil)
	lifecycle := NewLifecycleService(db, nil, nil)

	created := makeBooking(t, bookings, fx, 2)

	// Wrong code is forbidden.
	err := lifecycle.Cancel(fx.Restaurant.ID, created.BookingID, nil, "WRONG1")
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = lifecycle.CheckIn(fx.Restaurant.ID, created.CheckinCode)
	require.NoError(t, err)

	// Active bookings cannot be cancelled.
	err = lifecycle.Cancel(fx.Restaurant.ID, created.BookingID, nil, created.CheckinCode)
	assert.ErrorIs(t, err, ErrCannotCancel)
}

func TestIdempotentCompletion(t *testing.T) {
	db := newTestDB(t, "lifecycle_complete")
	fx := seedRestaurant(t, db, 4)
	bookings := NewBookingService(db, nil, nil)
	lifecycle := NewLifecycleService(db, nil, nil)

	created := makeBooking(t, bookings, fx, 2)
	_, err := lifecycle.CheckIn(fx.Restaurant.ID, created.CheckinCode)
	require.NoError(t, err)

	require.NoError(t, lifecycle.Complete(fx.Restaurant.ID, created.BookingID))
	// Completing again is a no-op.
	require.NoError(t, lifecycle.Complete(fx.Restaurant.ID, created.BookingID))

	var booking models.Booking
	require.NoError(t, db.First(&booking, created.BookingID).Error)
	assert.Equal(t, models.BookingStatusCompleted, booking.Status)

	// BookingTable rows survive the terminal transition, but their slot keys
	// are released so the tables can be claimed again.
	var rows []models.BookingTable
	require.NoError(t, db.Where("booking_id = ?", created.BookingID).Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Nil(t, rows[0].SlotKey)
}

func TestMarkCompletedSkipsNonActive(t *testing.T) {
	db := newTestDB(t, "lifecycle_complete_guard")
	fx := seedRestaurant(t, db, 4)
	bookings := NewBookingService(db, nil, nil)

	created := makeBooking(t, bookings, fx, 2)

	// Pending bookings are not the auto-complete job's to touch: the guarded
	// update matches nothing, reports success and leaves the claim alone.
	require.NoError(t, markBookingCompleted(db, created.BookingID))

	var booking models.Booking
	require.NoError(t, db.First(&booking, created.BookingID).Error)
	assert.Equal(t, models.BookingStatusPending, booking.Status)

	var rows []models.BookingTable
	require.NoError(t, db.Where("booking_id = ?", created.BookingID).Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.NotNil(t, rows[0].SlotKey)
}

func TestCompletePendingRejected(t *testing.T) {
	db := newTestDB(t, "lifecycle_complete_pending")
	fx := seedRestaurant(t, db, 4)
	bookings := NewBookingService(db, nil, nil)
	lifecycle := NewLifecycleService(db, nil, nil)

	created := makeBooking(t, bookings, fx, 2)
	err := lifecycle.Complete(fx.Restaurant.ID, created.BookingID)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestMarkNoShowRequiresActiveAndGrace(t *testing.T) {
	db := newTestDB(t, "lifecycle_noshow")
	fx := seedRestaurant(t, db, 4)
	bookings := NewBookingService(db, nil, nil)
	lifecycle := NewLifecycleService(db, nil, nil)

	created := makeBooking(t, bookings, fx, 2)

	// Pending bookings cannot be flagged.
	err := lifecycle.MarkNoShow(fx.Restaurant.ID, created.BookingID)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = lifecycle.CheckIn(fx.Restaurant.ID, created.CheckinCode)
	require.NoError(t, err)

	// The slot is tomorrow, so the grace window cannot have elapsed.
	err = lifecycle.MarkNoShow(fx.Restaurant.ID, created.BookingID)
	assert.ErrorIs(t, err, ErrInvalidInput)

	// Backdate the booking past the grace window and try again.
	require.NoError(t, db.Model(&models.Booking{}).
		Where("id = ?", created.BookingID).
		Updates(map[string]interface{}{"date": "2020-01-06", "start_time": "12:00"}).Error)

	require.NoError(t, lifecycle.MarkNoShow(fx.Restaurant.ID, created.BookingID))

	var booking models.Booking
	require.NoError(t, db.First(&booking, created.BookingID).Error)
	assert.Equal(t, models.BookingStatusNoShow, booking.Status)
}

func TestSweepExpiredCompletesPastActiveBookings(t *testing.T) {
	db := newTestDB(t, "lifecycle_sweep")
	fx := seedRestaurant(t, db, 4)
	bookings := NewBookingService(db, nil, nil)
	lifecycle := NewLifecycleService(db, nil, nil)

	created := makeBooking(t, bookings, fx, 2)
	_, err := lifecycle.CheckIn(fx.Restaurant.ID, created.CheckinCode)
	require.NoError(t, err)

	// Still in the future: the sweep must leave it alone.
	require.NoError(t, lifecycle.SweepExpired())
	var booking models.Booking
	require.NoError(t, db.First(&booking, created.BookingID).Error)
	assert.Equal(t, models.BookingStatusActive, booking.Status)

	require.NoError(t, db.Model(&models.Booking{}).
		Where("id = ?", created.BookingID).
		Update("date", "2020-01-06").Error)

	require.NoError(t, lifecycle.SweepExpired())
	require.NoError(t, db.First(&booking, created.BookingID).Error)
	assert.Equal(t, models.BookingStatusCompleted, booking.Status)
}
