package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dineflow/reserva-backend/models"
	"github.com/dineflow/reserva-backend/models/scopes"
	"github.com/dineflow/reserva-backend/utils"
)

// BookingRequest is the allocator input. PreferredTypeIDs orders the caller's
// table-type preference; types not listed are considered last.
type BookingRequest struct {
	RestaurantID     uint
	Date             string // "2006-01-02"
	StartTime        string // "15:04", must be a slot-grid member
	GuestCount       int
	PreferredTypeIDs []uint
	Source           string // online | walkin
	UserID           *uint  // required for online
	CustomerName     string // required for walkin
	CustomerPhone    string // required for walkin
}

type AllocatedTable struct {
	TableID       uint   `json:"table_id"`
	TableNumber   string `json:"table_number"`
	Capacity      int    `json:"capacity"`
	TableTypeID   uint   `json:"table_type_id"`
	TableTypeName string `json:"table_type_name"`
}

type BookingResult struct {
	BookingID   uint             `json:"booking_id"`
	CheckinCode string           `json:"checkin_code"`
	Status      string           `json:"status"`
	Tables      []AllocatedTable `json:"tables"`
}

// BookingService owns the allocation write path. All reads that feed the
// table selection happen inside the same transaction as the insert (with the
// candidate rows locked on engines that support it), so two concurrent
// requests for one slot can never claim the same physical table.
type BookingService struct {
	db        *gorm.DB
	scheduler JobScheduler
	cache     *AvailabilityCache
}

func NewBookingService(db *gorm.DB, scheduler JobScheduler, cache *AvailabilityCache) *BookingService {
	return &BookingService{db: db, scheduler: scheduler, cache: cache}
}

// Create validates the request, allocates tables and persists the booking in
// one transaction. Precondition failures map onto the error taxonomy in the
// order documented there; a lost concurrency race surfaces as
// ErrInsufficientCapacity, never as an internal error.
func (s *BookingService) Create(req BookingRequest) (*BookingResult, error) {
	if err := validateRequestShape(req); err != nil {
		return nil, err
	}

	var restaurant models.Restaurant
	err := s.db.Scopes(scopes.Live, scopes.WithID(req.RestaurantID)).
		Preload("Policy").
		Preload("OperatingHours").
		First(&restaurant).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	day, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return nil, ErrInvalidInput
	}

	// Online bookings must target a strictly future slot in the restaurant's
	// local time. Walk-ins represent a guest standing at the door and skip
	// the check.
	if req.Source == models.BookingSourceOnline {
		if !isFutureSlot(req.Date, req.StartTime, restaurant.Timezone) {
			return nil, ErrInvalidTime
		}
	}

	if len(req.PreferredTypeIDs) > 0 {
		var found int64
		err = s.db.Model(&models.TableType{}).
			Scopes(scopes.Live, scopes.ByRestaurant(req.RestaurantID)).
			Where("id IN ?", req.PreferredTypeIDs).
			Count(&found).Error
		if err != nil {
			return nil, err
		}
		if found != int64(len(uniqueIDs(req.PreferredTypeIDs))) {
			return nil, ErrNotFound
		}
	}

	if restaurant.Policy == nil || len(restaurant.OperatingHours) == 0 {
		return nil, ErrPolicyMissing
	}
	if req.GuestCount > restaurant.Policy.MaxPartySize {
		return nil, fmt.Errorf("%w: party size exceeds the maximum of %d",
			ErrInvalidInput, restaurant.Policy.MaxPartySize)
	}

	opening, closing, open := OpeningHoursFor(day, restaurant.OperatingHours)
	if !open {
		return nil, ErrClosed
	}
	slots := GenerateTimeSlots(opening, closing, restaurant.Policy.ReservationDuration)
	if !containsSlot(slots, req.StartTime) {
		return nil, ErrInvalidTime
	}

	result, err := s.allocate(req, restaurant.Policy)
	if err != nil {
		if isConcurrencyConflict(err) {
			// The race loser sees the same outcome as a plain full house.
			return nil, ErrInsufficientCapacity
		}
		return nil, err
	}

	if s.cache != nil {
		s.cache.Invalidate(req.RestaurantID, req.Date)
	}
	s.scheduleAutoComplete(result.BookingID, req.Date, req.StartTime,
		restaurant.Policy.ReservationDuration, restaurant.Timezone)

	return result, nil
}

// allocate runs the check-then-act sequence inside a single transaction. The
// candidate scan locks the table rows FOR UPDATE (on MySQL) before the
// committed-table re-query runs, so a racer blocked on those locks reads the
// winner's claims after it commits instead of a pre-lock snapshot. The unique
// index on (table_instance_id, slot_key) backstops engines without row locks.
func (s *BookingService) allocate(req BookingRequest, policy *models.RestaurantPolicy) (*BookingResult, error) {
	var result *BookingResult

	err := s.db.Transaction(func(tx *gorm.DB) error {
		locking := tx.Dialector.Name() == "mysql"

		candidates := tx.Model(&models.TableInstance{}).
			Select("table_instances.id, table_instances.table_number, table_instances.capacity, table_instances.table_type_id, table_types.name AS table_type_name").
			Joins("JOIN table_types ON table_types.id = table_instances.table_type_id").
			Where("table_types.restaurant_id = ? AND table_types.is_deleted = ?", req.RestaurantID, false).
			Where("table_instances.is_deleted = ? AND table_instances.is_available = ?", false, true)
		if locking {
			candidates = candidates.Clauses(clause.Locking{Strength: "UPDATE"})
		}

		var available []AllocatedTable
		if err := candidates.Scan(&available).Error; err != nil {
			return err
		}

		// Only after the candidate locks are held: under REPEATABLE READ a
		// plain read here could still pin a snapshot from before a rival
		// commit, so the committed set is read locking too.
		committedQuery := tx.Model(&models.BookingTable{}).
			Joins("JOIN bookings ON bookings.id = booking_tables.booking_id").
			Where("bookings.restaurant_id = ? AND bookings.date = ? AND bookings.start_time = ? AND bookings.status IN ?",
				req.RestaurantID, req.Date, req.StartTime, models.NonTerminalStatuses)
		if locking {
			committedQuery = committedQuery.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		var committed []uint
		if err := committedQuery.Pluck("booking_tables.table_instance_id", &committed).Error; err != nil {
			return err
		}

		taken := make(map[uint]struct{}, len(committed))
		for _, id := range committed {
			taken[id] = struct{}{}
		}
		free := available[:0]
		for _, t := range available {
			if _, busy := taken[t.TableID]; !busy {
				free = append(free, t)
			}
		}

		selected := selectTables(free, req.PreferredTypeIDs, req.GuestCount)
		if selected == nil {
			return ErrInsufficientCapacity
		}

		booking := models.Booking{
			RestaurantID:  req.RestaurantID,
			Date:          req.Date,
			StartTime:     req.StartTime,
			GuestCount:    req.GuestCount,
			Status:        models.BookingStatusPending,
			Source:        req.Source,
			UserID:        req.UserID,
			CustomerName:  req.CustomerName,
			CustomerPhone: req.CustomerPhone,
			CheckinCode:   utils.GenerateCheckinCode(),
		}
		if err := tx.Create(&booking).Error; err != nil {
			return err
		}
		key := claimKey(req.Date, req.StartTime)
		for _, t := range selected {
			bt := models.BookingTable{BookingID: booking.ID, TableInstanceID: t.TableID, SlotKey: &key}
			if err := tx.Create(&bt).Error; err != nil {
				return err
			}
		}

		result = &BookingResult{
			BookingID:   booking.ID,
			CheckinCode: booking.CheckinCode,
			Status:      booking.Status,
			Tables:      selected,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// selectTables greedily accumulates tables until the party fits. Candidates
// are ordered by the caller's type preference (unlisted types last), ties
// broken by ascending instance id for determinism. Returns nil when even the
// full candidate list cannot seat the party - no partial allocation.
func selectTables(available []AllocatedTable, preferred []uint, guestCount int) []AllocatedTable {
	priority := make(map[uint]int, len(preferred))
	for idx, id := range preferred {
		if _, seen := priority[id]; !seen {
			priority[id] = idx
		}
	}
	rank := func(t AllocatedTable) int {
		if p, ok := priority[t.TableTypeID]; ok {
			return p
		}
		return len(preferred) + 1
	}
	sort.Slice(available, func(i, j int) bool {
		ri, rj := rank(available[i]), rank(available[j])
		if ri != rj {
			return ri < rj
		}
		return available[i].TableID < available[j].TableID
	})

	remaining := guestCount
	var selected []AllocatedTable
	for _, t := range available {
		if remaining <= 0 {
			break
		}
		selected = append(selected, t)
		remaining -= t.Capacity
	}
	if remaining > 0 {
		return nil
	}
	return selected
}

func (s *BookingService) scheduleAutoComplete(bookingID uint, date, startTime string, durationMinutes int, timezone string) {
	if s.scheduler == nil {
		return
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		loc = time.UTC
	}
	start, err := time.ParseInLocation("2006-01-02 15:04", date+" "+startTime, loc)
	if err != nil {
		utils.ErrorLogger.Printf("booking %d: cannot schedule auto-complete: %v", bookingID, err)
		return
	}
	endsAt := start.Add(time.Duration(durationMinutes) * time.Minute)

	db := s.db
	err = s.scheduler.ScheduleAt(autoCompleteKey(bookingID), endsAt, func() error {
		return markBookingCompleted(db, bookingID)
	})
	if err != nil {
		utils.ErrorLogger.Printf("booking %d: scheduling auto-complete: %v", bookingID, err)
	}
}

func autoCompleteKey(bookingID uint) string {
	return fmt.Sprintf("booking:%d:auto-complete", bookingID)
}

// claimKey is the slot_key value for a live claim row.
func claimKey(date, startTime string) string {
	return date + " " + startTime
}

// releaseSlotClaims nulls the slot keys of a booking's claim rows so the
// unique live-claim index stops counting them. Called by every terminal
// transition; the rows themselves stay for history.
func releaseSlotClaims(tx *gorm.DB, bookingID uint) error {
	return tx.Model(&models.BookingTable{}).
		Where("booking_id = ?", bookingID).
		Update("slot_key", nil).Error
}

func validateRequestShape(req BookingRequest) error {
	if req.GuestCount <= 0 {
		return fmt.Errorf("%w: guest count must be positive", ErrInvalidInput)
	}
	switch req.Source {
	case models.BookingSourceOnline:
		if req.UserID == nil {
			return fmt.Errorf("%w: online bookings require a user", ErrInvalidInput)
		}
	case models.BookingSourceWalkin:
		if req.CustomerName == "" || req.CustomerPhone == "" {
			return fmt.Errorf("%w: walk-in bookings require customer name and phone", ErrInvalidInput)
		}
	default:
		return fmt.Errorf("%w: unknown booking source %q", ErrInvalidInput, req.Source)
	}
	if _, err := ParseClock(req.StartTime); err != nil {
		return err
	}
	return nil
}

func isFutureSlot(date, startTime, timezone string) bool {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		loc = time.UTC
	}
	slot, err := time.ParseInLocation("2006-01-02 15:04", date+" "+startTime, loc)
	if err != nil {
		return false
	}
	return slot.After(time.Now().In(loc))
}

func containsSlot(slots []string, slot string) bool {
	for _, s := range slots {
		if s == slot {
			return true
		}
	}
	return false
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	var out []uint
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// isConcurrencyConflict matches the database-level failures a losing racer
// can hit: duplicate-key on the claim, serialization aborts, lock timeouts.
func isConcurrencyConflict(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "deadlock") ||
		strings.Contains(msg, "lock wait timeout") ||
		strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "table is locked") ||
		strings.Contains(msg, "duplicate entry") ||
		strings.Contains(msg, "unique constraint")
}
