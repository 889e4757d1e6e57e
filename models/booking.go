package models

import "time"

// Booking statuses. Pending and active are the two non-terminal states: only
// they occupy table capacity. Terminal bookings keep their BookingTable rows
// for history; capacity is freed implicitly because every availability query
// filters on NonTerminalStatuses.
const (
	BookingStatusPending   = "pending"
	BookingStatusActive    = "active"
	BookingStatusCompleted = "completed"
	BookingStatusCancelled = "cancelled"
	BookingStatusNoShow    = "no_show"
)

// Booking sources.
const (
	BookingSourceOnline = "online"
	BookingSourceWalkin = "walkin"
)

// NonTerminalStatuses is the filter meaning "this booking holds its tables".
var NonTerminalStatuses = []string{BookingStatusPending, BookingStatusActive}

// Booking is one reservation of a set of tables for a single slot.
// Online bookings carry UserID; walk-ins carry CustomerName/CustomerPhone.
// Date is "YYYY-MM-DD" and StartTime is an "HH:MM" member of the slot grid
// derived from the restaurant's operating hours and reservation duration.
type Booking struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	RestaurantID  uint      `gorm:"not null;index:idx_booking_slot" json:"restaurant_id"`
	Date          string    `gorm:"type:varchar(10);not null;index:idx_booking_slot" json:"date"`
	StartTime     string    `gorm:"type:varchar(5);not null;index:idx_booking_slot" json:"start_time"`
	GuestCount    int       `gorm:"not null" json:"guest_count"`
	Status        string    `gorm:"type:varchar(30);not null;default:'pending';index" json:"status"`
	Source        string    `gorm:"type:varchar(10);not null" json:"source"`
	UserID        *uint     `gorm:"index" json:"user_id,omitempty"`
	User          *User     `gorm:"foreignKey:UserID" json:"-"`
	CustomerName  string    `gorm:"type:varchar(100)" json:"customer_name,omitempty"`
	CustomerPhone string    `gorm:"type:varchar(20)" json:"customer_phone,omitempty"`
	CheckinCode   string    `gorm:"type:varchar(10);not null;index" json:"checkin_code"`
	CreatedAt     time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time `gorm:"not null" json:"updated_at"`

	Tables []BookingTable `gorm:"foreignKey:BookingID" json:"tables,omitempty"`
}

// BookingTable commits one physical table to one booking. A row whose booking
// is non-terminal is exactly what "the table is busy at that slot" means, so
// at most one such row may ever exist per (table, date, start_time) - the
// allocator's core exclusion invariant.
//
// SlotKey is the database-level enforcement of that invariant: the allocator
// stamps it with "date start_time" on insert and every terminal transition
// nulls it out. The unique index over (table_instance_id, slot_key) then
// rejects a second live claim for the same table and slot no matter how the
// allocator's reads interleave, while NULL rows (history) never collide.
type BookingTable struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	BookingID       uint           `gorm:"not null;index" json:"booking_id"`
	Booking         *Booking       `gorm:"foreignKey:BookingID" json:"-"`
	TableInstanceID uint           `gorm:"not null;index;uniqueIndex:idx_live_claim" json:"table_instance_id"`
	Table           *TableInstance `gorm:"foreignKey:TableInstanceID" json:"table,omitempty"`
	SlotKey         *string        `gorm:"type:varchar(20);uniqueIndex:idx_live_claim" json:"-"`
}

// IsTerminal reports whether a status no longer occupies capacity.
func IsTerminal(status string) bool {
	switch status {
	case BookingStatusCompleted, BookingStatusCancelled, BookingStatusNoShow:
		return true
	}
	return false
}
