package services

import (
	"fmt"
	"time"

	"github.com/dineflow/reserva-backend/models"
)

// ParseClock parses an "HH:MM" string into minutes since midnight.
func ParseClock(s string) (int, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("%w: bad time %q", ErrInvalidInput, s)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("%w: bad time %q", ErrInvalidInput, s)
	}
	return h*60 + m, nil
}

func formatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// GenerateTimeSlots expands an operating window into the ordered list of
// bookable start times, spaced durationMinutes apart, starting at the opening
// time. A slot is emitted only if its whole duration fits before closing, so
// a window shorter than the duration yields an empty list - open but
// unbookable, which callers must not treat as an error.
func GenerateTimeSlots(openingTime, closingTime string, durationMinutes int) []string {
	if durationMinutes <= 0 {
		return nil
	}
	open, err := ParseClock(openingTime)
	if err != nil {
		return nil
	}
	closeAt, err := ParseClock(closingTime)
	if err != nil {
		return nil
	}

	var slots []string
	for t := open; t+durationMinutes <= closeAt; t += durationMinutes {
		slots = append(slots, formatClock(t))
	}
	return slots
}

// SlotEnd returns the wall-clock end of a slot, e.g. ("19:30", 90) -> "21:00".
func SlotEnd(startTime string, durationMinutes int) (string, error) {
	start, err := ParseClock(startTime)
	if err != nil {
		return "", err
	}
	return formatClock(start + durationMinutes), nil
}

// ISOWeekday maps a date to the Monday=0..Sunday=6 index the operating-hours
// rows are keyed by.
func ISOWeekday(date time.Time) int {
	return (int(date.Weekday()) + 6) % 7
}

// OpeningHoursFor resolves a calendar date against already-fetched operating
// hours. The third return is false when the restaurant is closed that day.
// No queries happen here; at most seven rows are scanned.
func OpeningHoursFor(date time.Time, hours []models.RestaurantOperatingHours) (string, string, bool) {
	day := ISOWeekday(date)
	for _, h := range hours {
		if h.DayOfWeek == day {
			return h.OpeningTime, h.ClosingTime, true
		}
	}
	return "", "", false
}

// SlotsPerWeekday precomputes the bookable slot count for each weekday the
// restaurant is open, so the rollup does not regenerate slot grids per day.
func SlotsPerWeekday(hours []models.RestaurantOperatingHours, durationMinutes int) map[int]int {
	out := make(map[int]int, len(hours))
	if durationMinutes <= 0 {
		return out
	}
	for _, h := range hours {
		open, err1 := ParseClock(h.OpeningTime)
		closeAt, err2 := ParseClock(h.ClosingTime)
		if err1 != nil || err2 != nil || closeAt <= open {
			continue
		}
		out[h.DayOfWeek] = (closeAt - open) / durationMinutes
	}
	return out
}
