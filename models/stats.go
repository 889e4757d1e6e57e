package models

import "time"

// DailyStats is the precomputed rollup row for one restaurant and calendar
// day. It is an optimization for dashboard reads over historical ranges; the
// rollup service always computes "today" live and falls back to a live
// computation for days that have no row. Re-running the nightly materializer
// overwrites the row rather than double-counting.
type DailyStats struct {
	ID                    uint      `gorm:"primaryKey" json:"id"`
	RestaurantID          uint      `gorm:"not null;index:idx_daily_stats_day,unique" json:"restaurant_id"`
	Date                  string    `gorm:"type:varchar(10);not null;index:idx_daily_stats_day,unique" json:"date"`
	TotalReservations     int64     `gorm:"not null;default:0" json:"total_reservations"`
	CancelledReservations int64     `gorm:"not null;default:0" json:"cancelled_reservations"`
	NoShowReservations    int64     `gorm:"not null;default:0" json:"no_show_reservations"`
	ReservedOccupancy     int64     `gorm:"not null;default:0" json:"reserved_occupancy"`
	MaximumOccupancy      int64     `gorm:"not null;default:0" json:"maximum_occupancy"`
	TotalRevenue          float64   `gorm:"type:decimal(12,2);not null;default:0" json:"total_revenue"`
	CreatedAt             time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt             time.Time `gorm:"not null" json:"updated_at"`
}
