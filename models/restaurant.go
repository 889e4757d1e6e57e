package models

import "time"

type Restaurant struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Name        string     `gorm:"type:varchar(100);not null" json:"name"`
	Phone       string     `gorm:"type:varchar(15);not null" json:"phone"`
	Address     string     `gorm:"type:varchar(150);not null" json:"address"`
	Timezone    string     `gorm:"type:varchar(100);not null;default:'Asia/Kolkata'" json:"timezone"`
	Description string     `gorm:"type:text" json:"description,omitempty"`
	AdminID     uint       `gorm:"not null;index" json:"admin_id"`
	Admin       Admin      `gorm:"foreignKey:AdminID" json:"-"`
	CreatedAt   time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"not null" json:"updated_at"`
	IsDeleted   bool       `gorm:"default:false;index" json:"-"`
	DeletedAt   *time.Time `json:"-"`

	Policy         *RestaurantPolicy          `gorm:"foreignKey:RestaurantID" json:"policy,omitempty"`
	OperatingHours []RestaurantOperatingHours `gorm:"foreignKey:RestaurantID" json:"operating_hours,omitempty"`
	TableTypes     []TableType                `gorm:"foreignKey:RestaurantID" json:"table_types,omitempty"`
}

// RestaurantPolicy holds the booking knobs for one restaurant.
// ReservationDuration is the slot granularity in minutes and must be > 0.
type RestaurantPolicy struct {
	ID                  uint `gorm:"primaryKey" json:"id"`
	RestaurantID        uint `gorm:"not null;uniqueIndex" json:"restaurant_id"`
	ReservationDuration int  `gorm:"not null" json:"reservation_duration"`
	MaxPartySize        int  `gorm:"not null" json:"max_party_size"`
	MaxAdvanceDays      int  `gorm:"not null" json:"max_advance_days"`
	// Minutes after slot start before staff may mark an active-less booking no_show.
	NoShowGraceMinutes int `gorm:"not null;default:30" json:"no_show_grace_minutes"`
}

// RestaurantOperatingHours is one row per weekday a restaurant is open.
// DayOfWeek is ISO-style, Monday=0 through Sunday=6. A missing row means the
// restaurant is closed that day. Times are "HH:MM" strings, opening < closing.
type RestaurantOperatingHours struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	RestaurantID uint   `gorm:"not null;index:idx_hours_restaurant_day" json:"restaurant_id"`
	DayOfWeek    int    `gorm:"not null;index:idx_hours_restaurant_day" json:"day_of_week"`
	OpeningTime  string `gorm:"type:varchar(5);not null" json:"opening_time"`
	ClosingTime  string `gorm:"type:varchar(5);not null" json:"closing_time"`
}

var weekdayNames = [7]string{
	"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday",
}

// WeekdayName returns the human name for an ISO weekday index, "" if out of range.
func WeekdayName(day int) string {
	if day < 0 || day > 6 {
		return ""
	}
	return weekdayNames[day]
}
