package models

import "time"

// FoodCategory groups menu items within a restaurant (e.g. "Starters").
type FoodCategory struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	RestaurantID uint   `gorm:"not null;index" json:"restaurant_id"`
	Name         string `gorm:"type:varchar(50);not null" json:"name"`
	Description  string `gorm:"type:varchar(255)" json:"description,omitempty"`
	IsDeleted    bool   `gorm:"default:false;index" json:"-"`
}

// FoodOfferingPeriod is a daily serving window (e.g. Breakfast 07:00-11:00).
// Items are only orderable for bookings whose start time falls inside one of
// their periods. Times are "HH:MM".
type FoodOfferingPeriod struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	RestaurantID uint   `gorm:"not null;index" json:"restaurant_id"`
	Name         string `gorm:"type:varchar(50);not null" json:"name"`
	StartTime    string `gorm:"type:varchar(5);not null" json:"start_time"`
	EndTime      string `gorm:"type:varchar(5);not null" json:"end_time"`
	IsDeleted    bool   `gorm:"default:false" json:"-"`
}

type FoodItem struct {
	ID             uint          `gorm:"primaryKey" json:"id"`
	FoodCategoryID uint          `gorm:"not null;index" json:"food_category_id"`
	Category       *FoodCategory `gorm:"foreignKey:FoodCategoryID" json:"category,omitempty"`
	Name           string        `gorm:"type:varchar(100);not null" json:"name"`
	Description    string        `gorm:"type:varchar(255)" json:"description,omitempty"`
	BasePrice      float64       `gorm:"type:decimal(10,2)" json:"base_price"`
	HasVariants    bool          `gorm:"default:false" json:"has_variants"`
	IsAvailable    bool          `gorm:"default:true" json:"is_available"`
	IsDeleted      bool          `gorm:"default:false;index" json:"-"`

	Variants        []FoodItemVariant    `gorm:"foreignKey:FoodItemID" json:"variants,omitempty"`
	OfferingPeriods []FoodOfferingPeriod `gorm:"many2many:food_item_offerings" json:"offering_periods,omitempty"`
}

type FoodItemVariant struct {
	ID          uint    `gorm:"primaryKey" json:"id"`
	FoodItemID  uint    `gorm:"not null;index" json:"food_item_id"`
	Name        string  `gorm:"type:varchar(50);not null" json:"name"`
	Price       float64 `gorm:"type:decimal(10,2);not null" json:"price"`
	Description string  `gorm:"type:varchar(255)" json:"description,omitempty"`
	IsDeleted   bool    `gorm:"default:false" json:"-"`
}

// FoodItemStock is the countable stock for an item, or for one of its
// variants when VariantID is set. One row per (item, variant) pair.
type FoodItemStock struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	FoodItemID   uint      `gorm:"not null;index:idx_stock_item_variant,unique" json:"food_item_id"`
	VariantID    *uint     `gorm:"index:idx_stock_item_variant,unique" json:"variant_id,omitempty"`
	CurrentStock int       `gorm:"not null;default:0" json:"current_stock"`
	Threshold    int       `gorm:"not null;default:10" json:"threshold"`
	UpdatedAt    time.Time `gorm:"not null" json:"updated_at"`
}
