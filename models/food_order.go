package models

import "time"

// FoodOrder is the single food order attached to a booking. Staff build it up
// while the booking is active; once finalized it is immutable and its total
// counts toward the restaurant's revenue rollup.
type FoodOrder struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	BookingID   uint      `gorm:"not null;uniqueIndex" json:"booking_id"`
	Booking     *Booking  `gorm:"foreignKey:BookingID" json:"-"`
	IsFinalized bool      `gorm:"default:false" json:"is_finalized"`
	TotalAmount float64   `gorm:"type:decimal(12,2);not null;default:0" json:"total_amount"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null" json:"updated_at"`

	Items []FoodOrderItem `gorm:"foreignKey:FoodOrderID" json:"items,omitempty"`
}

type FoodOrderItem struct {
	ID          uint             `gorm:"primaryKey" json:"id"`
	FoodOrderID uint             `gorm:"not null;index" json:"food_order_id"`
	FoodItemID  uint             `gorm:"not null" json:"food_item_id"`
	FoodItem    *FoodItem        `gorm:"foreignKey:FoodItemID" json:"food_item,omitempty"`
	VariantID   *uint            `json:"variant_id,omitempty"`
	Variant     *FoodItemVariant `gorm:"foreignKey:VariantID" json:"variant,omitempty"`
	Quantity    int              `gorm:"not null" json:"quantity"`
	UnitPrice   float64          `gorm:"type:decimal(10,2);not null" json:"unit_price"`
}
