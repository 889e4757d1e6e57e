// Package scopes centralizes the query fragments every repository call is
// supposed to remember: live (not soft-deleted) rows and restaurant
// ownership. Using them by construction keeps the is_deleted flag out of
// ad hoc WHERE clauses.
package scopes

import (
	"gorm.io/gorm"
)

func Live(db *gorm.DB) *gorm.DB {
	return db.Where("is_deleted = ?", false)
}

func ByRestaurant(restaurantID uint) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("restaurant_id = ?", restaurantID)
	}
}

func WithID(id uint) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("id = ?", id)
	}
}
