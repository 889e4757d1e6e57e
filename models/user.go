package models

import "time"

// User is a diner account scoped to a single restaurant. Staff accounts share
// this table and are distinguished by Role.
type User struct {
	ID                     uint       `gorm:"primaryKey" json:"id"`
	RestaurantID           uint       `gorm:"not null;index" json:"restaurant_id"`
	FirstName              string     `gorm:"type:varchar(100);not null" json:"first_name"`
	MiddleName             string     `gorm:"type:varchar(100)" json:"middle_name,omitempty"`
	LastName               string     `gorm:"type:varchar(100)" json:"last_name,omitempty"`
	Email                  string     `gorm:"type:varchar(100);not null;index" json:"email"`
	Password               string     `gorm:"type:varchar(200);not null" json:"-"`
	Phone                  string     `gorm:"type:varchar(20)" json:"phone,omitempty"`
	Role                   Role       `gorm:"type:varchar(50);not null;default:'user'" json:"role"`
	IsEmailVerified        bool       `gorm:"default:false" json:"is_email_verified"`
	EmailVerificationCode  string     `gorm:"type:varchar(50)" json:"-"`
	VerificationCodeSentAt *time.Time `json:"-"`
	CreatedAt              time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt              time.Time  `gorm:"not null" json:"updated_at"`
	IsDeleted              bool       `gorm:"default:false;index" json:"-"`
	DeletedAt              *time.Time `json:"-"`
}

// Admin owns one or more restaurants. Kept in its own table because the
// lifecycle (verification, ownership checks) differs from diner accounts.
type Admin struct {
	ID                     uint       `gorm:"primaryKey" json:"id"`
	FirstName              string     `gorm:"type:varchar(100);not null" json:"first_name"`
	MiddleName             string     `gorm:"type:varchar(100)" json:"middle_name,omitempty"`
	LastName               string     `gorm:"type:varchar(100)" json:"last_name,omitempty"`
	Email                  string     `gorm:"type:varchar(100);not null;index" json:"email"`
	Password               string     `gorm:"type:varchar(200);not null" json:"-"`
	Phone                  string     `gorm:"type:varchar(20)" json:"phone,omitempty"`
	IsEmailVerified        bool       `gorm:"default:false" json:"is_email_verified"`
	EmailVerificationCode  string     `gorm:"type:varchar(50)" json:"-"`
	VerificationCodeSentAt *time.Time `json:"-"`
	CreatedAt              time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt              time.Time  `gorm:"not null" json:"updated_at"`
	IsDeleted              bool       `gorm:"default:false;index" json:"-"`
	DeletedAt              *time.Time `json:"-"`
}
