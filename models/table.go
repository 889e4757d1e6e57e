package models

import "time"

// TableType groups physical tables that share a capacity range and shape,
// e.g. "Two-seater" or "Family Table". MinimumCapacity <= MaximumCapacity.
type TableType struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	RestaurantID    uint       `gorm:"not null;index" json:"restaurant_id"`
	Name            string     `gorm:"type:varchar(50);not null" json:"name"`
	MinimumCapacity int        `gorm:"not null" json:"minimum_capacity"`
	MaximumCapacity int        `gorm:"not null" json:"maximum_capacity"`
	Shape           string     `gorm:"type:varchar(30)" json:"shape,omitempty"`
	Description     string     `gorm:"type:varchar(200)" json:"description,omitempty"`
	IsDeleted       bool       `gorm:"default:false;index" json:"-"`
	DeletedAt       *time.Time `json:"-"`

	Tables []TableInstance `gorm:"foreignKey:TableTypeID" json:"tables,omitempty"`
}

// TableInstance is one physical table. TableNumber is unique among live
// instances of the owning restaurant; Capacity must lie within the type's
// range. IsAvailable is a manual override (maintenance etc), separate from
// booking state.
type TableInstance struct {
	ID                  uint       `gorm:"primaryKey" json:"id"`
	TableTypeID         uint       `gorm:"not null;index" json:"table_type_id"`
	TableType           *TableType `gorm:"foreignKey:TableTypeID" json:"table_type,omitempty"`
	TableNumber         string     `gorm:"type:varchar(20);not null" json:"table_number"`
	Capacity            int        `gorm:"not null" json:"capacity"`
	LocationDescription string     `gorm:"type:varchar(100)" json:"location_description,omitempty"`
	IsAvailable         bool       `gorm:"default:true" json:"is_available"`
	IsDeleted           bool       `gorm:"default:false;index" json:"-"`
	DeletedAt           *time.Time `json:"-"`
}
