package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/dineflow/reserva-backend/models"
	"github.com/dineflow/reserva-backend/models/scopes"
)

// InventoryService manages table types and their physical instances for a
// restaurant. Deletes are soft and cascade from a type onto its instances;
// live bookings always block removal.
type InventoryService struct {
	db *gorm.DB
}

func NewInventoryService(db *gorm.DB) *InventoryService {
	return &InventoryService{db: db}
}

type TableTypeInput struct {
	Name            string `json:"name" binding:"required"`
	Description     string `json:"description"`
	Shape           string `json:"shape"`
	MinimumCapacity int    `json:"minimum_capacity" binding:"required,min=1"`
	MaximumCapacity int    `json:"maximum_capacity" binding:"required,min=1"`
}

type TableInstanceInput struct {
	TableNumber         string `json:"table_number" binding:"required"`
	Capacity            int    `json:"capacity" binding:"required,min=1"`
	LocationDescription string `json:"location_description"`
}

func (s *InventoryService) CreateTableType(restaurantID uint, in TableTypeInput) (*models.TableType, error) {
	if in.MinimumCapacity <= 0 || in.MaximumCapacity < in.MinimumCapacity {
		return nil, ErrCapacityOutOfRange
	}
	tt := models.TableType{
		RestaurantID:    restaurantID,
		Name:            in.Name,
		Description:     in.Description,
		Shape:           in.Shape,
		MinimumCapacity: in.MinimumCapacity,
		MaximumCapacity: in.MaximumCapacity,
	}
	if err := s.db.Create(&tt).Error; err != nil {
		return nil, err
	}
	return &tt, nil
}

func (s *InventoryService) UpdateTableType(restaurantID, typeID uint, in TableTypeInput) (*models.TableType, error) {
	tt, err := s.liveType(restaurantID, typeID)
	if err != nil {
		return nil, err
	}
	if in.MinimumCapacity <= 0 || in.MaximumCapacity < in.MinimumCapacity {
		return nil, ErrCapacityOutOfRange
	}

	// Shrinking the range must not orphan existing live instances.
	var outliers int64
	err = s.db.Model(&models.TableInstance{}).
		Scopes(scopes.Live).
		Where("table_type_id = ?", tt.ID).
		Where("capacity < ? OR capacity > ?", in.MinimumCapacity, in.MaximumCapacity).
		Count(&outliers).Error
	if err != nil {
		return nil, err
	}
	if outliers > 0 {
		return nil, ErrCapacityOutOfRange
	}

	err = s.db.Model(tt).Updates(map[string]interface{}{
		"name":             in.Name,
		"description":      in.Description,
		"shape":            in.Shape,
		"minimum_capacity": in.MinimumCapacity,
		"maximum_capacity": in.MaximumCapacity,
	}).Error
	if err != nil {
		return nil, err
	}
	return tt, nil
}

// DeleteTableType soft-deletes the type and cascades onto its live
// instances inside one transaction. Blocked while any instance still holds
// a non-terminal booking.
func (s *InventoryService) DeleteTableType(restaurantID, typeID uint) error {
	tt, err := s.liveType(restaurantID, typeID)
	if err != nil {
		return err
	}

	inUse, err := s.typeHasLiveBookings(tt.ID)
	if err != nil {
		return err
	}
	if inUse {
		return ErrTableInUse
	}

	now := time.Now()
	return s.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&models.TableInstance{}).
			Where("table_type_id = ? AND is_deleted = ?", tt.ID, false).
			Updates(map[string]interface{}{"is_deleted": true, "deleted_at": now}).Error
		if err != nil {
			return err
		}
		return tx.Model(tt).
			Updates(map[string]interface{}{"is_deleted": true, "deleted_at": now}).Error
	})
}

func (s *InventoryService) ListTableTypes(restaurantID uint) ([]models.TableType, error) {
	var types []models.TableType
	err := s.db.Scopes(scopes.Live, scopes.ByRestaurant(restaurantID)).
		Preload("Tables", "is_deleted = ?", false).
		Find(&types).Error
	return types, err
}

func (s *InventoryService) CreateTableInstance(restaurantID, typeID uint, in TableInstanceInput) (*models.TableInstance, error) {
	tt, err := s.liveType(restaurantID, typeID)
	if err != nil {
		return nil, err
	}
	if in.Capacity < tt.MinimumCapacity || in.Capacity > tt.MaximumCapacity {
		return nil, ErrCapacityOutOfRange
	}
	taken, err := s.tableNumberTaken(restaurantID, in.TableNumber, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrDuplicateTableNumber
	}

	ti := models.TableInstance{
		TableTypeID:         tt.ID,
		TableNumber:         in.TableNumber,
		Capacity:            in.Capacity,
		LocationDescription: in.LocationDescription,
		IsAvailable:         true,
	}
	if err := s.db.Create(&ti).Error; err != nil {
		return nil, err
	}
	return &ti, nil
}

func (s *InventoryService) UpdateTableInstance(restaurantID, instanceID uint, in TableInstanceInput) (*models.TableInstance, error) {
	ti, tt, err := s.liveInstance(restaurantID, instanceID)
	if err != nil {
		return nil, err
	}
	if in.Capacity < tt.MinimumCapacity || in.Capacity > tt.MaximumCapacity {
		return nil, ErrCapacityOutOfRange
	}
	taken, err := s.tableNumberTaken(restaurantID, in.TableNumber, ti.ID)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrDuplicateTableNumber
	}

	err = s.db.Model(ti).Updates(map[string]interface{}{
		"table_number":         in.TableNumber,
		"capacity":             in.Capacity,
		"location_description": in.LocationDescription,
	}).Error
	if err != nil {
		return nil, err
	}
	return ti, nil
}

// SetInstanceAvailability toggles is_available, the staff-facing "take this
// table out of service" switch. Unlike deletion it is freely reversible and
// does not touch existing bookings.
func (s *InventoryService) SetInstanceAvailability(restaurantID, instanceID uint, available bool) error {
	ti, _, err := s.liveInstance(restaurantID, instanceID)
	if err != nil {
		return err
	}
	return s.db.Model(ti).Update("is_available", available).Error
}

func (s *InventoryService) DeleteTableInstance(restaurantID, instanceID uint) error {
	ti, _, err := s.liveInstance(restaurantID, instanceID)
	if err != nil {
		return err
	}

	var held int64
	err = s.db.Model(&models.BookingTable{}).
		Joins("JOIN bookings ON bookings.id = booking_tables.booking_id").
		Where("booking_tables.table_instance_id = ? AND bookings.status IN ?", ti.ID, models.NonTerminalStatuses).
		Count(&held).Error
	if err != nil {
		return err
	}
	if held > 0 {
		return ErrTableInUse
	}

	return s.db.Model(ti).
		Updates(map[string]interface{}{"is_deleted": true, "deleted_at": time.Now()}).Error
}

func (s *InventoryService) liveType(restaurantID, typeID uint) (*models.TableType, error) {
	var tt models.TableType
	err := s.db.Scopes(scopes.Live, scopes.ByRestaurant(restaurantID), scopes.WithID(typeID)).
		First(&tt).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &tt, nil
}

func (s *InventoryService) liveInstance(restaurantID, instanceID uint) (*models.TableInstance, *models.TableType, error) {
	var ti models.TableInstance
	err := s.db.Scopes(scopes.Live, scopes.WithID(instanceID)).First(&ti).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, ErrNotFound
	}
	if err != nil {
		return nil, nil, err
	}
	var tt models.TableType
	err = s.db.Scopes(scopes.Live, scopes.ByRestaurant(restaurantID), scopes.WithID(ti.TableTypeID)).
		First(&tt).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, ErrNotFound
	}
	if err != nil {
		return nil, nil, err
	}
	return &ti, &tt, nil
}

func (s *InventoryService) tableNumberTaken(restaurantID uint, tableNumber string, excludeID uint) (bool, error) {
	q := s.db.Model(&models.TableInstance{}).
		Joins("JOIN table_types ON table_types.id = table_instances.table_type_id").
		Where("table_types.restaurant_id = ? AND table_types.is_deleted = ?", restaurantID, false).
		Where("table_instances.is_deleted = ? AND table_instances.table_number = ?", false, tableNumber)
	if excludeID > 0 {
		q = q.Where("table_instances.id <> ?", excludeID)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *InventoryService) typeHasLiveBookings(typeID uint) (bool, error) {
	var n int64
	err := s.db.Model(&models.BookingTable{}).
		Joins("JOIN bookings ON bookings.id = booking_tables.booking_id").
		Joins("JOIN table_instances ON table_instances.id = booking_tables.table_instance_id").
		Where("table_instances.table_type_id = ? AND bookings.status IN ?", typeID, models.NonTerminalStatuses).
		Count(&n).Error
	return n > 0, err
}
