package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/dineflow/reserva-backend/models"
	"github.com/dineflow/reserva-backend/models/scopes"
	"github.com/dineflow/reserva-backend/utils"
)

// FoodService covers the menu, the per-booking food order and item stock.
// Each booking carries at most one order; staff edit it while the booking is
// active and finalize it at the end, after which its total feeds revenue.
type FoodService struct {
	db *gorm.DB
}

func NewFoodService(db *gorm.DB) *FoodService {
	return &FoodService{db: db}
}

type OrderItemInput struct {
	FoodItemID uint  `json:"food_item_id" binding:"required"`
	VariantID  *uint `json:"variant_id"`
	Quantity   int   `json:"quantity" binding:"required,min=1"`
}

// Menu returns the orderable items for a restaurant at a given slot time.
// Items bound to offering periods are filtered to those whose window covers
// the slot; items with no period are always offered.
func (s *FoodService) Menu(restaurantID uint, slotTime string) ([]models.FoodItem, error) {
	var items []models.FoodItem
	err := s.db.
		Joins("JOIN food_categories ON food_categories.id = food_items.food_category_id").
		Where("food_categories.restaurant_id = ? AND food_categories.is_deleted = ?", restaurantID, false).
		Where("food_items.is_deleted = ? AND food_items.is_available = ?", false, true).
		Preload("Variants", "is_deleted = ?", false).
		Preload("OfferingPeriods", "is_deleted = ?", false).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	if slotTime == "" {
		return items, nil
	}
	slot, err := ParseClock(slotTime)
	if err != nil {
		return nil, err
	}

	offered := items[:0]
	for _, item := range items {
		if len(item.OfferingPeriods) == 0 || periodCovers(item.OfferingPeriods, slot) {
			offered = append(offered, item)
		}
	}
	return offered, nil
}

func periodCovers(periods []models.FoodOfferingPeriod, slotMinutes int) bool {
	for _, p := range periods {
		start, err := ParseClock(p.StartTime)
		if err != nil {
			continue
		}
		end, err := ParseClock(p.EndTime)
		if err != nil {
			continue
		}
		if slotMinutes >= start && slotMinutes < end {
			return true
		}
	}
	return false
}

// UpsertOrder replaces the booking's order lines with the given set. Stock
// is adjusted by the net change against the previous lines, so shrinking a
// quantity returns stock and growing it consumes stock, all in one
// transaction. Only active bookings with an unfinalized order may be edited.
func (s *FoodService) UpsertOrder(restaurantID, bookingID uint, lines []OrderItemInput) (*models.FoodOrder, error) {
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: order needs at least one line", ErrInvalidInput)
	}

	var booking models.Booking
	err := s.db.Scopes(scopes.WithID(bookingID), scopes.ByRestaurant(restaurantID)).
		First(&booking).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if booking.Status != models.BookingStatusActive {
		return nil, fmt.Errorf("%w: booking is %s", ErrInvalidInput, booking.Status)
	}

	var order *models.FoodOrder
	err = s.db.Transaction(func(tx *gorm.DB) error {
		var existing models.FoodOrder
		err := tx.Preload("Items").Where("booking_id = ?", booking.ID).First(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			existing = models.FoodOrder{BookingID: booking.ID}
			if err := tx.Create(&existing).Error; err != nil {
				return err
			}
		case err != nil:
			return err
		default:
			if existing.IsFinalized {
				return ErrOrderFinalized
			}
		}

		previous := make(map[stockKey]int)
		for _, it := range existing.Items {
			previous[stockKeyFor(it.FoodItemID, it.VariantID)] += it.Quantity
		}

		var total float64
		var newItems []models.FoodOrderItem
		requested := make(map[stockKey]int)
		for _, line := range lines {
			price, err := s.unitPrice(tx, restaurantID, line, booking.StartTime)
			if err != nil {
				return err
			}
			requested[stockKeyFor(line.FoodItemID, line.VariantID)] += line.Quantity
			total += price * float64(line.Quantity)
			newItems = append(newItems, models.FoodOrderItem{
				FoodOrderID: existing.ID,
				FoodItemID:  line.FoodItemID,
				VariantID:   line.VariantID,
				Quantity:    line.Quantity,
				UnitPrice:   price,
			})
		}

		// Apply the net stock change per item. Keys present only in the
		// previous lines get their full quantity back.
		for key := range previous {
			if _, still := requested[key]; !still {
				requested[key] = 0
			}
		}
		for key, wantQty := range requested {
			delta := wantQty - previous[key]
			if delta == 0 {
				continue
			}
			if err := s.adjustStock(tx, key, -delta); err != nil {
				return err
			}
		}

		if err := tx.Where("food_order_id = ?", existing.ID).Delete(&models.FoodOrderItem{}).Error; err != nil {
			return err
		}
		for i := range newItems {
			if err := tx.Create(&newItems[i]).Error; err != nil {
				return err
			}
		}

		err = tx.Model(&existing).Update("total_amount", utils.Round2(total)).Error
		if err != nil {
			return err
		}
		existing.TotalAmount = utils.Round2(total)
		existing.Items = newItems
		order = &existing
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// FinalizeOrder locks the booking's order. Finalizing twice is rejected so
// a double click cannot hide an edit made in between.
func (s *FoodService) FinalizeOrder(restaurantID, bookingID uint) (*models.FoodOrder, error) {
	var booking models.Booking
	err := s.db.Scopes(scopes.WithID(bookingID), scopes.ByRestaurant(restaurantID)).
		First(&booking).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var order models.FoodOrder
	err = s.db.Preload("Items").Where("booking_id = ?", booking.ID).First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if order.IsFinalized {
		return nil, ErrOrderFinalized
	}
	if err := s.db.Model(&order).Update("is_finalized", true).Error; err != nil {
		return nil, err
	}
	order.IsFinalized = true
	return &order, nil
}

func (s *FoodService) OrderForBooking(restaurantID, bookingID uint) (*models.FoodOrder, error) {
	var booking models.Booking
	err := s.db.Scopes(scopes.WithID(bookingID), scopes.ByRestaurant(restaurantID)).
		First(&booking).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var order models.FoodOrder
	err = s.db.Preload("Items").Preload("Items.FoodItem").Preload("Items.Variant").
		Where("booking_id = ?", booking.ID).First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// SetStock creates or updates the stock row for an item or variant.
func (s *FoodService) SetStock(restaurantID, itemID uint, variantID *uint, currentStock, threshold int) (*models.FoodItemStock, error) {
	if currentStock < 0 || threshold < 0 {
		return nil, fmt.Errorf("%w: stock values must be non-negative", ErrInvalidInput)
	}
	if _, err := s.liveItem(restaurantID, itemID); err != nil {
		return nil, err
	}

	var row models.FoodItemStock
	q := s.db.Where("food_item_id = ?", itemID)
	if variantID == nil {
		q = q.Where("variant_id IS NULL")
	} else {
		q = q.Where("variant_id = ?", *variantID)
	}
	err := q.First(&row).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		row = models.FoodItemStock{
			FoodItemID:   itemID,
			VariantID:    variantID,
			CurrentStock: currentStock,
			Threshold:    threshold,
		}
		if err := s.db.Create(&row).Error; err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	default:
		err = s.db.Model(&row).Updates(map[string]interface{}{
			"current_stock": currentStock,
			"threshold":     threshold,
		}).Error
		if err != nil {
			return nil, err
		}
		row.CurrentStock = currentStock
		row.Threshold = threshold
	}
	return &row, nil
}

// LowStockReport logs every stock row at or below its threshold. Registered
// as a recurring job so the kitchen gets a daily heads-up without anyone
// polling the dashboard.
func (s *FoodService) LowStockReport() error {
	var rows []models.FoodItemStock
	err := s.db.Where("current_stock <= threshold").Find(&rows).Error
	if err != nil {
		return err
	}
	for _, row := range rows {
		variant := "base"
		if row.VariantID != nil {
			variant = fmt.Sprintf("variant %d", *row.VariantID)
		}
		utils.InfoLogger.Printf("low stock: item %d (%s) at %d (threshold %d)",
			row.FoodItemID, variant, row.CurrentStock, row.Threshold)
	}
	return nil
}

type stockKey struct {
	itemID    uint
	variantID uint // 0 means the base item
}

func stockKeyFor(itemID uint, variantID *uint) stockKey {
	k := stockKey{itemID: itemID}
	if variantID != nil {
		k.variantID = *variantID
	}
	return k
}

// adjustStock applies delta to the tracked stock row, if one exists. Items
// without a stock row are treated as untracked and never run out. A guarded
// UPDATE keeps the decrement atomic under concurrent order edits.
func (s *FoodService) adjustStock(tx *gorm.DB, key stockKey, delta int) error {
	q := tx.Model(&models.FoodItemStock{}).Where("food_item_id = ?", key.itemID)
	if key.variantID == 0 {
		q = q.Where("variant_id IS NULL")
	} else {
		q = q.Where("variant_id = ?", key.variantID)
	}

	if delta >= 0 {
		return q.Update("current_stock", gorm.Expr("current_stock + ?", delta)).Error
	}

	need := -delta
	res := q.Where("current_stock >= ?", need).
		Update("current_stock", gorm.Expr("current_stock - ?", need))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		// Distinguish "untracked item" from "tracked but short".
		var tracked int64
		c := tx.Model(&models.FoodItemStock{}).Where("food_item_id = ?", key.itemID)
		if key.variantID == 0 {
			c = c.Where("variant_id IS NULL")
		} else {
			c = c.Where("variant_id = ?", key.variantID)
		}
		if err := c.Count(&tracked).Error; err != nil {
			return err
		}
		if tracked > 0 {
			return ErrInsufficientStock
		}
	}
	return nil
}

// unitPrice resolves the price of a line and validates that the item belongs
// to the restaurant, is live and is offered at the booking's slot time.
func (s *FoodService) unitPrice(tx *gorm.DB, restaurantID uint, line OrderItemInput, slotTime string) (float64, error) {
	var item models.FoodItem
	err := tx.
		Joins("JOIN food_categories ON food_categories.id = food_items.food_category_id").
		Where("food_categories.restaurant_id = ? AND food_categories.is_deleted = ?", restaurantID, false).
		Where("food_items.id = ? AND food_items.is_deleted = ? AND food_items.is_available = ?",
			line.FoodItemID, false, true).
		Preload("OfferingPeriods", "is_deleted = ?", false).
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, err
	}

	if len(item.OfferingPeriods) > 0 {
		slot, err := ParseClock(slotTime)
		if err != nil {
			return 0, err
		}
		if !periodCovers(item.OfferingPeriods, slot) {
			return 0, fmt.Errorf("%w: %s is not offered at %s", ErrInvalidInput, item.Name, slotTime)
		}
	}

	if line.VariantID == nil {
		if item.HasVariants {
			return 0, fmt.Errorf("%w: %s requires a variant", ErrInvalidInput, item.Name)
		}
		return item.BasePrice, nil
	}

	var variant models.FoodItemVariant
	err = tx.Where("id = ? AND food_item_id = ? AND is_deleted = ?", *line.VariantID, item.ID, false).
		First(&variant).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, err
	}
	return variant.Price, nil
}

func (s *FoodService) liveItem(restaurantID, itemID uint) (*models.FoodItem, error) {
	var item models.FoodItem
	err := s.db.
		Joins("JOIN food_categories ON food_categories.id = food_items.food_category_id").
		Where("food_categories.restaurant_id = ? AND food_categories.is_deleted = ?", restaurantID, false).
		Where("food_items.id = ? AND food_items.is_deleted = ?", itemID, false).
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}
