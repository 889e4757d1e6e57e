package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/dineflow/reserva-backend/models"
	"github.com/dineflow/reserva-backend/realtime"
	"github.com/dineflow/reserva-backend/services"
	"github.com/dineflow/reserva-backend/utils"
)

type FoodController struct {
	DB   *gorm.DB
	Food *services.FoodService
}

func NewFoodController(db *gorm.DB, food *services.FoodService) *FoodController {
	return &FoodController{DB: db, Food: food}
}

func (fc *FoodController) CreateCategory(c *gin.Context) {
	restaurantID, ok := restaurantParam(c)
	if !ok {
		return
	}
	if !requireRestaurantAccess(c, fc.DB, restaurantID) {
		return
	}

	var req struct {
		Name        string `json:"name" binding:"required"`
		Description string `json:"description"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	category := models.FoodCategory{
		RestaurantID: restaurantID,
		Name:         req.Name,
		Description:  req.Description,
	}
	if err := fc.DB.Create(&category).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Category created", category)
}

func (fc *FoodController) CreateOfferingPeriod(c *gin.Context) {
	restaurantID, ok := restaurantParam(c)
	if !ok {
		return
	}
	if !requireRestaurantAccess(c, fc.DB, restaurantID) {
		return
	}

	var req struct {
		Name      string `json:"name" binding:"required"`
		StartTime string `json:"start_time" binding:"required"`
		EndTime   string `json:"end_time" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	startMin, err := services.ParseClock(req.StartTime)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	endMin, err := services.ParseClock(req.EndTime)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if startMin >= endMin {
		utils.RespondError(c, http.StatusBadRequest, errors.New("start_time must be before end_time"))
		return
	}

	period := models.FoodOfferingPeriod{
		RestaurantID: restaurantID,
		Name:         req.Name,
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
	}
	if err := fc.DB.Create(&period).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Offering period created", period)
}

// CreateItem registers a menu item with optional variants and offering
// periods in one request, the way the admin console submits it.
func (fc *FoodController) CreateItem(c *gin.Context) {
	restaurantID, ok := restaurantParam(c)
	if !ok {
		return
	}
	if !requireRestaurantAccess(c, fc.DB, restaurantID) {
		return
	}

	var req struct {
		FoodCategoryID    uint    `json:"food_category_id" binding:"required"`
		Name              string  `json:"name" binding:"required"`
		Description       string  `json:"description"`
		BasePrice         float64 `json:"base_price"`
		OfferingPeriodIDs []uint  `json:"offering_period_ids"`
		Variants          []struct {
			Name        string  `json:"name" binding:"required"`
			Price       float64 `json:"price" binding:"required"`
			Description string  `json:"description"`
		} `json:"variants"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var category models.FoodCategory
	err := fc.DB.Where("id = ? AND restaurant_id = ? AND is_deleted = ?",
		req.FoodCategoryID, restaurantID, false).First(&category).Error
	if err != nil {
		respondServiceError(c, services.ErrNotFound)
		return
	}
	if len(req.Variants) == 0 && req.BasePrice <= 0 {
		utils.RespondError(c, http.StatusBadRequest, errors.New("base_price required for items without variants"))
		return
	}

	var periods []models.FoodOfferingPeriod
	if len(req.OfferingPeriodIDs) > 0 {
		err = fc.DB.Where("id IN ? AND restaurant_id = ? AND is_deleted = ?",
			req.OfferingPeriodIDs, restaurantID, false).Find(&periods).Error
		if err != nil || len(periods) != len(req.OfferingPeriodIDs) {
			respondServiceError(c, services.ErrNotFound)
			return
		}
	}

	item := models.FoodItem{
		FoodCategoryID: req.FoodCategoryID,
		Name:           req.Name,
		Description:    req.Description,
		BasePrice:      req.BasePrice,
		HasVariants:    len(req.Variants) > 0,
		IsAvailable:    true,
	}
	err = fc.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&item).Error; err != nil {
			return err
		}
		for _, v := range req.Variants {
			variant := models.FoodItemVariant{
				FoodItemID:  item.ID,
				Name:        v.Name,
				Price:       v.Price,
				Description: v.Description,
			}
			if err := tx.Create(&variant).Error; err != nil {
				return err
			}
			item.Variants = append(item.Variants, variant)
		}
		if len(periods) > 0 {
			if err := tx.Model(&item).Association("OfferingPeriods").Append(periods); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.InfoLogger.Printf("Menu item created: %s (restaurant %d)", item.Name, restaurantID)
	utils.RespondJSON(c, http.StatusCreated, "Menu item created", item)
}

// Menu lists the items orderable at an optional slot time.
func (fc *FoodController) Menu(c *gin.Context) {
	restaurantID, ok := restaurantParam(c)
	if !ok {
		return
	}
	items, err := fc.Food.Menu(restaurantID, c.Query("start_time"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Menu", items)
}

// UpsertOrder replaces the food order lines of an active booking.
func (fc *FoodController) UpsertOrder(c *gin.Context) {
	restaurantID, ok := restaurantParam(c)
	if !ok {
		return
	}
	if !requireRestaurantAccess(c, fc.DB, restaurantID) {
		return
	}
	bookingID, ok := bookingParam(c)
	if !ok {
		return
	}

	var req struct {
		Items []services.OrderItemInput `json:"items" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	order, err := fc.Food.UpsertOrder(restaurantID, bookingID, req.Items)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order saved", order)
}

func (fc *FoodController) GetOrder(c *gin.Context) {
	restaurantID, ok := restaurantParam(c)
	if !ok {
		return
	}
	if !requireRestaurantAccess(c, fc.DB, restaurantID) {
		return
	}
	bookingID, ok := bookingParam(c)
	if !ok {
		return
	}

	order, err := fc.Food.OrderForBooking(restaurantID, bookingID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order", order)
}

func (fc *FoodController) FinalizeOrder(c *gin.Context) {
	restaurantID, ok := restaurantParam(c)
	if !ok {
		return
	}
	if !requireRestaurantAccess(c, fc.DB, restaurantID) {
		return
	}
	bookingID, ok := bookingParam(c)
	if !ok {
		return
	}

	order, err := fc.Food.FinalizeOrder(restaurantID, bookingID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.InfoLogger.Printf("Order %d finalized (booking %d, total %.2f)", order.ID, bookingID, order.TotalAmount)
	realtime.BroadcastDashboardUpdate(restaurantID, gin.H{
		"booking_id":   bookingID,
		"order_id":     order.ID,
		"total_amount": order.TotalAmount,
	})
	utils.RespondJSON(c, http.StatusOK, "Order finalized", order)
}
