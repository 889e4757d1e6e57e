package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/dineflow/reserva-backend/models"
	"github.com/dineflow/reserva-backend/services"
	"github.com/dineflow/reserva-backend/utils"
)

type StockController struct {
	DB   *gorm.DB
	Food *services.FoodService
}

func NewStockController(db *gorm.DB, food *services.FoodService) *StockController {
	return &StockController{DB: db, Food: food}
}

// SetStock creates or replaces the tracked stock for an item or variant.
func (sc *StockController) SetStock(c *gin.Context) {
	restaurantID, ok := restaurantParam(c)
	if !ok {
		return
	}
	if !requireRestaurantAccess(c, sc.DB, restaurantID) {
		return
	}
	itemID, ok := idParam(c, "item_id")
	if !ok {
		return
	}

	var req struct {
		VariantID    *uint `json:"variant_id"`
		CurrentStock int   `json:"current_stock" binding:"min=0"`
		Threshold    int   `json:"threshold" binding:"min=0"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	row, err := sc.Food.SetStock(restaurantID, itemID, req.VariantID, req.CurrentStock, req.Threshold)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Stock saved", row)
}

// ListStock returns every tracked stock row for the restaurant's menu, with
// a low_stock flag so the dashboard can highlight shortages.
func (sc *StockController) ListStock(c *gin.Context) {
	restaurantID, ok := restaurantParam(c)
	if !ok {
		return
	}
	if !requireRestaurantAccess(c, sc.DB, restaurantID) {
		return
	}

	type stockRow struct {
		models.FoodItemStock
		ItemName string `json:"item_name"`
		LowStock bool   `json:"low_stock"`
	}
	var rows []stockRow
	err := sc.DB.Model(&models.FoodItemStock{}).
		Select("food_item_stocks.*, food_items.name AS item_name, food_item_stocks.current_stock <= food_item_stocks.threshold AS low_stock").
		Joins("JOIN food_items ON food_items.id = food_item_stocks.food_item_id").
		Joins("JOIN food_categories ON food_categories.id = food_items.food_category_id").
		Where("food_categories.restaurant_id = ?", restaurantID).
		Scan(&rows).Error
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Stock", rows)
}
