package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/dineflow/reserva-backend/models"
	"github.com/dineflow/reserva-backend/models/scopes"
	"github.com/dineflow/reserva-backend/services"
	"github.com/dineflow/reserva-backend/utils"
)

type RestaurantController struct {
	DB *gorm.DB
}

func NewRestaurantController(db *gorm.DB) *RestaurantController {
	return &RestaurantController{DB: db}
}

func restaurantParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("restaurant_id"), 10, 32)
	if err != nil || id == 0 {
		utils.RespondError(c, http.StatusBadRequest, errors.New("invalid restaurant id"))
		return 0, false
	}
	return uint(id), true
}

func (rc *RestaurantController) Create(c *gin.Context) {
	var req struct {
		Name        string `json:"name" binding:"required"`
		Phone       string `json:"phone" binding:"required"`
		Address     string `json:"address" binding:"required"`
		Timezone    string `json:"timezone"`
		Description string `json:"description"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	if req.Timezone != "" {
		if _, err := time.LoadLocation(req.Timezone); err != nil {
			utils.RespondError(c, http.StatusBadRequest, errors.New("unknown timezone"))
			return
		}
	}

	restaurant := models.Restaurant{
		Name:        req.Name,
		Phone:       req.Phone,
		Address:     req.Address,
		Description: req.Description,
		AdminID:     c.GetUint("userID"),
	}
	if req.Timezone != "" {
		restaurant.Timezone = req.Timezone
	}
	if err := rc.DB.Create(&restaurant).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.InfoLogger.Printf("Restaurant created: %s (id=%d)", restaurant.Name, restaurant.ID)
	utils.RespondJSON(c, http.StatusCreated, "Restaurant created", restaurant)
}

func (rc *RestaurantController) Get(c *gin.Context) {
	restaurantID, ok := restaurantParam(c)
	if !ok {
		return
	}
	var restaurant models.Restaurant
	err := rc.DB.Scopes(scopes.Live, scopes.WithID(restaurantID)).
		Preload("Policy").
		Preload("OperatingHours").
		First(&restaurant).Error
	if err != nil {
		respondServiceError(c, services.ErrNotFound)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Restaurant", restaurant)
}

func (rc *RestaurantController) Update(c *gin.Context) {
	restaurantID, ok := restaurantParam(c)
	if !ok {
		return
	}
	if !requireRestaurantAccess(c, rc.DB, restaurantID) {
		return
	}

	var req struct {
		Name        string `json:"name"`
		Phone       string `json:"phone"`
		Address     string `json:"address"`
		Timezone    string `json:"timezone"`
		Description string `json:"description"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	updates := map[string]interface{}{}
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.Phone != "" {
		updates["phone"] = req.Phone
	}
	if req.Address != "" {
		updates["address"] = req.Address
	}
	if req.Description != "" {
		updates["description"] = req.Description
	}
	if req.Timezone != "" {
		if _, err := time.LoadLocation(req.Timezone); err != nil {
			utils.RespondError(c, http.StatusBadRequest, errors.New("unknown timezone"))
			return
		}
		updates["timezone"] = req.Timezone
	}
	if len(updates) == 0 {
		utils.RespondError(c, http.StatusBadRequest, errors.New("nothing to update"))
		return
	}

	err := rc.DB.Model(&models.Restaurant{}).
		Scopes(scopes.WithID(restaurantID)).
		Updates(updates).Error
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Restaurant updated", nil)
}

// PutPolicy creates or replaces the restaurant's booking policy.
func (rc *RestaurantController) PutPolicy(c *gin.Context) {
	restaurantID, ok := restaurantParam(c)
	if !ok {
		return
	}
	if !requireRestaurantAccess(c, rc.DB, restaurantID) {
		return
	}

	var req struct {
		ReservationDuration int `json:"reservation_duration" binding:"required,min=1"`
		MaxPartySize        int `json:"max_party_size" binding:"required,min=1"`
		MaxAdvanceDays      int `json:"max_advance_days" binding:"required,min=1"`
		NoShowGraceMinutes  int `json:"no_show_grace_minutes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	if req.NoShowGraceMinutes <= 0 {
		req.NoShowGraceMinutes = 30
	}

	var policy models.RestaurantPolicy
	err := rc.DB.Where("restaurant_id = ?", restaurantID).First(&policy).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		policy = models.RestaurantPolicy{
			RestaurantID:        restaurantID,
			ReservationDuration: req.ReservationDuration,
			MaxPartySize:        req.MaxPartySize,
			MaxAdvanceDays:      req.MaxAdvanceDays,
			NoShowGraceMinutes:  req.NoShowGraceMinutes,
		}
		if err := rc.DB.Create(&policy).Error; err != nil {
			utils.RespondError(c, http.StatusInternalServerError, err)
			return
		}
	case err != nil:
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	default:
		err = rc.DB.Model(&policy).Updates(map[string]interface{}{
			"reservation_duration":  req.ReservationDuration,
			"max_party_size":        req.MaxPartySize,
			"max_advance_days":      req.MaxAdvanceDays,
			"no_show_grace_minutes": req.NoShowGraceMinutes,
		}).Error
		if err != nil {
			utils.RespondError(c, http.StatusInternalServerError, err)
			return
		}
	}
	utils.RespondJSON(c, http.StatusOK, "Policy saved", policy)
}

// PutOperatingHours replaces the restaurant's full weekly schedule. Days not
// listed become closed days; a replaced schedule takes effect for future
// availability queries immediately.
func (rc *RestaurantController) PutOperatingHours(c *gin.Context) {
	restaurantID, ok := restaurantParam(c)
	if !ok {
		return
	}
	if !requireRestaurantAccess(c, rc.DB, restaurantID) {
		return
	}

	var req struct {
		Hours []struct {
			DayOfWeek   int    `json:"day_of_week"`
			OpeningTime string `json:"opening_time" binding:"required"`
			ClosingTime string `json:"closing_time" binding:"required"`
		} `json:"hours" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	seen := map[int]bool{}
	rows := make([]models.RestaurantOperatingHours, 0, len(req.Hours))
	for _, h := range req.Hours {
		if h.DayOfWeek < 0 || h.DayOfWeek > 6 {
			utils.RespondError(c, http.StatusBadRequest, errors.New("day_of_week must be 0 (Monday) through 6 (Sunday)"))
			return
		}
		if seen[h.DayOfWeek] {
			utils.RespondError(c, http.StatusBadRequest, errors.New("duplicate day_of_week"))
			return
		}
		seen[h.DayOfWeek] = true

		openMin, err := services.ParseClock(h.OpeningTime)
		if err != nil {
			respondServiceError(c, err)
			return
		}
		closeMin, err := services.ParseClock(h.ClosingTime)
		if err != nil {
			respondServiceError(c, err)
			return
		}
		if openMin >= closeMin {
			utils.RespondError(c, http.StatusBadRequest, errors.New("opening_time must be before closing_time"))
			return
		}
		rows = append(rows, models.RestaurantOperatingHours{
			RestaurantID: restaurantID,
			DayOfWeek:    h.DayOfWeek,
			OpeningTime:  h.OpeningTime,
			ClosingTime:  h.ClosingTime,
		})
	}

	err := rc.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("restaurant_id = ?", restaurantID).
			Delete(&models.RestaurantOperatingHours{}).Error; err != nil {
			return err
		}
		for i := range rows {
			if err := tx.Create(&rows[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Operating hours saved", rows)
}
