package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/dineflow/reserva-backend/models"
	"github.com/dineflow/reserva-backend/models/scopes"
	"github.com/dineflow/reserva-backend/services"
	"github.com/dineflow/reserva-backend/utils"
)

type DashboardController struct {
	DB     *gorm.DB
	Rollup *services.RollupService
}

func NewDashboardController(db *gorm.DB, rollup *services.RollupService) *DashboardController {
	return &DashboardController{DB: db, Rollup: rollup}
}

// Stats returns occupancy and revenue aggregates for a date range.
func (dc *DashboardController) Stats(c *gin.Context) {
	restaurantID, ok := restaurantParam(c)
	if !ok {
		return
	}
	if !requireRestaurantAccess(c, dc.DB, restaurantID) {
		return
	}
	start := c.Query("start_date")
	end := c.Query("end_date")
	if start == "" || end == "" {
		utils.RespondError(c, http.StatusBadRequest, errors.New("start_date and end_date query parameters required"))
		return
	}

	stats, err := dc.Rollup.ForRange(restaurantID, start, end)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Dashboard stats", stats)
}

// TableStatus lists every live table with the booking currently holding it
// at the given date and slot, for the floor view.
func (dc *DashboardController) TableStatus(c *gin.Context) {
	restaurantID, ok := restaurantParam(c)
	if !ok {
		return
	}
	if !requireRestaurantAccess(c, dc.DB, restaurantID) {
		return
	}
	date := c.Query("date")
	slot := c.Query("start_time")
	if date == "" || slot == "" {
		utils.RespondError(c, http.StatusBadRequest, errors.New("date and start_time query parameters required"))
		return
	}

	var tables []models.TableInstance
	err := dc.DB.Scopes(scopes.Live).
		Joins("JOIN table_types ON table_types.id = table_instances.table_type_id").
		Where("table_types.restaurant_id = ? AND table_types.is_deleted = ?", restaurantID, false).
		Preload("TableType").
		Find(&tables).Error
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	type heldTable struct {
		TableInstanceID uint
		BookingID       uint
		Status          string
	}
	var held []heldTable
	err = dc.DB.Model(&models.BookingTable{}).
		Select("booking_tables.table_instance_id, bookings.id AS booking_id, bookings.status").
		Joins("JOIN bookings ON bookings.id = booking_tables.booking_id").
		Where("bookings.restaurant_id = ? AND bookings.date = ? AND bookings.start_time = ? AND bookings.status IN ?",
			restaurantID, date, slot, models.NonTerminalStatuses).
		Scan(&held).Error
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	holders := make(map[uint]heldTable, len(held))
	for _, h := range held {
		holders[h.TableInstanceID] = h
	}

	type tableStatus struct {
		Table         models.TableInstance `json:"table"`
		BookingID     *uint                `json:"booking_id,omitempty"`
		BookingStatus string               `json:"booking_status,omitempty"`
	}
	out := make([]tableStatus, 0, len(tables))
	for _, t := range tables {
		row := tableStatus{Table: t}
		if h, busy := holders[t.ID]; busy {
			id := h.BookingID
			row.BookingID = &id
			row.BookingStatus = h.Status
		}
		out = append(out, row)
	}
	utils.RespondJSON(c, http.StatusOK, "Table status", out)
}
