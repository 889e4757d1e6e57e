package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/dineflow/reserva-backend/realtime"
	"github.com/dineflow/reserva-backend/services"
	"github.com/dineflow/reserva-backend/utils"
)

type TableController struct {
	DB        *gorm.DB
	Inventory *services.InventoryService
}

func NewTableController(db *gorm.DB, inventory *services.InventoryService) *TableController {
	return &TableController{DB: db, Inventory: inventory}
}

func idParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		utils.RespondError(c, http.StatusBadRequest, errors.New("invalid "+name))
		return 0, false
	}
	return uint(id), true
}

func (tc *TableController) CreateTableType(c *gin.Context) {
	restaurantID, ok := restaurantParam(c)
	if !ok {
		return
	}
	if !requireRestaurantAccess(c, tc.DB, restaurantID) {
		return
	}

	var req services.TableTypeInput
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	tt, err := tc.Inventory.CreateTableType(restaurantID, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.InfoLogger.Printf("Table type created: %s (restaurant %d)", tt.Name, restaurantID)
	utils.RespondJSON(c, http.StatusCreated, "Table type created", tt)
}

func (tc *TableController) ListTableTypes(c *gin.Context) {
	restaurantID, ok := restaurantParam(c)
	if !ok {
		return
	}
	types, err := tc.Inventory.ListTableTypes(restaurantID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Table types", types)
}

func (tc *TableController) UpdateTableType(c *gin.Context) {
	restaurantID, ok := restaurantParam(c)
	if !ok {
		return
	}
	if !requireRestaurantAccess(c, tc.DB, restaurantID) {
		return
	}
	typeID, ok := idParam(c, "type_id")
	if !ok {
		return
	}

	var req services.TableTypeInput
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	tt, err := tc.Inventory.UpdateTableType(restaurantID, typeID, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Table type updated", tt)
}

func (tc *TableController) DeleteTableType(c *gin.Context) {
	restaurantID, ok := restaurantParam(c)
	if !ok {
		return
	}
	if !requireRestaurantAccess(c, tc.DB, restaurantID) {
		return
	}
	typeID, ok := idParam(c, "type_id")
	if !ok {
		return
	}

	if err := tc.Inventory.DeleteTableType(restaurantID, typeID); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.InfoLogger.Printf("Table type %d deleted (restaurant %d)", typeID, restaurantID)
	utils.RespondJSON(c, http.StatusOK, "Table type deleted", nil)
}

func (tc *TableController) CreateTable(c *gin.Context) {
	restaurantID, ok := restaurantParam(c)
	if !ok {
		return
	}
	if !requireRestaurantAccess(c, tc.DB, restaurantID) {
		return
	}
	typeID, ok := idParam(c, "type_id")
	if !ok {
		return
	}

	var req services.TableInstanceInput
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	ti, err := tc.Inventory.CreateTableInstance(restaurantID, typeID, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	realtime.BroadcastTableUpdate(restaurantID, *ti)
	utils.InfoLogger.Printf("Table created: %s (restaurant %d, type %d)", ti.TableNumber, restaurantID, typeID)
	utils.RespondJSON(c, http.StatusCreated, "Table created", ti)
}

func (tc *TableController) UpdateTable(c *gin.Context) {
	restaurantID, ok := restaurantParam(c)
	if !ok {
		return
	}
	if !requireRestaurantAccess(c, tc.DB, restaurantID) {
		return
	}
	tableID, ok := idParam(c, "table_id")
	if !ok {
		return
	}

	var req services.TableInstanceInput
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	ti, err := tc.Inventory.UpdateTableInstance(restaurantID, tableID, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	realtime.BroadcastTableUpdate(restaurantID, *ti)
	utils.RespondJSON(c, http.StatusOK, "Table updated", ti)
}

// SetTableAvailability is the maintenance toggle: an unavailable table keeps
// its current bookings but stops being offered to new ones.
func (tc *TableController) SetTableAvailability(c *gin.Context) {
	restaurantID, ok := restaurantParam(c)
	if !ok {
		return
	}
	if !requireRestaurantAccess(c, tc.DB, restaurantID) {
		return
	}
	tableID, ok := idParam(c, "table_id")
	if !ok {
		return
	}

	var req struct {
		IsAvailable *bool `json:"is_available" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	if err := tc.Inventory.SetInstanceAvailability(restaurantID, tableID, *req.IsAvailable); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.InfoLogger.Printf("Table %d availability set to %t (restaurant %d)", tableID, *req.IsAvailable, restaurantID)
	utils.RespondJSON(c, http.StatusOK, "Table availability updated", nil)
}

func (tc *TableController) DeleteTable(c *gin.Context) {
	restaurantID, ok := restaurantParam(c)
	if !ok {
		return
	}
	if !requireRestaurantAccess(c, tc.DB, restaurantID) {
		return
	}
	tableID, ok := idParam(c, "table_id")
	if !ok {
		return
	}

	if err := tc.Inventory.DeleteTableInstance(restaurantID, tableID); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.InfoLogger.Printf("Table %d deleted (restaurant %d)", tableID, restaurantID)
	utils.RespondJSON(c, http.StatusOK, "Table deleted", nil)
}
