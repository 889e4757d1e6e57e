package Controllers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"github.com/dineflow/reserva-backend/controllers"
	"github.com/dineflow/reserva-backend/models"
	"github.com/dineflow/reserva-backend/services"
)

func setupTableRouter(db *gorm.DB, adminID uint) *gin.Engine {
	router := gin.New()
	ctrl := controllers.NewTableController(db, services.NewInventoryService(db))

	router.GET("/restaurants/:restaurant_id/table-types", ctrl.ListTableTypes)

	admin := router.Group("/", authAs(adminID, models.RoleAdmin))
	admin.POST("/restaurants/:restaurant_id/table-types", ctrl.CreateTableType)
	admin.PATCH("/restaurants/:restaurant_id/table-types/:type_id", ctrl.UpdateTableType)
	admin.DELETE("/restaurants/:restaurant_id/table-types/:type_id", ctrl.DeleteTableType)
	admin.POST("/restaurants/:restaurant_id/table-types/:type_id/tables", ctrl.CreateTable)
	admin.PATCH("/restaurants/:restaurant_id/tables/:table_id", ctrl.UpdateTable)
	admin.PATCH("/restaurants/:restaurant_id/tables/:table_id/availability", ctrl.SetTableAvailability)
	admin.DELETE("/restaurants/:restaurant_id/tables/:table_id", ctrl.DeleteTable)
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, url string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reqBody *bytes.Buffer
	if payload != nil {
		body, err := json.Marshal(payload)
		assert.NoError(t, err)
		reqBody = bytes.NewBuffer(body)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}
	req, err := http.NewRequest(method, url, reqBody)
	assert.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCreateTableType(t *testing.T) {
	db := setupTestDB(t, "ctrl_table_type_create")
	fx := seedRestaurantFixture(t, db)
	router := setupTableRouter(db, fx.Admin.ID)
	url := fmt.Sprintf("/restaurants/%d/table-types", fx.Restaurant.ID)

	w := doJSON(t, router, "POST", url, gin.H{
		"name":             "Window",
		"minimum_capacity": 2,
		"maximum_capacity": 4,
		"shape":            "round",
	})
	assert.Equal(t, http.StatusCreated, w.Code)
	data := decodeResponse(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "Window", data["name"])

	// Inverted capacity range is rejected.
	w = doJSON(t, router, "POST", url, gin.H{
		"name":             "Broken",
		"minimum_capacity": 6,
		"maximum_capacity": 2,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateTable(t *testing.T) {
	db := setupTestDB(t, "ctrl_table_create")
	fx := seedRestaurantFixture(t, db)
	router := setupTableRouter(db, fx.Admin.ID)
	url := fmt.Sprintf("/restaurants/%d/table-types/%d/tables", fx.Restaurant.ID, fx.TableType.ID)

	w := doJSON(t, router, "POST", url, gin.H{
		"table_number": "A1",
		"capacity":     4,
	})
	assert.Equal(t, http.StatusCreated, w.Code)
	data := decodeResponse(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "A1", data["table_number"])

	// Same table number again conflicts.
	w = doJSON(t, router, "POST", url, gin.H{
		"table_number": "A1",
		"capacity":     4,
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	// Capacity outside the type's range is rejected.
	w = doJSON(t, router, "POST", url, gin.H{
		"table_number": "A2",
		"capacity":     40,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSetTableAvailability(t *testing.T) {
	db := setupTestDB(t, "ctrl_table_availability")
	fx := seedRestaurantFixture(t, db, 4)
	router := setupTableRouter(db, fx.Admin.ID)
	table := fx.Tables[0]

	url := fmt.Sprintf("/restaurants/%d/tables/%d/availability", fx.Restaurant.ID, table.ID)
	w := doJSON(t, router, "PATCH", url, gin.H{"is_available": false})
	assert.Equal(t, http.StatusOK, w.Code)

	var updated models.TableInstance
	assert.NoError(t, db.First(&updated, table.ID).Error)
	assert.False(t, updated.IsAvailable)
}

func TestDeleteTableHeldByBooking(t *testing.T) {
	db := setupTestDB(t, "ctrl_table_delete_held")
	fx := seedRestaurantFixture(t, db, 4)
	router := setupTableRouter(db, fx.Admin.ID)

	bookings := services.NewBookingService(db, nil, nil)
	_, err := bookings.Create(services.BookingRequest{
		RestaurantID: fx.Restaurant.ID,
		Date:         testTomorrow(),
		StartTime:    "12:00",
		GuestCount:   2,
		Source:       models.BookingSourceOnline,
		UserID:       &fx.Diner.ID,
	})
	assert.NoError(t, err)

	url := fmt.Sprintf("/restaurants/%d/tables/%d", fx.Restaurant.ID, fx.Tables[0].ID)
	w := doJSON(t, router, "DELETE", url, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	// Still live.
	var table models.TableInstance
	assert.NoError(t, db.First(&table, fx.Tables[0].ID).Error)
	assert.False(t, table.IsDeleted)
}

func TestDeleteTableType(t *testing.T) {
	db := setupTestDB(t, "ctrl_table_type_delete")
	fx := seedRestaurantFixture(t, db, 4)
	router := setupTableRouter(db, fx.Admin.ID)

	url := fmt.Sprintf("/restaurants/%d/table-types/%d", fx.Restaurant.ID, fx.TableType.ID)
	w := doJSON(t, router, "DELETE", url, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// The cascade soft-deletes the type's tables too.
	var table models.TableInstance
	assert.NoError(t, db.First(&table, fx.Tables[0].ID).Error)
	assert.True(t, table.IsDeleted)
}

func TestListTableTypesIsPublic(t *testing.T) {
	db := setupTestDB(t, "ctrl_table_type_list")
	fx := seedRestaurantFixture(t, db, 2, 4)
	router := setupTableRouter(db, fx.Admin.ID)

	req, err := http.NewRequest("GET", fmt.Sprintf("/restaurants/%d/table-types", fx.Restaurant.ID), nil)
	assert.NoError(t, err)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeResponse(t, w)["data"].([]interface{})
	assert.Len(t, data, 1)
	tables := data[0].(map[string]interface{})["tables"].([]interface{})
	assert.Len(t, tables, 2)
}

func TestTableAccessRequiresOwnership(t *testing.T) {
	db := setupTestDB(t, "ctrl_table_ownership")
	fx := seedRestaurantFixture(t, db)

	intruder := models.Admin{FirstName: "Rival", Email: "rival@example.com", Password: "x"}
	assert.NoError(t, db.Create(&intruder).Error)

	router := setupTableRouter(db, intruder.ID)
	w := doJSON(t, router, "POST", fmt.Sprintf("/restaurants/%d/table-types", fx.Restaurant.ID), gin.H{
		"name":             "Window",
		"minimum_capacity": 2,
		"maximum_capacity": 4,
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
}
