package Controllers_test

import (
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

func setupDashboardRouter(db *gorm.DB, userID uint, role models.Role) *gin.Engine {
	router := gin.New()
	availabilityCtrl := controllers.NewAvailabilityController(services.NewAvailabilityService(db, nil))
	dashboardCtrl := controllers.NewDashboardController(db, services.NewRollupService(db))

	router.GET("/restaurants/:restaurant_id/availability", availabilityCtrl.ForDate)

	authed := router.Group("/", authAs(userID, role))
	authed.GET("/restaurants/:restaurant_id/dashboard", dashboardCtrl.Stats)
	authed.GET("/restaurants/:restaurant_id/table-status", dashboardCtrl.TableStatus)
	return router
}

func getURL(t *testing.T, router *gin.Engine, url string) *httptest.ResponseRecorder {
	t.Helper()
	req, err := http.NewRequest("GET", url, nil)
	assert.NoError(t, err)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAvailabilityEndpoint(t *testing.T) {
	db := setupTestDB(t, "ctrl_availability")
	fx := seedRestaurantFixture(t, db, 2, 4)
	router := setupDashboardRouter(db, fx.Staff.ID, models.RoleStaff)
	date := testTomorrow()

	bookings := services.NewBookingService(db, nil, nil)
	_, err := bookings.Create(services.BookingRequest{
		RestaurantID: fx.Restaurant.ID,
		Date:         date,
		StartTime:    "12:00",
		GuestCount:   2,
		Source:       models.BookingSourceOnline,
		UserID:       &fx.Diner.ID,
	})
	assert.NoError(t, err)

	w := getURL(t, router, fmt.Sprintf("/restaurants/%d/availability?date=%s", fx.Restaurant.ID, date))
	assert.Equal(t, http.StatusOK, w.Code)

	data := decodeResponse(t, w)["data"].(map[string]interface{})
	assert.Equal(t, false, data["closed"])
	slots := data["slots"].([]interface{})
	assert.Len(t, slots, 8)

	types := data["types"].([]interface{})
	assert.Len(t, types, 1)
	counts := types[0].(map[string]interface{})["count_info"].([]interface{})
	for _, raw := range counts {
		entry := raw.(map[string]interface{})
		if entry["slot"] == "12:00" {
			assert.Equal(t, float64(1), entry["available_count"])
		} else {
			assert.Equal(t, float64(2), entry["available_count"])
		}
	}

	// Missing date parameter is rejected.
	w = getURL(t, router, fmt.Sprintf("/restaurants/%d/availability", fx.Restaurant.ID))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDashboardStatsEndpoint(t *testing.T) {
	db := setupTestDB(t, "ctrl_dashboard_stats")
	fx := seedRestaurantFixture(t, db, 2, 4)
	router := setupDashboardRouter(db, fx.Staff.ID, models.RoleStaff)
	date := testTomorrow()

	bookings := services.NewBookingService(db, nil, nil)
	_, err := bookings.Create(services.BookingRequest{
		RestaurantID: fx.Restaurant.ID,
		Date:         date,
		StartTime:    "12:00",
		GuestCount:   2,
		Source:       models.BookingSourceOnline,
		UserID:       &fx.Diner.ID,
	})
	assert.NoError(t, err)

	url := fmt.Sprintf("/restaurants/%d/dashboard?start_date=%s&end_date=%s", fx.Restaurant.ID, date, date)
	w := getURL(t, router, url)
	assert.Equal(t, http.StatusOK, w.Code)

	data := decodeResponse(t, w)["data"].(map[string]interface{})
	assert.Equal(t, float64(1), data["total_reservations"])
	assert.Equal(t, float64(1), data["reserved_occupancy"])
	// 8 slots x 2 tables.
	assert.Equal(t, float64(16), data["maximum_occupancy"])
	assert.Equal(t, 6.25, data["occupancy_rate"])

	// Missing range parameters are rejected.
	w = getURL(t, router, fmt.Sprintf("/restaurants/%d/dashboard", fx.Restaurant.ID))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTableStatusEndpoint(t *testing.T) {
	db := setupTestDB(t, "ctrl_table_status")
	fx := seedRestaurantFixture(t, db, 2, 4)
	router := setupDashboardRouter(db, fx.Staff.ID, models.RoleStaff)
	date := testTomorrow()

	bookings := services.NewBookingService(db, nil, nil)
	result, err := bookings.Create(services.BookingRequest{
		RestaurantID: fx.Restaurant.ID,
		Date:         date,
		StartTime:    "12:00",
		GuestCount:   2,
		Source:       models.BookingSourceOnline,
		UserID:       &fx.Diner.ID,
	})
	assert.NoError(t, err)

	url := fmt.Sprintf("/restaurants/%d/table-status?date=%s&start_time=12:00", fx.Restaurant.ID, date)
	w := getURL(t, router, url)
	assert.Equal(t, http.StatusOK, w.Code)

	data := decodeResponse(t, w)["data"].([]interface{})
	assert.Len(t, data, 2)

	busy := 0
	for _, raw := range data {
		entry := raw.(map[string]interface{})
		if entry["booking_id"] != nil {
			busy++
			assert.Equal(t, float64(result.BookingID), entry["booking_id"])
			assert.Equal(t, "pending", entry["booking_status"])
		}
	}
	assert.Equal(t, 1, busy)

	// A different slot has no holders.
	url = fmt.Sprintf("/restaurants/%d/table-status?date=%s&start_time=13:30", fx.Restaurant.ID, date)
	w = getURL(t, router, url)
	assert.Equal(t, http.StatusOK, w.Code)
	for _, raw := range decodeResponse(t, w)["data"].([]interface{}) {
		entry := raw.(map[string]interface{})
		assert.Nil(t, entry["booking_id"])
	}
}
