package Controllers_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/dineflow/reserva-backend/models"
	"github.com/dineflow/reserva-backend/utils"
)

// setupTestDB opens a named shared in-memory SQLite database with the full
// schema migrated. Each test uses its own name so state never leaks between
// tests.
func setupTestDB(t *testing.T, name string) *gorm.DB {
	t.Helper()
	utils.InitLogger()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=10000&_txlock=immediate", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}
	err = db.AutoMigrate(
		&models.Admin{},
		&models.User{},
		&models.Restaurant{},
		&models.RestaurantPolicy{},
		&models.RestaurantOperatingHours{},
		&models.TableType{},
		&models.TableInstance{},
		&models.Booking{},
		&models.BookingTable{},
		&models.DailyStats{},
		&models.FoodCategory{},
		&models.FoodOfferingPeriod{},
		&models.FoodItem{},
		&models.FoodItemVariant{},
		&models.FoodItemStock{},
		&models.FoodOrder{},
		&models.FoodOrderItem{},
	)
	if err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}
	return db
}

// restaurantFixture is the seeded world the controller tests run against:
// one restaurant open daily 09:00-22:00 on 90-minute slots, with its owner,
// one staff account and one diner account.
type restaurantFixture struct {
	Admin      models.Admin
	Restaurant models.Restaurant
	TableType  models.TableType
	Tables     []models.TableInstance
	Staff      models.User
	Diner      models.User
}

func seedRestaurantFixture(t *testing.T, db *gorm.DB, capacities ...int) restaurantFixture {
	t.Helper()

	admin := models.Admin{FirstName: "Priya", Email: "owner@example.com", Password: "x"}
	if err := db.Create(&admin).Error; err != nil {
		t.Fatalf("seeding admin: %v", err)
	}

	restaurant := models.Restaurant{
		Name:     "Harbour House",
		Phone:    "000",
		Address:  "2 Pier Road",
		Timezone: "UTC",
		AdminID:  admin.ID,
	}
	if err := db.Create(&restaurant).Error; err != nil {
		t.Fatalf("seeding restaurant: %v", err)
	}

	policy := models.RestaurantPolicy{
		RestaurantID:        restaurant.ID,
		ReservationDuration: 90,
		MaxPartySize:        20,
		MaxAdvanceDays:      30,
		NoShowGraceMinutes:  30,
	}
	if err := db.Create(&policy).Error; err != nil {
		t.Fatalf("seeding policy: %v", err)
	}

	for day := 0; day < 7; day++ {
		hours := models.RestaurantOperatingHours{
			RestaurantID: restaurant.ID,
			DayOfWeek:    day,
			OpeningTime:  "09:00",
			ClosingTime:  "22:00",
		}
		if err := db.Create(&hours).Error; err != nil {
			t.Fatalf("seeding hours: %v", err)
		}
	}

	tableType := models.TableType{
		RestaurantID:    restaurant.ID,
		Name:            "Standard",
		MinimumCapacity: 1,
		MaximumCapacity: 12,
	}
	if err := db.Create(&tableType).Error; err != nil {
		t.Fatalf("seeding table type: %v", err)
	}

	var tables []models.TableInstance
	for i, capacity := range capacities {
		table := models.TableInstance{
			TableTypeID: tableType.ID,
			TableNumber: fmt.Sprintf("T%d", i+1),
			Capacity:    capacity,
			IsAvailable: true,
		}
		if err := db.Create(&table).Error; err != nil {
			t.Fatalf("seeding table: %v", err)
		}
		tables = append(tables, table)
	}

	staff := models.User{
		RestaurantID: restaurant.ID,
		FirstName:    "Sam",
		Email:        "staff@example.com",
		Password:     "x",
		Role:         models.RoleStaff,
	}
	if err := db.Create(&staff).Error; err != nil {
		t.Fatalf("seeding staff: %v", err)
	}

	diner := models.User{
		RestaurantID: restaurant.ID,
		FirstName:    "Dana",
		Email:        "diner@example.com",
		Password:     "x",
		Role:         models.RoleUser,
	}
	if err := db.Create(&diner).Error; err != nil {
		t.Fatalf("seeding diner: %v", err)
	}

	return restaurantFixture{
		Admin:      admin,
		Restaurant: restaurant,
		TableType:  tableType,
		Tables:     tables,
		Staff:      staff,
		Diner:      diner,
	}
}

// authAs injects the claims the JWT middleware would have set.
func authAs(userID uint, role models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("userID", userID)
		c.Set("role", role)
		c.Next()
	}
}

func performRequest(router *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var response map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(t, err)
	return response
}

func testTomorrow() string {
	return time.Now().UTC().AddDate(0, 0, 1).Format("2006-01-02")
}
