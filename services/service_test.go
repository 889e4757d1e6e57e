package services

import (
	"fmt"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/dineflow/reserva-backend/models"
	"github.com/dineflow/reserva-backend/utils"
)

// newTestDB opens a named shared in-memory SQLite database. _txlock=immediate
// makes every transaction take the write lock at BEGIN, so the allocator's
// read-then-insert sequence is serialized the same way row locks serialize it
// on MySQL.
func newTestDB(t *testing.T, name string) *gorm.DB {
	return openTestDB(t, fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=10000&_txlock=immediate", name))
}

// newDeferredTxDB opens the same database without _txlock=immediate.
// Transactions then start deferred and concurrent allocators read overlapping
// snapshots before either writes, which is the interleaving the live-claim
// unique index has to reject.
func newDeferredTxDB(t *testing.T, name string) *gorm.DB {
	return openTestDB(t, fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=10000", name))
}

func openTestDB(t *testing.T, dsn string) *gorm.DB {
	t.Helper()
	utils.InitLogger()

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("opening test database: %v", err)
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
		t.Fatalf("migrating test schema: %v", err)
	}
	return db
}

type fixture struct {
	Restaurant models.Restaurant
	Policy     models.RestaurantPolicy
	TableType  models.TableType
	Tables     []models.TableInstance
}

// seedRestaurant creates a restaurant open every day 09:00-22:00 with a
// 90-minute slot duration and the given table capacities in one type.
func seedRestaurant(t *testing.T, db *gorm.DB, capacities ...int) fixture {
	t.Helper()

	admin := models.Admin{FirstName: "Asha", Email: "owner@example.com", Password: "x"}
	if err := db.Create(&admin).Error; err != nil {
		t.Fatalf("seeding admin: %v", err)
	}

	restaurant := models.Restaurant{
		Name:     "Test Kitchen",
		Phone:    "000",
		Address:  "1 Test Street",
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

	return fixture{Restaurant: restaurant, Policy: policy, TableType: tableType, Tables: tables}
}

// tomorrow returns a date string guaranteed to pass the future-slot check.
func tomorrow() string {
	return time.Now().UTC().AddDate(0, 0, 1).Format("2006-01-02")
}

func mustParseDate(t *testing.T, date string) time.Time {
	t.Helper()
	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		t.Fatalf("parsing %q: %v", date, err)
	}
	return day
}
