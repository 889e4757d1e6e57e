package main

import (
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/dineflow/reserva-backend/config"
	"github.com/dineflow/reserva-backend/database"
	"github.com/dineflow/reserva-backend/models"
	"github.com/dineflow/reserva-backend/router"
	"github.com/dineflow/reserva-backend/services"
	"github.com/dineflow/reserva-backend/utils"
)

func init() {
	utils.InitLogger()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("loading configuration: %v", err)
	}
	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}

	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatalf("connecting to database: %v", err)
	}

	if err := autoMigrate(db); err != nil {
		log.Fatalf("migrating schema: %v", err)
	}
	if err := database.EnsureIndexes(db); err != nil {
		log.Fatalf("creating indexes: %v", err)
	}

	scheduler, err := services.NewCronScheduler()
	if err != nil {
		log.Fatalf("creating scheduler: %v", err)
	}

	cache := services.NewAvailabilityCache(cfg.RedisAddr)
	mailer := services.NewMailer(cfg)

	availability := services.NewAvailabilityService(db, cache)
	bookings := services.NewBookingService(db, scheduler, cache)
	lifecycle := services.NewLifecycleService(db, scheduler, cache)
	rollup := services.NewRollupService(db)
	inventory := services.NewInventoryService(db)
	food := services.NewFoodService(db)

	registerJobs(scheduler, lifecycle, rollup, availability, food)
	scheduler.Start()
	defer scheduler.Stop()

	r := router.SetupRouter(router.Deps{
		DB:           db,
		Scheduler:    scheduler,
		Cache:        cache,
		Mailer:       mailer,
		Bookings:     bookings,
		Lifecycle:    lifecycle,
		Availability: availability,
		Rollup:       rollup,
		Inventory:    inventory,
		Food:         food,
	})

	utils.InfoLogger.Printf("listening on :%s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}

func autoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
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
}

// registerJobs wires the recurring background work. The sweep backstops
// per-booking auto-complete jobs lost to a restart; the nightly jobs
// materialize rollups and warm the availability cache.
func registerJobs(s *services.CronScheduler, lifecycle *services.LifecycleService, rollup *services.RollupService, availability *services.AvailabilityService, food *services.FoodService) {
	if err := s.Every("sweep-expired-bookings", 5*time.Minute, lifecycle.SweepExpired); err != nil {
		log.Fatalf("registering sweep job: %v", err)
	}
	if err := s.Daily("materialize-daily-stats", 0, 15, rollup.MaterializeYesterday); err != nil {
		log.Fatalf("registering rollup job: %v", err)
	}
	if err := s.Daily("warm-availability-cache", 0, 30, availability.RefreshCache); err != nil {
		log.Fatalf("registering availability job: %v", err)
	}
	if err := s.Daily("low-stock-report", 6, 0, food.LowStockReport); err != nil {
		log.Fatalf("registering stock job: %v", err)
	}
}
