package router

import (
	"gorm.io/gorm"

	"github.com/gin-gonic/gin"

	"github.com/dineflow/reserva-backend/controllers"
	"github.com/dineflow/reserva-backend/middlewares"
	"github.com/dineflow/reserva-backend/models"
	"github.com/dineflow/reserva-backend/services"
)

// Deps carries the shared services the controllers need. Everything is
// constructed once in main and threaded through here.
type Deps struct {
	DB           *gorm.DB
	Scheduler    services.JobScheduler
	Cache        *services.AvailabilityCache
	Mailer       *services.Mailer
	Bookings     *services.BookingService
	Lifecycle    *services.LifecycleService
	Availability *services.AvailabilityService
	Rollup       *services.RollupService
	Inventory    *services.InventoryService
	Food         *services.FoodService
}

func SetupRouter(deps Deps) *gin.Engine {
	r := gin.Default()

	r.Use(middlewares.CORSMiddlewares())
	r.Use(middlewares.LoggerMiddleware())
	r.Use(middlewares.NewRateLimiter(120, 60).RateLimit())

	userCtrl := controllers.NewUserController(deps.DB, deps.Mailer)
	adminCtrl := controllers.NewAdminController(deps.DB, deps.Mailer)
	restaurantCtrl := controllers.NewRestaurantController(deps.DB)
	tableCtrl := controllers.NewTableController(deps.DB, deps.Inventory)
	bookingCtrl := controllers.NewBookingController(deps.DB, deps.Bookings, deps.Lifecycle, deps.Mailer)
	availabilityCtrl := controllers.NewAvailabilityController(deps.Availability)
	dashboardCtrl := controllers.NewDashboardController(deps.DB, deps.Rollup)
	foodCtrl := controllers.NewFoodController(deps.DB, deps.Food)
	stockCtrl := controllers.NewStockController(deps.DB, deps.Food)
	realtimeCtrl := controllers.NewRealtimeController(deps.DB)

	strict := middlewares.NewStrictRateLimiter()

	// Public endpoints.
	public := r.Group("/api/v1")
	{
		public.POST("/admins/register", strict, adminCtrl.Register)
		public.POST("/admins/login", strict, adminCtrl.Login)
		public.POST("/admins/verify-email", strict, adminCtrl.VerifyEmail)
		public.POST("/users/register", strict, userCtrl.Register)
		public.POST("/users/login", strict, userCtrl.Login)
		public.POST("/users/verify-email", strict, userCtrl.VerifyEmail)

		public.GET("/restaurants/:restaurant_id", restaurantCtrl.Get)
		public.GET("/restaurants/:restaurant_id/availability", availabilityCtrl.ForDate)
		public.GET("/restaurants/:restaurant_id/menu", foodCtrl.Menu)
		public.GET("/restaurants/:restaurant_id/table-types", tableCtrl.ListTableTypes)
	}

	// Authenticated endpoints.
	auth := r.Group("/api/v1", middlewares.AuthMiddleware())
	{
		auth.GET("/me", userCtrl.Profile)
		auth.GET("/me/bookings", bookingCtrl.MyBookings)

		// Diners book and cancel their own reservations.
		diner := auth.Group("", middlewares.RequireRole(models.RoleUser))
		{
			diner.POST("/restaurants/:restaurant_id/bookings", bookingCtrl.CreateOnline)
		}
		auth.DELETE("/restaurants/:restaurant_id/bookings/:booking_id", bookingCtrl.Cancel)

		// Staff run the floor.
		staff := auth.Group("", middlewares.RequireRole(models.RoleStaff))
		{
			staff.POST("/restaurants/:restaurant_id/walkins", bookingCtrl.CreateWalkin)
			staff.POST("/restaurants/:restaurant_id/checkin", strict, bookingCtrl.CheckIn)
			staff.POST("/restaurants/:restaurant_id/bookings/:booking_id/complete", bookingCtrl.Complete)
			staff.POST("/restaurants/:restaurant_id/bookings/:booking_id/no-show", bookingCtrl.MarkNoShow)
			staff.GET("/restaurants/:restaurant_id/bookings", bookingCtrl.ListForDate)
			staff.GET("/restaurants/:restaurant_id/table-status", dashboardCtrl.TableStatus)

			staff.PUT("/restaurants/:restaurant_id/bookings/:booking_id/order", foodCtrl.UpsertOrder)
			staff.GET("/restaurants/:restaurant_id/bookings/:booking_id/order", foodCtrl.GetOrder)
			staff.POST("/restaurants/:restaurant_id/bookings/:booking_id/order/finalize", foodCtrl.FinalizeOrder)
			staff.GET("/restaurants/:restaurant_id/stock", stockCtrl.ListStock)
		}

		// Admin-only management surface.
		admin := auth.Group("", middlewares.RequireRole())
		{
			admin.POST("/restaurants", restaurantCtrl.Create)
			admin.PATCH("/restaurants/:restaurant_id", restaurantCtrl.Update)
			admin.PUT("/restaurants/:restaurant_id/policy", restaurantCtrl.PutPolicy)
			admin.PUT("/restaurants/:restaurant_id/operating-hours", restaurantCtrl.PutOperatingHours)
			admin.POST("/staff", adminCtrl.CreateStaff)

			admin.POST("/restaurants/:restaurant_id/table-types", tableCtrl.CreateTableType)
			admin.PATCH("/restaurants/:restaurant_id/table-types/:type_id", tableCtrl.UpdateTableType)
			admin.DELETE("/restaurants/:restaurant_id/table-types/:type_id", tableCtrl.DeleteTableType)
			admin.POST("/restaurants/:restaurant_id/table-types/:type_id/tables", tableCtrl.CreateTable)
			admin.PATCH("/restaurants/:restaurant_id/tables/:table_id", tableCtrl.UpdateTable)
			admin.PUT("/restaurants/:restaurant_id/tables/:table_id/availability", tableCtrl.SetTableAvailability)
			admin.DELETE("/restaurants/:restaurant_id/tables/:table_id", tableCtrl.DeleteTable)

			admin.GET("/restaurants/:restaurant_id/dashboard", dashboardCtrl.Stats)

			admin.POST("/restaurants/:restaurant_id/food-categories", foodCtrl.CreateCategory)
			admin.POST("/restaurants/:restaurant_id/offering-periods", foodCtrl.CreateOfferingPeriod)
			admin.POST("/restaurants/:restaurant_id/food-items", foodCtrl.CreateItem)
			admin.PUT("/restaurants/:restaurant_id/food-items/:item_id/stock", stockCtrl.SetStock)
		}
	}

	// Realtime dashboard feed, authenticated via query token.
	r.GET("/ws/events", middlewares.WebSocketAuthMiddleware(), realtimeCtrl.Events)

	return r
}
