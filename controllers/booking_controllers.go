package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/dineflow/reserva-backend/middlewares"
	"github.com/dineflow/reserva-backend/models"
	"github.com/dineflow/reserva-backend/models/scopes"
	"github.com/dineflow/reserva-backend/realtime"
	"github.com/dineflow/reserva-backend/services"
	"github.com/dineflow/reserva-backend/utils"
)

type BookingController struct {
	DB        *gorm.DB
	Bookings  *services.BookingService
	Lifecycle *services.LifecycleService
	Mailer    *services.Mailer
}

func NewBookingController(db *gorm.DB, bookings *services.BookingService, lifecycle *services.LifecycleService, mailer *services.Mailer) *BookingController {
	return &BookingController{DB: db, Bookings: bookings, Lifecycle: lifecycle, Mailer: mailer}
}

type createBookingRequest struct {
	Date             string `json:"date" binding:"required"`
	StartTime        string `json:"start_time" binding:"required"`
	GuestCount       int    `json:"guest_count" binding:"required,min=1"`
	PreferredTypeIDs []uint `json:"preferred_type_ids"`
	CustomerName     string `json:"customer_name"`
	CustomerPhone    string `json:"customer_phone"`
}

// CreateOnline books a table for the authenticated diner.
func (bc *BookingController) CreateOnline(c *gin.Context) {
	restaurantID, ok := restaurantParam(c)
	if !ok {
		return
	}
	if !requireRestaurantAccess(c, bc.DB, restaurantID) {
		return
	}

	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	userID := c.GetUint("userID")
	result, err := bc.Bookings.Create(services.BookingRequest{
		RestaurantID:     restaurantID,
		Date:             req.Date,
		StartTime:        req.StartTime,
		GuestCount:       req.GuestCount,
		PreferredTypeIDs: req.PreferredTypeIDs,
		Source:           models.BookingSourceOnline,
		UserID:           &userID,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	bc.notifyCreated(restaurantID, userID, req, result)
	utils.InfoLogger.Printf("Booking %d created online (restaurant %d, %s %s, %d guests)",
		result.BookingID, restaurantID, req.Date, req.StartTime, req.GuestCount)
	utils.RespondJSON(c, http.StatusCreated, "Booking created", result)
}

// CreateWalkin books on behalf of a guest at the door. Staff only; the
// future-slot check is skipped so the current slot can still be claimed.
func (bc *BookingController) CreateWalkin(c *gin.Context) {
	restaurantID, ok := restaurantParam(c)
	if !ok {
		return
	}
	if !requireRestaurantAccess(c, bc.DB, restaurantID) {
		return
	}

	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	result, err := bc.Bookings.Create(services.BookingRequest{
		RestaurantID:     restaurantID,
		Date:             req.Date,
		StartTime:        req.StartTime,
		GuestCount:       req.GuestCount,
		PreferredTypeIDs: req.PreferredTypeIDs,
		Source:           models.BookingSourceWalkin,
		CustomerName:     req.CustomerName,
		CustomerPhone:    req.CustomerPhone,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	realtime.BroadcastBookingEvent(realtime.EventBookingCreated, restaurantID, result)
	utils.InfoLogger.Printf("Booking %d created walk-in (restaurant %d, %s %s, %d guests)",
		result.BookingID, restaurantID, req.Date, req.StartTime, req.GuestCount)
	utils.RespondJSON(c, http.StatusCreated, "Booking created", result)
}

// CheckIn transitions a pending booking to active using its check-in code.
func (bc *BookingController) CheckIn(c *gin.Context) {
	restaurantID, ok := restaurantParam(c)
	if !ok {
		return
	}
	if !requireRestaurantAccess(c, bc.DB, restaurantID) {
		return
	}

	var req struct {
		Code string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	booking, err := bc.Lifecycle.CheckIn(restaurantID, req.Code)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	realtime.BroadcastBookingEvent(realtime.EventBookingCheckedIn, restaurantID, booking)
	utils.InfoLogger.Printf("Booking %d checked in (restaurant %d)", booking.ID, restaurantID)
	utils.RespondJSON(c, http.StatusOK, "Checked in", booking)
}

// Cancel cancels a pending booking. Diners cancel their own bookings; staff
// cancel walk-ins by presenting the check-in code.
func (bc *BookingController) Cancel(c *gin.Context) {
	restaurantID, ok := restaurantParam(c)
	if !ok {
		return
	}
	if !requireRestaurantAccess(c, bc.DB, restaurantID) {
		return
	}
	bookingID, ok := bookingParam(c)
	if !ok {
		return
	}

	var req struct {
		Code string `json:"code"`
	}
	_ = c.ShouldBindJSON(&req)

	var userIDPtr *uint
	if role, _ := middlewares.CurrentRole(c); role == models.RoleUser {
		userID := c.GetUint("userID")
		userIDPtr = &userID
	}

	if err := bc.Lifecycle.Cancel(restaurantID, bookingID, userIDPtr, req.Code); err != nil {
		respondServiceError(c, err)
		return
	}

	realtime.BroadcastBookingEvent(realtime.EventBookingCancelled, restaurantID, gin.H{"booking_id": bookingID})
	bc.notifyCancelled(restaurantID, bookingID)
	utils.InfoLogger.Printf("Booking %d cancelled (restaurant %d)", bookingID, restaurantID)
	utils.RespondJSON(c, http.StatusOK, "Booking cancelled", nil)
}

// Complete closes an active booking from the staff dashboard.
func (bc *BookingController) Complete(c *gin.Context) {
	restaurantID, ok := restaurantParam(c)
	if !ok {
		return
	}
	if !requireRestaurantAccess(c, bc.DB, restaurantID) {
		return
	}
	bookingID, ok := bookingParam(c)
	if !ok {
		return
	}

	if err := bc.Lifecycle.Complete(restaurantID, bookingID); err != nil {
		respondServiceError(c, err)
		return
	}
	realtime.BroadcastBookingEvent(realtime.EventBookingCompleted, restaurantID, gin.H{"booking_id": bookingID})
	utils.RespondJSON(c, http.StatusOK, "Booking completed", nil)
}

// MarkNoShow flags an active booking whose party never arrived.
func (bc *BookingController) MarkNoShow(c *gin.Context) {
	restaurantID, ok := restaurantParam(c)
	if !ok {
		return
	}
	if !requireRestaurantAccess(c, bc.DB, restaurantID) {
		return
	}
	bookingID, ok := bookingParam(c)
	if !ok {
		return
	}

	if err := bc.Lifecycle.MarkNoShow(restaurantID, bookingID); err != nil {
		respondServiceError(c, err)
		return
	}
	realtime.BroadcastBookingEvent(realtime.EventBookingNoShow, restaurantID, gin.H{"booking_id": bookingID})
	utils.RespondJSON(c, http.StatusOK, "Booking marked as no-show", nil)
}

// ListForDate returns the bookings of a restaurant on one date, with their
// tables eagerly loaded.
func (bc *BookingController) ListForDate(c *gin.Context) {
	restaurantID, ok := restaurantParam(c)
	if !ok {
		return
	}
	if !requireRestaurantAccess(c, bc.DB, restaurantID) {
		return
	}
	date := c.Query("date")
	if date == "" {
		utils.RespondError(c, http.StatusBadRequest, errors.New("date query parameter required"))
		return
	}

	var bookings []models.Booking
	err := bc.DB.Scopes(scopes.ByRestaurant(restaurantID)).
		Where("date = ?", date).
		Preload("Tables").
		Preload("Tables.Table").
		Order("start_time, id").
		Find(&bookings).Error
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Bookings", bookings)
}

// MyBookings lists the authenticated diner's own bookings.
func (bc *BookingController) MyBookings(c *gin.Context) {
	userID := c.GetUint("userID")
	var bookings []models.Booking
	err := bc.DB.Where("user_id = ?", userID).
		Preload("Tables").
		Preload("Tables.Table").
		Order("date DESC, start_time DESC").
		Find(&bookings).Error
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Bookings", bookings)
}

func (bc *BookingController) notifyCreated(restaurantID, userID uint, req createBookingRequest, result *services.BookingResult) {
	realtime.BroadcastBookingEvent(realtime.EventBookingCreated, restaurantID, result)

	var user models.User
	if err := bc.DB.Scopes(scopes.WithID(userID)).First(&user).Error; err != nil {
		return
	}
	var restaurant models.Restaurant
	if err := bc.DB.Scopes(scopes.WithID(restaurantID)).First(&restaurant).Error; err != nil {
		return
	}
	bc.Mailer.SendBookingConfirmation(user.Email, restaurant.Name, req.Date, req.StartTime, result.CheckinCode)
}

// notifyCancelled mails the diner who placed the booking, if any. Walk-ins
// have no account and are skipped.
func (bc *BookingController) notifyCancelled(restaurantID, bookingID uint) {
	var booking models.Booking
	if err := bc.DB.Scopes(scopes.WithID(bookingID)).First(&booking).Error; err != nil || booking.UserID == nil {
		return
	}
	var user models.User
	if err := bc.DB.Scopes(scopes.WithID(*booking.UserID)).First(&user).Error; err != nil {
		return
	}
	var restaurant models.Restaurant
	if err := bc.DB.Scopes(scopes.WithID(restaurantID)).First(&restaurant).Error; err != nil {
		return
	}
	bc.Mailer.SendBookingCancellation(user.Email, restaurant.Name, booking.Date, booking.StartTime)
}

func bookingParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("booking_id"), 10, 32)
	if err != nil || id == 0 {
		utils.RespondError(c, http.StatusBadRequest, errors.New("invalid booking id"))
		return 0, false
	}
	return uint(id), true
}
