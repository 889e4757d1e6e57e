package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/dineflow/reserva-backend/models"
	"github.com/dineflow/reserva-backend/models/scopes"
	"github.com/dineflow/reserva-backend/services"
	"github.com/dineflow/reserva-backend/utils"
)

type AdminController struct {
	DB     *gorm.DB
	Mailer *services.Mailer
}

func NewAdminController(db *gorm.DB, mailer *services.Mailer) *AdminController {
	return &AdminController{DB: db, Mailer: mailer}
}

func (ac *AdminController) Register(c *gin.Context) {
	var req struct {
		FirstName  string `json:"first_name" binding:"required"`
		MiddleName string `json:"middle_name"`
		LastName   string `json:"last_name"`
		Email      string `json:"email" binding:"required,email"`
		Password   string `json:"password" binding:"required,min=8"`
		Phone      string `json:"phone"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var existing int64
	ac.DB.Model(&models.Admin{}).
		Where("email = ? AND is_deleted = ?", req.Email, false).
		Count(&existing)
	if existing > 0 {
		utils.RespondError(c, http.StatusConflict, errors.New("email already registered"))
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	now := time.Now()
	admin := models.Admin{
		FirstName:              req.FirstName,
		MiddleName:             req.MiddleName,
		LastName:               req.LastName,
		Email:                  req.Email,
		Password:               string(hash),
		Phone:                  req.Phone,
		EmailVerificationCode:  utils.GenerateVerificationCode(),
		VerificationCodeSentAt: &now,
	}
	if err := ac.DB.Create(&admin).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	ac.Mailer.SendVerificationCode(admin.Email, admin.EmailVerificationCode)
	utils.InfoLogger.Printf("Admin registered: %s", admin.Email)
	utils.RespondJSON(c, http.StatusCreated, "Registration successful, check your email for the verification code", admin)
}

// VerifyEmail consumes the emailed code. Codes expire after 10 minutes.
func (ac *AdminController) VerifyEmail(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
		Code  string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var admin models.Admin
	err := ac.DB.Scopes(scopes.Live).Where("email = ?", req.Email).First(&admin).Error
	if err != nil {
		respondServiceError(c, services.ErrNotFound)
		return
	}
	if admin.IsEmailVerified {
		utils.RespondJSON(c, http.StatusOK, "Email already verified", nil)
		return
	}
	if admin.EmailVerificationCode != req.Code {
		utils.RespondError(c, http.StatusBadRequest, errors.New("incorrect verification code"))
		return
	}
	if admin.VerificationCodeSentAt == nil || time.Since(*admin.VerificationCodeSentAt) > 10*time.Minute {
		utils.RespondError(c, http.StatusBadRequest, errors.New("verification code expired"))
		return
	}

	err = ac.DB.Model(&admin).Updates(map[string]interface{}{
		"is_email_verified":       true,
		"email_verification_code": "",
	}).Error
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Email verified", nil)
}

func (ac *AdminController) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var admin models.Admin
	err := ac.DB.Scopes(scopes.Live).Where("email = ?", req.Email).First(&admin).Error
	if err != nil {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("invalid email or password"))
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(admin.Password), []byte(req.Password)) != nil {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("invalid email or password"))
		return
	}

	token, err := utils.GenerateToken(admin.ID, models.RoleAdmin)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Login successful", gin.H{
		"token": token,
		"admin": admin,
	})
}

// CreateStaff registers a staff account for one of the admin's restaurants.
func (ac *AdminController) CreateStaff(c *gin.Context) {
	var req struct {
		RestaurantID uint   `json:"restaurant_id" binding:"required"`
		FirstName    string `json:"first_name" binding:"required"`
		LastName     string `json:"last_name"`
		Email        string `json:"email" binding:"required,email"`
		Password     string `json:"password" binding:"required,min=8"`
		Phone        string `json:"phone"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	if !requireRestaurantAccess(c, ac.DB, req.RestaurantID) {
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	staff := models.User{
		RestaurantID: req.RestaurantID,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		Password:     string(hash),
		Phone:        req.Phone,
		Role:         models.RoleStaff,
	}
	if err := ac.DB.Create(&staff).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.InfoLogger.Printf("Staff account created: %s (restaurant %d)", staff.Email, staff.RestaurantID)
	utils.RespondJSON(c, http.StatusCreated, "Staff account created", staff)
}
