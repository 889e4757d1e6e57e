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

type UserController struct {
	DB     *gorm.DB
	Mailer *services.Mailer
}

func NewUserController(db *gorm.DB, mailer *services.Mailer) *UserController {
	return &UserController{DB: db, Mailer: mailer}
}

// Register creates a diner account for a restaurant and emails a
// verification code. The account works before verification; verification
// only flips the badge the dashboard shows.
func (uc *UserController) Register(c *gin.Context) {
	var req struct {
		RestaurantID uint   `json:"restaurant_id" binding:"required"`
		FirstName    string `json:"first_name" binding:"required"`
		MiddleName   string `json:"middle_name"`
		LastName     string `json:"last_name"`
		Email        string `json:"email" binding:"required,email"`
		Password     string `json:"password" binding:"required,min=8"`
		Phone        string `json:"phone"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var restaurant models.Restaurant
	err := uc.DB.Scopes(scopes.Live, scopes.WithID(req.RestaurantID)).First(&restaurant).Error
	if err != nil {
		respondServiceError(c, services.ErrNotFound)
		return
	}

	var existing int64
	uc.DB.Model(&models.User{}).
		Where("restaurant_id = ? AND email = ? AND is_deleted = ?", req.RestaurantID, req.Email, false).
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
	user := models.User{
		RestaurantID:           req.RestaurantID,
		FirstName:              req.FirstName,
		MiddleName:             req.MiddleName,
		LastName:               req.LastName,
		Email:                  req.Email,
		Password:               string(hash),
		Phone:                  req.Phone,
		Role:                   models.RoleUser,
		EmailVerificationCode:  utils.GenerateVerificationCode(),
		VerificationCodeSentAt: &now,
	}
	if err := uc.DB.Create(&user).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	uc.Mailer.SendVerificationCode(user.Email, user.EmailVerificationCode)
	utils.InfoLogger.Printf("User registered: %s (restaurant %d)", user.Email, user.RestaurantID)
	utils.RespondJSON(c, http.StatusCreated, "Registration successful, check your email for the verification code", user)
}

// VerifyEmail consumes the emailed code. Codes expire after 10 minutes.
func (uc *UserController) VerifyEmail(c *gin.Context) {
	var req struct {
		RestaurantID uint   `json:"restaurant_id" binding:"required"`
		Email        string `json:"email" binding:"required,email"`
		Code         string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var user models.User
	err := uc.DB.Scopes(scopes.Live).
		Where("restaurant_id = ? AND email = ?", req.RestaurantID, req.Email).
		First(&user).Error
	if err != nil {
		respondServiceError(c, services.ErrNotFound)
		return
	}
	if user.IsEmailVerified {
		utils.RespondJSON(c, http.StatusOK, "Email already verified", nil)
		return
	}
	if user.EmailVerificationCode != req.Code {
		utils.RespondError(c, http.StatusBadRequest, errors.New("incorrect verification code"))
		return
	}
	if user.VerificationCodeSentAt == nil || time.Since(*user.VerificationCodeSentAt) > 10*time.Minute {
		utils.RespondError(c, http.StatusBadRequest, errors.New("verification code expired"))
		return
	}

	err = uc.DB.Model(&user).Updates(map[string]interface{}{
		"is_email_verified":       true,
		"email_verification_code": "",
	}).Error
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Email verified", nil)
}

func (uc *UserController) Login(c *gin.Context) {
	var req struct {
		RestaurantID uint   `json:"restaurant_id" binding:"required"`
		Email        string `json:"email" binding:"required,email"`
		Password     string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var user models.User
	err := uc.DB.Scopes(scopes.Live).
		Where("restaurant_id = ? AND email = ?", req.RestaurantID, req.Email).
		First(&user).Error
	if err != nil {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("invalid email or password"))
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("invalid email or password"))
		return
	}

	token, err := utils.GenerateToken(user.ID, user.Role)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Login successful", gin.H{
		"token": token,
		"user":  user,
	})
}

func (uc *UserController) Profile(c *gin.Context) {
	userID := c.GetUint("userID")
	var user models.User
	err := uc.DB.Scopes(scopes.Live, scopes.WithID(userID)).First(&user).Error
	if err != nil {
		respondServiceError(c, services.ErrNotFound)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Profile", user)
}
