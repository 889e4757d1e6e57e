package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/dineflow/reserva-backend/middlewares"
	"github.com/dineflow/reserva-backend/models"
	"github.com/dineflow/reserva-backend/models/scopes"
	"github.com/dineflow/reserva-backend/services"
	"github.com/dineflow/reserva-backend/utils"
)

// statusForError maps the service error taxonomy onto HTTP status codes.
// Unknown errors become 500 and are logged by the caller; capacity and
// conflict outcomes deliberately share 409.
func statusForError(err error) int {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, services.ErrInvalidInput),
		errors.Is(err, services.ErrInvalidTime),
		errors.Is(err, services.ErrCapacityOutOfRange):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrClosed),
		errors.Is(err, services.ErrPolicyMissing):
		return http.StatusUnprocessableEntity
	case errors.Is(err, services.ErrInsufficientCapacity),
		errors.Is(err, services.ErrAlreadyProcessed),
		errors.Is(err, services.ErrCannotCancel),
		errors.Is(err, services.ErrTableInUse),
		errors.Is(err, services.ErrDuplicateTableNumber),
		errors.Is(err, services.ErrInsufficientStock),
		errors.Is(err, services.ErrOrderFinalized):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func respondServiceError(c *gin.Context, err error) {
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		utils.ErrorLogger.Printf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	utils.RespondError(c, status, err)
}

// requireRestaurantAccess checks that the authenticated principal may act on
// the restaurant: admins must own it, staff and users must belong to it.
func requireRestaurantAccess(c *gin.Context, db *gorm.DB, restaurantID uint) bool {
	role, _ := middlewares.CurrentRole(c)
	userID, _ := middlewares.CurrentUserID(c)

	switch role {
	case models.RoleAdmin:
		var restaurant models.Restaurant
		err := db.Scopes(scopes.Live, scopes.WithID(restaurantID)).First(&restaurant).Error
		if err != nil {
			respondServiceError(c, services.ErrNotFound)
			return false
		}
		if restaurant.AdminID != userID {
			respondServiceError(c, services.ErrForbidden)
			return false
		}
		return true
	case models.RoleStaff, models.RoleUser:
		var user models.User
		err := db.Scopes(scopes.Live, scopes.WithID(userID)).First(&user).Error
		if err != nil || user.RestaurantID != restaurantID {
			respondServiceError(c, services.ErrForbidden)
			return false
		}
		return true
	default:
		respondServiceError(c, services.ErrForbidden)
		return false
	}
}
