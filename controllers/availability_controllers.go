package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dineflow/reserva-backend/services"
	"github.com/dineflow/reserva-backend/utils"
)

type AvailabilityController struct {
	Availability *services.AvailabilityService
}

func NewAvailabilityController(availability *services.AvailabilityService) *AvailabilityController {
	return &AvailabilityController{Availability: availability}
}

// ForDate returns the per-type, per-slot availability for a restaurant on
// one date. Closed days come back with closed=true and no slots, which is a
// different shape than an open day where every count is zero.
func (ac *AvailabilityController) ForDate(c *gin.Context) {
	restaurantID, ok := restaurantParam(c)
	if !ok {
		return
	}
	date := c.Query("date")
	if date == "" {
		utils.RespondError(c, http.StatusBadRequest, errors.New("date query parameter required"))
		return
	}

	result, err := ac.Availability.ForDate(restaurantID, date)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Availability", result)
}
