package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"gorm.io/gorm"

	"github.com/dineflow/reserva-backend/middlewares"
	"github.com/dineflow/reserva-backend/models"
	"github.com/dineflow/reserva-backend/realtime"
	"github.com/dineflow/reserva-backend/utils"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type RealtimeController struct {
	DB *gorm.DB
}

func NewRealtimeController(db *gorm.DB) *RealtimeController {
	return &RealtimeController{DB: db}
}

// Events upgrades staff and admin dashboards to a WebSocket that receives
// booking and table events for one restaurant, named by the restaurant_id
// query parameter. The caller must belong to that restaurant; the hub then
// only delivers it that restaurant's events. The read loop exists only to
// detect a closed socket.
func (rc *RealtimeController) Events(c *gin.Context) {
	role, ok := middlewares.CurrentRole(c)
	if !ok {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	if role != models.RoleStaff && role != models.RoleAdmin {
		c.AbortWithStatus(http.StatusForbidden)
		return
	}

	restaurantID, err := strconv.ParseUint(c.Query("restaurant_id"), 10, 32)
	if err != nil || restaurantID == 0 {
		utils.RespondError(c, http.StatusBadRequest, errors.New("invalid restaurant id"))
		return
	}
	if !requireRestaurantAccess(c, rc.DB, uint(restaurantID)) {
		return
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	realtime.RegisterClient(ws, role, uint(restaurantID))

	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			break
		}
	}

	realtime.UnregisterClient(ws)
}
