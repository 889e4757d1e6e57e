package realtime

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/dineflow/reserva-backend/models"
	"github.com/dineflow/reserva-backend/utils"
)

// Event types pushed to connected dashboards.
const (
	EventBookingCreated   = "booking_created"
	EventBookingCheckedIn = "booking_checked_in"
	EventBookingCancelled = "booking_cancelled"
	EventBookingCompleted = "booking_completed"
	EventBookingNoShow    = "booking_no_show"
	EventTableUpdate      = "table_update"
	EventDashboardUpdate  = "dashboard_update"
)

type Message struct {
	Event        string      `json:"event"`
	RestaurantID uint        `json:"restaurant_id"`
	Data         interface{} `json:"data"`
}

// Hub holds every connected staff/admin dashboard socket together with the
// restaurant it watches. Broadcasts fan out only to that restaurant's
// clients; a write failure only drops that message, the read loop in the
// controller notices the dead socket and unregisters it.
type Hub struct {
	clients map[*websocket.Conn]client
	mutex   sync.Mutex
}

type client struct {
	role         models.Role
	restaurantID uint
}

var hub = Hub{
	clients: make(map[*websocket.Conn]client),
}

func RegisterClient(conn *websocket.Conn, role models.Role, restaurantID uint) {
	hub.mutex.Lock()
	defer hub.mutex.Unlock()
	hub.clients[conn] = client{role: role, restaurantID: restaurantID}
}

func UnregisterClient(conn *websocket.Conn) {
	hub.mutex.Lock()
	defer hub.mutex.Unlock()
	delete(hub.clients, conn)
	conn.Close()
}

func BroadcastBookingEvent(event string, restaurantID uint, data interface{}) {
	broadcast(Message{Event: event, RestaurantID: restaurantID, Data: data})
}

func BroadcastTableUpdate(restaurantID uint, table models.TableInstance) {
	broadcast(Message{Event: EventTableUpdate, RestaurantID: restaurantID, Data: table})
}

func BroadcastDashboardUpdate(restaurantID uint, data interface{}) {
	broadcast(Message{Event: EventDashboardUpdate, RestaurantID: restaurantID, Data: data})
}

func broadcast(msg Message) {
	hub.mutex.Lock()
	defer hub.mutex.Unlock()

	data, err := json.Marshal(msg)
	if err != nil {
		utils.ErrorLogger.Printf("realtime: marshaling message: %v", err)
		return
	}

	for conn, cl := range hub.clients {
		if cl.restaurantID != msg.RestaurantID {
			continue
		}
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			utils.ErrorLogger.Printf("realtime: sending to client: %v", err)
		}
	}
}
