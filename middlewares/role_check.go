package middlewares

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dineflow/reserva-backend/models"
	"github.com/dineflow/reserva-backend/utils"
)

// RequireRole gates a route group to the given roles. Admin always passes.
func RequireRole(allowed ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		value, exists := c.Get("role")
		if !exists {
			utils.RespondError(c, http.StatusUnauthorized, fmt.Errorf("unauthorized"))
			c.Abort()
			return
		}
		role, ok := value.(models.Role)
		if !ok {
			utils.RespondError(c, http.StatusUnauthorized, fmt.Errorf("unauthorized"))
			c.Abort()
			return
		}

		if role == models.RoleAdmin {
			c.Next()
			return
		}
		for _, a := range allowed {
			if role == a {
				c.Next()
				return
			}
		}

		utils.RespondError(c, http.StatusForbidden, fmt.Errorf("%s access required", describeRoles(allowed)))
		c.Abort()
	}
}

func describeRoles(roles []models.Role) string {
	if len(roles) == 0 {
		return "admin"
	}
	out := string(roles[0])
	for _, r := range roles[1:] {
		out += " or " + string(r)
	}
	return out
}

// CurrentRole reads the role set by the auth middlewares.
func CurrentRole(c *gin.Context) (models.Role, bool) {
	value, exists := c.Get("role")
	if !exists {
		return "", false
	}
	role, ok := value.(models.Role)
	return role, ok
}

// CurrentUserID reads the principal id set by the auth middlewares.
func CurrentUserID(c *gin.Context) (uint, bool) {
	value, exists := c.Get("userID")
	if !exists {
		return 0, false
	}
	id, ok := value.(uint)
	return id, ok
}
