// admin_only.go
package middleware

import (
	"net/http"

	"ecommerce-backend/internal/model"

	"github.com/gin-gonic/gin"
)

// RequireRoles lets the request through only if the authenticated caller has
// one of the roles. It must run after AuthMiddleware.
func RequireRoles(roles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := CurrentActor(c)
		if actor == nil {
			abort(c, http.StatusUnauthorized, "authentication required")
			return
		}
		for _, r := range roles {
			if actor.Role == r {
				c.Next()
				return
			}
		}
		abort(c, http.StatusForbidden, "insufficient privileges")
	}
}

func AdminOnly() gin.HandlerFunc {
	return RequireRoles(model.RoleAdmin)
}

func AdminOrStaff() gin.HandlerFunc {
	return RequireRoles(model.RoleAdmin, model.RoleStaff)
}
