package middleware

import (
	"cardvault-backend/internal/shared/apperr"
	"cardvault-backend/internal/shared/authz"

	"github.com/gin-gonic/gin"
)

// RequireRole rejects requests whose principal doesn't carry the
// given role. Register after AuthMiddleware.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !authz.HasRole(RolesFromContext(c), role) {
			c.Error(apperr.Authorization("access denied: " + role + " role required"))
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireAdmin is a convenience wrapper for RequireRole(authz.RoleAdmin).
func RequireAdmin() gin.HandlerFunc {
	return RequireRole(authz.RoleAdmin)
}
