package middleware

import (
	"strings"

	"cardvault-backend/internal/shared/apperr"
	ourjwt "cardvault-backend/pkg/jwt"

	"github.com/gin-gonic/gin"
)

const (
	ctxPrincipal = "principal"
	ctxRoles     = "roles"

	// AnonymousPrincipal identifies unauthenticated callers: it is the
	// principal set when no Bearer token is present or the token fails
	// verification. RequireAuth rejects it, and the rate limiter keys
	// such callers by client IP instead.
	AnonymousPrincipal = "anonymous"
)

// AuthMiddleware verifies a Bearer access token when present and
// injects the principal's username and roles into the gin context.
// A missing or invalid token is not rejected here: the caller falls
// through as AnonymousPrincipal, and RequireAuth/RequireRole enforce
// access downstream. This lets public endpoints (card search) share
// the same middleware chain as protected ones.
func AuthMiddleware(manager *ourjwt.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(ctxPrincipal, AnonymousPrincipal)
		c.Set(ctxRoles, []string{})

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Next()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.Next()
			return
		}

		claims, err := manager.ValidateAccessToken(parts[1])
		if err != nil {
			c.Next()
			return
		}

		c.Set(ctxPrincipal, claims.Subject)
		c.Set(ctxRoles, claims.Roles)
		c.Next()
	}
}

// RequireAuth rejects requests that AuthMiddleware left anonymous.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if PrincipalFromContext(c) == AnonymousPrincipal {
			c.Error(apperr.Authentication("authentication required"))
			c.Abort()
			return
		}
		c.Next()
	}
}

// PrincipalFromContext returns the authenticated username, or
// AnonymousPrincipal if none is set.
func PrincipalFromContext(c *gin.Context) string {
	if v, ok := c.Get(ctxPrincipal); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return AnonymousPrincipal
}

// RolesFromContext returns the authenticated caller's normalized
// roles (without the ROLE_ storage prefix), or an empty slice.
func RolesFromContext(c *gin.Context) []string {
	if v, ok := c.Get(ctxRoles); ok {
		if roles, ok := v.([]string); ok {
			return roles
		}
	}
	return []string{}
}
