package middleware

import (
	"strings"

	"cardvault-backend/internal/infrastructure/ratelimit"
	"cardvault-backend/internal/shared/apperr"
	"cardvault-backend/internal/shared/utils"

	"github.com/gin-gonic/gin"
)

// RateLimit enforces the C4 policy table for every request, keyed by
// the authenticated principal (or client IP for anonymous callers).
func RateLimit(limiter *ratelimit.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal := PrincipalFromContext(c)
		isAnon := principal == AnonymousPrincipal
		id := ratelimit.Identity(principal, utils.ExtractClientIP(c), isAnon)

		path := strings.TrimPrefix(c.Request.URL.Path, "/api")
		hasQuery := c.Query("query") != ""

		allowed, err := limiter.Allow(c.Request.Context(), id, c.Request.Method, path, hasQuery)
		if err != nil {
			c.Next()
			return
		}
		if !allowed {
			c.Error(apperr.RateLimited("Rate limit exceeded. Please try again later."))
			c.Abort()
			return
		}

		c.Next()
	}
}
