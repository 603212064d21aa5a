package middleware

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
)

// ResponseTime stamps every /api/* response with how long the
// handler chain took to run, in milliseconds.
func ResponseTime() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		c.Header("X-Response-Time", fmt.Sprintf("%dms", time.Since(start).Milliseconds()))
	}
}
