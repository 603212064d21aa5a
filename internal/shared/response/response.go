package response

import (
	"github.com/gin-gonic/gin"
)

// Envelope is the wire shape returned by every endpoint: a boolean
// outcome, a human-readable message, and an optional payload.
type Envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// Success writes a 2xx envelope carrying data.
func Success(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, Envelope{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// Failed writes a non-2xx envelope with no data payload.
func Failed(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, Envelope{
		Success: false,
		Message: message,
	})
}
