package middleware

import (
	"net/http"

	"cardvault-backend/internal/shared/apperr"
	"cardvault-backend/internal/shared/response"
	"cardvault-backend/pkg/logger"

	"github.com/gin-gonic/gin"
)

var statusByKind = map[apperr.Kind]int{
	apperr.KindValidation:     http.StatusBadRequest,
	apperr.KindAuthentication: http.StatusUnauthorized,
	apperr.KindAuthorization:  http.StatusForbidden,
	apperr.KindNotFound:       http.StatusNotFound,
	apperr.KindConflict:       http.StatusConflict,
	apperr.KindRateLimited:    http.StatusTooManyRequests,
	apperr.KindInternal:       http.StatusInternalServerError,
}

// ErrorMapper is the single place an internal error becomes an HTTP
// response. Handlers call c.Error(err) and return; they never call
// response.Failed directly for a domain error.
func ErrorMapper() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err
		appErr, ok := apperr.As(err)
		if !ok {
			appErr = apperr.Internal("unexpected error", err)
		}

		status, ok := statusByKind[appErr.Kind]
		if !ok {
			status = http.StatusInternalServerError
		}

		if appErr.Kind == apperr.KindInternal {
			logger.Error("request failed", appErr)
		}

		response.Failed(c, status, appErr.Message)
	}
}
