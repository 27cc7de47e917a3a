package middleware

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"auth-be/internal/apperror"
	"auth-be/internal/models"
)

// ErrorHandler renders the last error a handler attached with c.Error.
// Operational errors keep their message; anything else becomes a generic 500.
func ErrorHandler(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		appErr := apperror.From(c.Errors.Last().Err)
		status := appErr.StatusCode()

		if !appErr.Operational() {
			logger.ErrorContext(c.Request.Context(), "unexpected error",
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
				"error", appErr,
			)
			c.JSON(http.StatusInternalServerError, models.ErrorResponse{
				Status:  models.StatusError,
				Message: apperror.GenericMessage,
			})
			return
		}

		if status >= http.StatusInternalServerError {
			logger.ErrorContext(c.Request.Context(), "request failed",
				"kind", appErr.Kind.String(),
				"path", c.Request.URL.Path,
				"error", appErr,
			)
		}

		c.JSON(status, models.ErrorResponse{
			Status:  appErr.Status(),
			Message: appErr.Message,
		})
	}
}

// Recovery turns a panic into the generic 500 response
func Recovery(logger *slog.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logger.ErrorContext(c.Request.Context(), "panic recovered",
			"path", c.Request.URL.Path,
			"panic", fmt.Sprint(recovered),
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, models.ErrorResponse{
			Status:  models.StatusError,
			Message: apperror.GenericMessage,
		})
	})
}

// NotFound answers requests that match no route
func NotFound(c *gin.Context) {
	c.Error(apperror.NewNotFound(fmt.Sprintf("Can't find %s on this server", c.Request.URL.Path)))
}
