package middleware

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"green-needle/internal/api/errors"
)

// ErrorHandler recovers panics and turns them into the JSON error envelope.
// The panic value is logged server-side; the client only sees a generic
// internal error.
func ErrorHandler(logger *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		requestID := c.GetString(RequestIDKey)
		logger.Error("panic recovered",
			zap.Any("recovered", recovered),
			zap.String("request_id", requestID),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
		)

		apiErr := &errors.APIError{
			Kind:      errors.KindInternal,
			Message:   "internal server error",
			RequestID: requestID,
		}
		c.AbortWithStatusJSON(apiErr.HTTPStatus(), apiErr)
	})
}

// HandleError renders err as the JSON error envelope and aborts the request.
// The error is also attached to the context so the request logger records it.
func HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)

	apiErr := errors.From(err)
	apiErr.RequestID = c.GetString(RequestIDKey)
	c.AbortWithStatusJSON(apiErr.HTTPStatus(), apiErr)
}
