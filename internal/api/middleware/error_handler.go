package middleware

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"mediaconv/internal/api/errors"
	apperrors "mediaconv/internal/app/errors"
)

// ErrorHandler recovers panics into a generic internal error response.
func ErrorHandler(logger *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		requestID := GetRequestID(c)

		logger.Error("Recovered from panic",
			zap.String("request_id", requestID),
			zap.String("path", c.Request.URL.Path),
			zap.String("method", c.Request.Method),
			zap.String("recovered", fmt.Sprint(recovered)),
		)

		apiErr := errors.NewInternalError("Internal server error")
		apiErr.RequestID = requestID
		c.AbortWithStatusJSON(apiErr.HTTPStatus(), apiErr)
	})
}

// HandleError writes err as an APIError response. The full error chain is
// attached to the gin context so the logging middleware records it; only
// the classified user message is sent to the client.
func HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	if apperrors.KindOf(err) != apperrors.KindValidation {
		_ = c.Error(err)
	}

	apiErr := errors.FromDomain(err)
	resp := *apiErr
	resp.RequestID = GetRequestID(c)
	c.AbortWithStatusJSON(resp.HTTPStatus(), &resp)
}
