package respond

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"referral-backend/internal/shared/telemetry"
)

// ErrorBody defines the standardized error object.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorResponse wraps the error body.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// Error logs and aborts with the error envelope. 5xx responses log at error
// level, client mistakes at warn.
func Error(c *gin.Context, status int, code, message string, details any) {
	fields := []zap.Field{
		zap.Int("status", status),
		zap.String("code", code),
		zap.String("message", message),
		zap.String("path", c.Request.URL.Path),
		zap.String("method", c.Request.Method),
		zap.String("request_id", c.GetString("requestId")),
	}
	if orgID := c.GetString("organizationId"); orgID != "" {
		fields = append(fields, zap.String("organization_id", orgID))
	}
	if status >= 500 {
		telemetry.L().Error("http.error", fields...)
	} else {
		telemetry.L().Warn("http.error", fields...)
	}

	c.AbortWithStatusJSON(status, ErrorResponse{
		Error: ErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}
