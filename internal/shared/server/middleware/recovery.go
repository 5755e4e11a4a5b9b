package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"referral-backend/internal/shared/metrics"
	"referral-backend/internal/shared/server/respond"
	"referral-backend/internal/shared/telemetry"
)

// Recovery turns handler panics into a 500 envelope.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			metrics.IncPanicRecovered()
			telemetry.L().Error("panic",
				zap.String("request_id", RequestIDFromContext(c)),
				zap.String("organization_id", OrganizationIDFromContext(c)),
				zap.String("method", c.Request.Method),
				zap.String("path", c.Request.URL.Path),
				zap.Any("error", rec),
				zap.ByteString("stack", debug.Stack()),
			)
			respond.Error(c, http.StatusInternalServerError, "internal", "Unexpected server error", nil)
		}()
		c.Next()
	}
}
