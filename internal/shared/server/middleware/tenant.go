package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"referral-backend/internal/shared/server/respond"
)

const (
	organizationIDKey = "organizationId"

	// OrganizationHeader carries the tenant of every scoring request.
	OrganizationHeader = "X-Organization-Id"
)

// Tenant requires an organization header and stores it in context.
// Preflight requests pass through.
func Tenant() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Status(http.StatusNoContent)
			return
		}

		orgID := strings.TrimSpace(c.GetHeader(OrganizationHeader))
		if orgID == "" {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing organization", nil)
			return
		}
		c.Set(organizationIDKey, orgID)
		c.Next()
	}
}

// OrganizationIDFromContext fetches the organization set by the tenant middleware.
func OrganizationIDFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(organizationIDKey)
	if id, ok := val.(string); ok {
		return id
	}
	return ""
}
