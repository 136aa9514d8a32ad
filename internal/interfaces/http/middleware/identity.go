package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mes/backend/internal/interfaces/http/dto"
)

const (
	// HeaderTenantID carries the acting organization, set by the gateway
	HeaderTenantID = "X-Tenant-ID"
	// HeaderUserID carries the authenticated user, set by the gateway
	HeaderUserID = "X-User-ID"

	ContextTenantID = "tenant_id"
	ContextUserID   = "user_id"
)

// Identity extracts the tenant and user from gateway headers. Requests
// without both are rejected; authentication itself happens upstream.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID, err := uuid.Parse(c.GetHeader(HeaderTenantID))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				dto.Error("UNAUTHENTICATED", "Missing or invalid tenant header"))
			return
		}
		userID, err := uuid.Parse(c.GetHeader(HeaderUserID))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				dto.Error("UNAUTHENTICATED", "Missing or invalid user header"))
			return
		}
		c.Set(ContextTenantID, tenantID)
		c.Set(ContextUserID, userID)
		c.Next()
	}
}

// TenantID returns the tenant set by the Identity middleware
func TenantID(c *gin.Context) uuid.UUID {
	if v, ok := c.Get(ContextTenantID); ok {
		if id, ok := v.(uuid.UUID); ok {
			return id
		}
	}
	return uuid.Nil
}

// UserID returns the user set by the Identity middleware
func UserID(c *gin.Context) uuid.UUID {
	if v, ok := c.Get(ContextUserID); ok {
		if id, ok := v.(uuid.UUID); ok {
			return id
		}
	}
	return uuid.Nil
}
