package middleware

import (
	"net/http"

	"github.com/fincore/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// TenantIDKey is the gin context key holding the resolved tenant ID
const TenantIDKey = "tenant_id"

// TenantHeader is the header carrying the caller's tenant
const TenantHeader = "X-Tenant-ID"

// RequireTenant resolves the tenant from the request header and aborts
// requests that do not identify one. Every financial operation is scoped
// to a tenant, so routes behind this middleware can rely on the ID being
// present and well formed.
func RequireTenant() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(TenantHeader)
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(
				dto.ErrCodeUnauthorized, "Missing "+TenantHeader+" header"))
			return
		}
		tenantID, err := uuid.Parse(raw)
		if err != nil || tenantID == uuid.Nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponse(
				dto.ErrCodeBadRequest, "Invalid "+TenantHeader+" header"))
			return
		}
		c.Set(TenantIDKey, tenantID)
		c.Next()
	}
}

// GetTenantID returns the tenant resolved by RequireTenant
func GetTenantID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(TenantIDKey)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}
