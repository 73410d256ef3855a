package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/procura/backend/internal/infrastructure/logger"
)

// Tenant context keys
const (
	TenantIDKey     = "tenant_id"
	TenantHeaderKey = "X-Tenant-ID"
)

// TenantMiddlewareConfig holds configuration for tenant middleware
type TenantMiddlewareConfig struct {
	// HeaderEnabled allows X-Tenant-ID extraction for callers without a
	// token, e.g. internal job triggers. JWT claims always win
	HeaderEnabled bool
	// SkipPaths are paths that don't require tenant context
	SkipPaths []string
	// SkipPathPrefixes are path prefixes that don't require tenant context
	SkipPathPrefixes []string
	// Required determines if tenant context is mandatory
	Required bool
	// Logger for middleware logging
	Logger *zap.Logger
}

// DefaultTenantConfig returns default tenant middleware configuration
func DefaultTenantConfig() TenantMiddlewareConfig {
	return TenantMiddlewareConfig{
		HeaderEnabled: false,
		SkipPaths: []string{
			"/health",
			"/healthz",
			"/ready",
			"/metrics",
			"/api/v1/health",
			"/api/v1/auth/login",
			"/api/v1/auth/refresh",
		},
		SkipPathPrefixes: []string{
			"/swagger",
			"/api-docs",
			"/api/v1/internal/",
			"/api/v1/webhooks/",
		},
		Required: true,
		Logger:   nil,
	}
}

// TenantMiddleware binds the caller's tenant into the request context.
// The tenant comes from validated JWT claims; every row the data layer
// touches afterwards is filtered by it
func TenantMiddleware() gin.HandlerFunc {
	return TenantMiddlewareWithConfig(DefaultTenantConfig())
}

// TenantMiddlewareWithConfig returns tenant middleware with custom configuration
func TenantMiddlewareWithConfig(cfg TenantMiddlewareConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		for _, skipPath := range cfg.SkipPaths {
			if path == skipPath {
				c.Next()
				return
			}
		}
		for _, prefix := range cfg.SkipPathPrefixes {
			if strings.HasPrefix(path, prefix) {
				c.Next()
				return
			}
		}

		// Priority 1: JWT claims set by the auth middleware
		tenantID := GetJWTTenantID(c)

		// Priority 2: X-Tenant-ID header, only when explicitly enabled
		if tenantID == "" && cfg.HeaderEnabled {
			tenantID = c.GetHeader(TenantHeaderKey)
		}

		if tenantID != "" {
			if _, err := uuid.Parse(tenantID); err != nil {
				respondTenantUnauthorized(c, "Invalid tenant ID format")
				return
			}
		}

		if tenantID == "" && cfg.Required {
			respondTenantUnauthorized(c, "Tenant identification required")
			return
		}

		if tenantID != "" {
			c.Set(TenantIDKey, tenantID)

			// The JWT middleware already put the tenant in the request
			// context when the token carried one; cover the header path too
			ctx := c.Request.Context()
			if logger.GetTenantID(ctx) == "" {
				log := logger.FromContext(ctx)
				ctx, _ = logger.WithTenantID(ctx, log, tenantID)
				c.Request = c.Request.WithContext(ctx)
			}

			if cfg.Logger != nil {
				cfg.Logger.Debug("Tenant identified", zap.String("tenant_id", tenantID))
			}
		}

		c.Next()
	}
}

// respondTenantUnauthorized sends an unauthorized response
func respondTenantUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "UNAUTHORIZED",
			"message": message,
		},
	})
}

// GetTenantID retrieves the tenant ID from gin.Context
func GetTenantID(c *gin.Context) string {
	if tenantID, exists := c.Get(TenantIDKey); exists {
		if tid, ok := tenantID.(string); ok {
			return tid
		}
	}
	return ""
}

// GetTenantUUID retrieves the tenant ID as UUID from gin.Context
func GetTenantUUID(c *gin.Context) (uuid.UUID, error) {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return uuid.Nil, nil
	}
	return uuid.Parse(tenantID)
}

// MustGetTenantUUID retrieves the tenant ID as UUID or panics if not found.
// Use only in handlers behind the tenant middleware
func MustGetTenantUUID(c *gin.Context) uuid.UUID {
	tenantUUID, err := GetTenantUUID(c)
	if err != nil || tenantUUID == uuid.Nil {
		panic("valid tenant_id not found in context")
	}
	return tenantUUID
}
