package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// InternalSecretHeader authenticates scheduler triggers and other
// machine-to-machine calls
const InternalSecretHeader = "X-Internal-Secret"

// InternalAuthConfig holds configuration for internal endpoint auth
type InternalAuthConfig struct {
	// Secret is the shared secret expected in X-Internal-Secret
	Secret string
	// AllowEmptyInDebug admits requests without a secret when none is
	// configured; only sane outside production
	AllowEmptyInDebug bool
	// Logger for middleware logging
	Logger *zap.Logger
}

// InternalAuthMiddleware guards internal job endpoints with a shared
// secret instead of a user token
func InternalAuthMiddleware(cfg InternalAuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.Secret == "" {
			if cfg.AllowEmptyInDebug {
				c.Next()
				return
			}
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "FORBIDDEN",
					"message": "Internal endpoints are not enabled",
				},
			})
			return
		}

		provided := c.GetHeader(InternalSecretHeader)
		if subtle.ConstantTimeCompare([]byte(provided), []byte(cfg.Secret)) != 1 {
			if cfg.Logger != nil {
				cfg.Logger.Warn("Internal endpoint rejected",
					zap.String("path", c.Request.URL.Path),
					zap.String("client_ip", c.ClientIP()),
				)
			}
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "FORBIDDEN",
					"message": "Invalid internal secret",
				},
			})
			return
		}

		c.Next()
	}
}
