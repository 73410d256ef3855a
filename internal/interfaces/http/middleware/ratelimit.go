package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/procura/backend/internal/domain/identity"
	"github.com/procura/backend/internal/infrastructure/cache"
)

// PathCategory buckets endpoints with distinct cost profiles
type PathCategory string

const (
	PathCategoryAuth    PathCategory = "auth"
	PathCategoryUpload  PathCategory = "upload"
	PathCategoryDefault PathCategory = "default"
)

// tierLimits is requests per window, keyed by tier then path category.
// Auth endpoints are throttled hard everywhere to slow credential
// stuffing; uploads are the most expensive requests we serve
var tierLimits = map[identity.RateTier]map[PathCategory]int{
	identity.RateTierPrivileged: {
		PathCategoryAuth:    20,
		PathCategoryUpload:  20,
		PathCategoryDefault: 500,
	},
	identity.RateTierInternal: {
		PathCategoryAuth:    15,
		PathCategoryUpload:  10,
		PathCategoryDefault: 200,
	},
	identity.RateTierVendor: {
		PathCategoryAuth:    10,
		PathCategoryUpload:  5,
		PathCategoryDefault: 60,
	},
}

// RateLimitConfig holds configuration for the tiered rate limiter
type RateLimitConfig struct {
	// Limiter is the Redis-backed window counter
	Limiter *cache.RateLimiter
	// Window is the counting window; limits above are per window
	Window time.Duration
	// SkipPaths are exempt from limiting
	SkipPaths []string
	// SkipPathPrefixes are path prefixes exempt from limiting
	SkipPathPrefixes []string
	// Logger for middleware logging
	Logger *zap.Logger
}

// DefaultRateLimitConfig returns the standard tiered configuration
func DefaultRateLimitConfig(limiter *cache.RateLimiter) RateLimitConfig {
	return RateLimitConfig{
		Limiter: limiter,
		Window:  time.Minute,
		SkipPaths: []string{
			"/health",
			"/healthz",
			"/ready",
			"/metrics",
			"/api/v1/health",
		},
		SkipPathPrefixes: []string{
			"/swagger",
			"/api-docs",
			"/api/v1/internal/",
		},
		Logger: nil,
	}
}

// RateLimitMiddleware creates tiered rate-limiting middleware. Quotas are
// per user (or per client IP before authentication), per tier, and per
// path category, counted in fixed Redis windows shared by all replicas
func RateLimitMiddleware(limiter *cache.RateLimiter) gin.HandlerFunc {
	return RateLimitMiddlewareWithConfig(DefaultRateLimitConfig(limiter))
}

// RateLimitMiddlewareWithConfig creates rate-limiting middleware with custom config
func RateLimitMiddlewareWithConfig(cfg RateLimitConfig) gin.HandlerFunc {
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}

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

		tier := callerTier(c)
		category := categorizePath(path)
		limit := tierLimits[tier][category]

		key := fmt.Sprintf("ratelimit:%s:%s:%s", tier, callerIdentity(c), category)
		result, err := cfg.Limiter.Allow(c.Request.Context(), key, limit, cfg.Window)
		if err != nil {
			// Fail open: losing Redis should degrade admission control, not
			// take the API down
			if cfg.Logger != nil {
				cfg.Logger.Warn("Rate limiter unavailable, admitting request",
					zap.String("key", key),
					zap.Error(err))
			}
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))

		if !result.Allowed {
			c.Header("Retry-After", strconv.Itoa(int(cfg.Window.Seconds())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "RATE_LIMITED",
					"message": "Too many requests, retry later",
				},
			})
			return
		}

		c.Next()
	}
}

// callerTier maps the authenticated role to its admission tier.
// Unauthenticated requests share the most restrictive tier
func callerTier(c *gin.Context) identity.RateTier {
	return identity.Role(GetJWTRole(c)).Tier()
}

// callerIdentity keys the quota by user when authenticated, by client IP
// otherwise. Behind the proxy the first X-Forwarded-For entry is the
// original client
func callerIdentity(c *gin.Context) string {
	if userID := GetJWTUserID(c); userID != "" {
		return userID
	}
	if forwarded := c.GetHeader("X-Forwarded-For"); forwarded != "" {
		if idx := strings.Index(forwarded, ","); idx != -1 {
			return strings.TrimSpace(forwarded[:idx])
		}
		return strings.TrimSpace(forwarded)
	}
	return c.ClientIP()
}

// categorizePath buckets the request path by cost profile
func categorizePath(path string) PathCategory {
	switch {
	case strings.HasPrefix(path, "/api/v1/auth/"):
		return PathCategoryAuth
	case strings.HasPrefix(path, "/api/v1/files"):
		return PathCategoryUpload
	default:
		return PathCategoryDefault
	}
}
