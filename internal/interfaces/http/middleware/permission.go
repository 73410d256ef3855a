package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/procura/backend/internal/domain/identity"
)

// RoleConfig holds configuration for role middleware
type RoleConfig struct {
	// Logger for middleware logging
	Logger *zap.Logger
	// OnDenied is called when access is denied (optional)
	OnDenied func(c *gin.Context, requiredRoles []identity.Role)
}

// RequireRoles creates middleware that admits only the listed roles.
// The caller's single role must match one of them
func RequireRoles(roles ...identity.Role) gin.HandlerFunc {
	return RequireRolesWithConfig(RoleConfig{}, roles...)
}

// RequireRolesWithConfig creates role middleware with custom config
func RequireRolesWithConfig(cfg RoleConfig, roles ...identity.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetJWTClaims(c)
		if claims == nil {
			handleRoleDenied(c, cfg, roles, "No authentication claims found")
			return
		}

		callerRole := identity.Role(claims.Role)
		for _, role := range roles {
			if callerRole == role {
				c.Next()
				return
			}
		}

		handleRoleDenied(c, cfg, roles, "User role not permitted for this operation")
	}
}

// RequireVendorManagement admits roles allowed to create and review vendors
func RequireVendorManagement() gin.HandlerFunc {
	return RequireCheck(func(r identity.Role) bool { return r.CanManageVendors() })
}

// RequirePaymentApproval admits roles allowed to approve invoices for payment
func RequirePaymentApproval() gin.HandlerFunc {
	return RequireCheck(func(r identity.Role) bool { return r.CanApprovePayments() })
}

// RequireCheck creates middleware from a role predicate for rules that do
// not reduce to a fixed role list
func RequireCheck(check func(identity.Role) bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetJWTClaims(c)
		if claims == nil {
			handleRoleDenied(c, RoleConfig{}, nil, "No authentication claims found")
			return
		}
		if !check(identity.Role(claims.Role)) {
			handleRoleDenied(c, RoleConfig{}, nil, "User role not permitted for this operation")
			return
		}
		c.Next()
	}
}

// HasRole reports whether the caller holds one of the given roles
func HasRole(c *gin.Context, roles ...identity.Role) bool {
	claims := GetJWTClaims(c)
	if claims == nil {
		return false
	}
	callerRole := identity.Role(claims.Role)
	for _, role := range roles {
		if callerRole == role {
			return true
		}
	}
	return false
}

// handleRoleDenied handles access denied scenarios
func handleRoleDenied(c *gin.Context, cfg RoleConfig, requiredRoles []identity.Role, reason string) {
	if cfg.OnDenied != nil {
		cfg.OnDenied(c, requiredRoles)
		return
	}

	if cfg.Logger != nil {
		claims := GetJWTClaims(c)
		userID := ""
		role := ""
		if claims != nil {
			userID = claims.Subject
			role = claims.Role
		}

		required := make([]string, 0, len(requiredRoles))
		for _, r := range requiredRoles {
			required = append(required, string(r))
		}

		cfg.Logger.Warn("Access denied",
			zap.String("reason", reason),
			zap.String("user_id", userID),
			zap.String("role", role),
			zap.Strings("required_roles", required),
			zap.String("path", c.Request.URL.Path),
			zap.String("method", c.Request.Method),
		)
	}

	c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "FORBIDDEN",
			"message": "Access denied: insufficient role",
		},
	})
}
