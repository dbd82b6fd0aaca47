package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// CapabilityKey is the gin context key holding the caller's capability
const CapabilityKey = "capability"

// Capabilities
const (
	CapabilityPublic = "public"
	CapabilityAdmin  = "admin"
)

// AdminAuth checks the admin capability: a bearer token matching a bcrypt hash
type AdminAuth struct {
	hash   []byte
	logger *zap.Logger
}

// NewAdminAuth creates the check. An empty hash disables admin access.
func NewAdminAuth(hash string, logger *zap.Logger) *AdminAuth {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminAuth{hash: []byte(hash), logger: logger}
}

// Enabled reports whether an admin token is configured
func (a *AdminAuth) Enabled() bool {
	return len(a.hash) > 0
}

// Verify reports whether token carries the admin capability
func (a *AdminAuth) Verify(token string) bool {
	if !a.Enabled() || token == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword(a.hash, []byte(token)) == nil
}

// Require aborts with 403 unless the request carries the admin token
func (a *AdminAuth) Require() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !a.Enabled() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access is disabled"})
			return
		}

		if !a.Verify(bearerToken(c.GetHeader("Authorization"))) {
			a.logger.Warn("Admin capability denied",
				zap.String("path", c.FullPath()),
				zap.String("client_ip", c.ClientIP()))
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin capability required"})
			return
		}

		c.Set(CapabilityKey, CapabilityAdmin)
		c.Next()
	}
}

// Capability returns the capability recorded for the request
func Capability(c *gin.Context) string {
	if v, ok := c.Get(CapabilityKey); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return CapabilityPublic
}

func bearerToken(header string) string {
	const prefix = "bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
