package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/sobit-woxsen/wou-attendance-qr/internal/shared/response"

	"github.com/gin-gonic/gin"
)

// CronAuth protects scheduler-only endpoints with a shared secret.
// An empty configured secret disables the surface entirely.
func CronAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			response.Error(c, http.StatusForbidden, "FORBIDDEN", "Cron endpoint is not configured", nil)
			c.Abort()
			return
		}

		token, found := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !found || subtle.ConstantTimeCompare([]byte(token), []byte(secret)) != 1 {
			response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid cron credentials", nil)
			c.Abort()
			return
		}

		c.Next()
	}
}
