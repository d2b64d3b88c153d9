package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	HeaderCronSecret = "X-Cron-Secret"
	HeaderCronKey    = "X-Cron-Key"
)

// CronAuth guards the scheduler trigger endpoints. Outside production it lets
// every request through so the endpoints can be exercised locally. In
// production a missing secret rejects everything.
func CronAuth(secret string, production bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !production {
			c.Next()
			return
		}

		presented := c.GetHeader(HeaderCronSecret)
		if presented == "" {
			presented = c.GetHeader(HeaderCronKey)
		}
		if presented == "" {
			presented = c.Query("secret")
		}

		if secret == "" || subtle.ConstantTimeCompare([]byte(presented), []byte(secret)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Next()
	}
}
