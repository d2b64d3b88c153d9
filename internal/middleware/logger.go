package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/lawdesk/pkg/logger"
)

// Logger logs one line per request. Bodies are never logged; they carry
// client names and phone numbers.
func Logger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		status := c.Writer.Status()
		evt := log.ZL.Info()
		msg := "Request processed"
		switch {
		case status >= 500:
			evt, msg = log.ZL.Error(), "Server error"
		case status >= 400:
			evt, msg = log.ZL.Warn(), "Client error"
		}
		if len(c.Errors) > 0 {
			evt = evt.Str("errors", c.Errors.String())
		}

		evt.
			Str("request_id", c.GetString(ContextRequestID)).
			Str("method", c.Request.Method).
			Str("path", path).
			Str("route", c.FullPath()).
			Str("ip", c.ClientIP()).
			Int("status", status).
			Dur("duration", time.Since(start)).
			Str("user_agent", c.Request.UserAgent()).
			Msg(msg)
	}
}
