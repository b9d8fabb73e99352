package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/branchaudit-backend/internal/platform/ctxutil"
	"github.com/yungbote/branchaudit-backend/internal/platform/logger"
)

// RequestLogger writes one line per call; 4xx at warn, 5xx at error.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	if log == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := append([]interface{}{
			"method", c.Request.Method,
			"route", routeOf(c),
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
		}, ctxutil.LogFields(c.Request.Context())...)
		if errs := c.Errors.ByType(gin.ErrorTypePrivate); len(errs) > 0 {
			fields = append(fields, "error", errs.String())
		}

		switch {
		case status >= 500:
			log.Error("api request", fields...)
		case status >= 400:
			log.Warn("api request", fields...)
		default:
			log.Debug("api request", fields...)
		}
	}
}

// routeOf prefers the registered pattern so ids do not explode label sets.
func routeOf(c *gin.Context) string {
	if r := c.FullPath(); r != "" {
		return r
	}
	return "unmatched"
}
