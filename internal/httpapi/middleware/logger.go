package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/suPer8Hu/ai-chat/internal/logger"
)

// AccessLog writes one line per request once the handler chain has finished.
func AccessLog(log *logger.Logger) gin.HandlerFunc {
	log = log.With("component", "http")
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		status := c.Writer.Status()
		kv := []any{
			"request_id", c.GetString(RequestIDKey),
			"status", status,
			"latency", time.Since(start),
			"method", c.Request.Method,
			"path", path,
			"client_ip", c.ClientIP(),
		}
		if last := c.Errors.Last(); last != nil {
			kv = append(kv, "error", last.Err)
		}
		switch {
		case status >= 500:
			log.Error("request", kv...)
		case status >= 400:
			log.Warn("request", kv...)
		default:
			log.Info("request", kv...)
		}
	}
}
