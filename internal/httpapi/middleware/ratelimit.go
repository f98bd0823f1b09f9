package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/suPer8Hu/ai-chat/internal/chat"
	"github.com/suPer8Hu/ai-chat/internal/logger"
	"github.com/suPer8Hu/ai-chat/internal/ratelimit"
)

// KeyFunc picks the bucket a request is counted against.
type KeyFunc func(c *gin.Context) string

func GlobalKey(*gin.Context) string { return "global" }

func ClientIPKey(c *gin.Context) string { return "ip:" + c.ClientIP() }

// KeyFuncFor maps a configured key mode ("global" or "ip") to a KeyFunc.
func KeyFuncFor(mode string) KeyFunc {
	if mode == "ip" {
		return ClientIPKey
	}
	return GlobalKey
}

// RateLimit rejects requests over quota with 429 before any handler runs.
// Every response carries RateLimit-* headers. Limiter errors admit the request.
func RateLimit(l ratelimit.Limiter, key KeyFunc, window time.Duration, log *logger.Logger) gin.HandlerFunc {
	log = log.With("component", "ratelimit")
	return func(c *gin.Context) {
		res, err := l.Allow(c.Request.Context(), key(c))
		if err != nil {
			log.Warn("limiter failed, allowing request", "request_id", c.GetString(RequestIDKey), "error", err)
			c.Next()
			return
		}

		reset := res.RetryAfter(time.Now())
		c.Header("RateLimit-Policy", fmt.Sprintf("%d;w=%d", res.Limit, int(window/time.Second)))
		c.Header("RateLimit-Limit", strconv.Itoa(res.Limit))
		c.Header("RateLimit-Remaining", strconv.Itoa(res.Remaining))
		c.Header("RateLimit-Reset", strconv.Itoa(int(reset/time.Second)))

		if !res.Allowed {
			c.Header("Retry-After", strconv.Itoa(int(reset/time.Second)))
			_ = c.Error(chat.ErrRateLimited)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests, please try again later."})
			return
		}
		c.Next()
	}
}
