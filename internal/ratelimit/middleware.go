package ratelimit

import (
	"math"
	"net/http"
	"strconv"

	"session-gateway/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Middleware limits requests per client IP within scope.
// A nil Limiter disables limiting. Redis failures let the request through.
func Middleware(l *Limiter, scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if l == nil {
			c.Next()
			return
		}

		d, err := l.Allow(c.Request.Context(), scope+":"+c.ClientIP())
		if err != nil {
			logger.FromGin(c).Warn("rate limiter unavailable, allowing request", "scope", scope, "err", err)
			c.Next()
			return
		}
		if !d.Allowed {
			secs := int(math.Ceil(d.RetryAfter.Seconds()))
			if secs < 1 {
				secs = 1
			}
			c.Header("Retry-After", strconv.Itoa(secs))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}
		c.Header("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
		c.Next()
	}
}
