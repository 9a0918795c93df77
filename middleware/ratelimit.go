package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Limiter counts attempts per key in a fixed window.
type Limiter interface {
	Allow(ctx context.Context, key string, max int, window time.Duration) (bool, int, error)
}

// RateLimit limits requests per client IP. A failing limiter lets the
// request through.
func RateLimit(l Limiter, maxRequests int, window time.Duration, log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if l == nil || maxRequests <= 0 {
			c.Next()
			return
		}

		allowed, remaining, err := l.Allow(c.Request.Context(), c.ClientIP(), maxRequests, window)
		if err != nil {
			log.WithError(err).Warn("rate limiter unavailable")
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(maxRequests))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Header("X-RateLimit-Window", window.String())

		if !allowed {
			c.Header("Retry-After", strconv.Itoa(int(window.Seconds())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many attempts, try again later"})
			return
		}
		c.Next()
	}
}
