package ratelimit

import (
	"math"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xyz-asif/citycare/internal/pkg/response"
)

// Middleware throttles requests per client IP.
func Middleware(limiter *RateLimiter) gin.HandlerFunc {
	return KeyMiddleware(limiter, nil)
}

// KeyMiddleware throttles requests by keyFunc, falling back to the client IP
// when keyFunc is nil or returns "". A disabled limiter passes everything.
func KeyMiddleware(limiter *RateLimiter, keyFunc func(c *gin.Context) string) gin.HandlerFunc {
	if !limiter.Enabled() {
		return func(c *gin.Context) { c.Next() }
	}
	limit := strconv.Itoa(limiter.Limit())

	return func(c *gin.Context) {
		key := ""
		if keyFunc != nil {
			key = keyFunc(c)
		}
		if key == "" {
			key = c.ClientIP()
		}

		allowed, remaining, reset := limiter.Allow(key)

		c.Header("X-RateLimit-Limit", limit)
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Header("X-RateLimit-Reset", reset.Format(time.RFC3339))

		if !allowed {
			retryAfter := int(math.Ceil(time.Until(reset).Seconds()))
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			response.TooManyRequests(c, "Rate limit exceeded. Try again later.", "RATE_LIMITED")
			c.Abort()
			return
		}

		c.Next()
	}
}
