package ratelimit

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ecoloop-app/ecoloop-backend/internal/pkg/response"
)

// Middleware creates a rate limiting middleware keyed by client IP
func Middleware(limiter *RateLimiter) gin.HandlerFunc {
	return keyedMiddleware(limiter, func(c *gin.Context) string {
		return c.ClientIP()
	})
}

// UserBasedMiddleware keys the limit by authenticated user, falling back to IP.
// Used on the vote and proof-submission endpoints so one user cannot flood
// the validation pipeline.
func UserBasedMiddleware(limiter *RateLimiter) gin.HandlerFunc {
	return keyedMiddleware(limiter, func(c *gin.Context) string {
		if userID := c.GetString("userID"); userID != "" {
			return userID
		}
		return c.ClientIP()
	})
}

func keyedMiddleware(limiter *RateLimiter, keyFunc func(c *gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := keyFunc(c)

		if !limiter.Allow(key) {
			resetTime := limiter.GetResetTime(key)
			c.Header("X-RateLimit-Limit", strconv.Itoa(limiter.Limit()))
			c.Header("X-RateLimit-Remaining", "0")
			c.Header("X-RateLimit-Reset", resetTime.Format(time.RFC3339))
			c.Header("Retry-After", strconv.Itoa(int(time.Until(resetTime).Seconds())+1))

			response.TooManyRequests(c, "Rate limit exceeded. Try again later.", "RATE_LIMITED")
			c.Abort()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(limiter.Limit()))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(limiter.GetRemaining(key)))

		c.Next()
	}
}
