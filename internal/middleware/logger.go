package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ecoloop-app/ecoloop-backend/internal/pkg/logger"
)

var skipPaths = map[string]bool{
	"/health": true,
	"/ping":   true,
}

// Logger logs each request with latency and status using structured fields
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		if skipPaths[path] {
			c.Next()
			return
		}

		c.Next()

		entry := logger.WithFields(logger.Fields{
			"method":  c.Request.Method,
			"path":    path,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
			"ip":      c.ClientIP(),
		})

		status := c.Writer.Status()
		switch {
		case status >= 500:
			entry.Error("request failed")
		case status >= 400:
			entry.Warn("request rejected")
		default:
			entry.Info("request")
		}
	}
}
