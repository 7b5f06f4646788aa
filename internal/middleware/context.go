package middleware

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"storefront/internal/settings"
)

// Settings attaches the current business settings snapshot to the request
// context.
func Settings(holder *settings.Holder) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := settings.WithContext(c.Request.Context(), holder.Current())
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// Timeout bounds the request context. Store calls observe the deadline.
func Timeout(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if d <= 0 {
			c.Next()
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
