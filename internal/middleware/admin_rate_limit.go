package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/fotoatelier/backend/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// AuditAction tags the request with the destructive action it performs.
// Must be registered ahead of AdminActionRateLimit on the same route; the
// limiter only counts tagged requests.
func AuditAction(action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("audit_action", action)
		c.Next()
	}
}

// AdminActionRateLimit prevents mass destructive admin actions with
// escalating blocks. Routes opt in via AuditAction; untagged requests pass
// through uncounted.
func AdminActionRateLimit(auditService *services.AuditService, redisClient *redis.Client, maxActions, windowMinutes int) gin.HandlerFunc {
	return func(c *gin.Context) {
		action := c.GetString("audit_action")
		if action == "" {
			c.Next()
			return
		}

		userIDInterface, exists := c.Get("userID")
		if !exists {
			c.Next()
			return
		}

		adminID, ok := userIDInterface.(uuid.UUID)
		if !ok {
			c.Next()
			return
		}

		ctx := context.Background()
		blockKey := fmt.Sprintf("admin_blocked:%s:%s", adminID.String(), action)

		// Check if admin is currently blocked (1 hour block)
		if redisClient != nil {
			blocked, err := redisClient.Get(ctx, blockKey).Result()
			if err == nil && blocked == "1" {
				ttl, _ := redisClient.TTL(ctx, blockKey).Result()
				c.JSON(http.StatusForbidden, gin.H{
					"error":                 "admin_temporarily_blocked",
					"message":               "Your account has been temporarily blocked due to suspicious activity. Please contact the system administrator.",
					"blocked_until_minutes": int(ttl.Minutes()),
				})
				c.Abort()
				return
			}
		}

		since := time.Now().Add(-time.Duration(windowMinutes) * time.Minute)

		count, err := auditService.GetActionCount(adminID, action, since)
		if err != nil {
			c.Next()
			return
		}

		// If more than 5 actions in window, block for 1 hour
		if count >= 5 && redisClient != nil {
			_ = redisClient.Set(ctx, blockKey, "1", 1*time.Hour).Err()

			c.JSON(http.StatusForbidden, gin.H{
				"error":               "admin_temporarily_blocked",
				"message":             "Too many actions detected. Your account has been temporarily blocked for 1 hour. If this was not you, please contact the system administrator immediately.",
				"blocked_for_minutes": 60,
			})
			c.Abort()
			return
		}

		if count >= int64(maxActions) {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":               "rate_limit_exceeded",
				"message":             "Too many actions in a short time. Please wait a few minutes.",
				"retry_after_minutes": windowMinutes,
				"warning":             "Further attempts will result in a 1-hour block.",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
