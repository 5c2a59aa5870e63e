package middleware

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"time"

	"anoa.com/kopilka/pkg/logger"
	"anoa.com/kopilka/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

func rateLimitKey(userID uuid.UUID, action string) string {
	return fmt.Sprintf("rate_limit:user:%s:%s", userID.String(), action)
}

// CheckAndSetRateLimit reports whether the action is allowed and, if so, locks it for window.
// A nil client allows everything.
func CheckAndSetRateLimit(ctx context.Context, rdb *redis.Client, userID uuid.UUID, action string, window time.Duration) (bool, error) {
	if rdb == nil {
		return true, nil
	}

	wasSet, err := rdb.SetNX(ctx, rateLimitKey(userID, action), "locked", window).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check rate limit in redis: %w", err)
	}

	return wasSet, nil
}

func GetRateLimitTTL(ctx context.Context, rdb *redis.Client, userID uuid.UUID, action string) (time.Duration, error) {
	if rdb == nil {
		return 0, nil
	}
	return rdb.TTL(ctx, rateLimitKey(userID, action)).Result()
}

// RateLimit allows one request per window per user for action. Redis failures let the request through.
func RateLimit(rdb *redis.Client, action string, window time.Duration, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rdb == nil || window <= 0 {
			c.Next()
			return
		}
		userID, err := response.GetUserID(c)
		if err != nil {
			c.Next()
			return
		}

		allowed, err := CheckAndSetRateLimit(c.Request.Context(), rdb, userID, action, window)
		if err != nil {
			log.Warn("rate limit check failed", "action", action, "error", err)
			c.Next()
			return
		}
		if !allowed {
			ttl, _ := GetRateLimitTTL(c.Request.Context(), rdb, userID, action)
			c.Header("Retry-After", fmt.Sprintf("%d", int(math.Ceil(ttl.Seconds()))))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded, try again later"})
			return
		}
		c.Next()
	}
}
