package services

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"

	"github.com/genaiplatform/backend/internal/auth"
	"github.com/genaiplatform/backend/internal/logger"
)

// RateLimiter is a fixed-window per-key limiter on Redis. With no Redis
// configured every request is allowed; quota enforcement still happens in
// the usage service.
type RateLimiter struct {
	redis *redis.Client
}

func NewRateLimiter(rdb *redis.Client) *RateLimiter {
	return &RateLimiter{redis: rdb}
}

// Allow consumes one unit from the window and reports whether the caller
// is still under the limit.
func (r *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if r.redis == nil {
		return true, nil
	}

	windowKey := fmt.Sprintf("ratelimit:%s:%d", key, time.Now().Unix()/int64(window.Seconds()))

	count, err := r.redis.Incr(ctx, windowKey).Result()
	if err != nil {
		return false, err
	}
	if count == 1 {
		r.redis.Expire(ctx, windowKey, window)
	}
	return count <= int64(limit), nil
}

// Middleware throttles authenticated routes per user. Redis outages fail
// open with a log line.
func (r *RateLimiter) Middleware(limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := auth.CurrentUser(c)
		if user == nil {
			c.Next()
			return
		}

		allowed, err := r.Allow(c.Request.Context(), user.ID.String(), limit, window)
		if err != nil {
			logger.Warn().Err(err).Msg("rate limiter unavailable")
			c.Next()
			return
		}
		if !allowed {
			c.Header("Retry-After", strconv.Itoa(int(window.Seconds())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}
		c.Next()
	}
}
