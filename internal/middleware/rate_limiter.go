package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Baaaki/buy-sell-store/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RateLimiterConfig defines rate limiting rules
type RateLimiterConfig struct {
	MaxRequests int           // Maximum requests allowed in the window
	Window      time.Duration // Counting window
	BlockTime   time.Duration // How long an IP stays blocked after exceeding the limit
}

// RateLimiter provides IP-based rate limiting using Redis
type RateLimiter struct {
	redis  *redis.Client
	config RateLimiterConfig
}

func NewRateLimiter(redisClient *redis.Client, config RateLimiterConfig) *RateLimiter {
	return &RateLimiter{
		redis:  redisClient,
		config: config,
	}
}

// Middleware returns a Gin middleware function for rate limiting
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		clientIP := c.ClientIP()

		allowed, retryAfter, err := rl.CheckLimit(c.Request.Context(), clientIP)
		if err != nil {
			// Fail open: an unavailable Redis must not take auth down with it.
			logger.Log.Error("Rate limit check failed", zap.String("ip", clientIP), zap.Error(err))
			c.Next()
			return
		}

		if !allowed {
			logger.Log.Warn("Rate limit exceeded",
				zap.String("ip", clientIP),
				zap.String("path", c.Request.URL.Path),
			)
			c.Header("Retry-After", fmt.Sprintf("%d", int(retryAfter.Seconds())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"message":     "Too many requests. Please try again later.",
				"retry_after": int(retryAfter.Seconds()),
			})
			return
		}

		c.Next()
	}
}

// CheckLimit counts a request from ip in a fixed window. Exceeding the limit
// blocks the ip for BlockTime.
// Returns: (allowed bool, retryAfter duration, error)
func (rl *RateLimiter) CheckLimit(ctx context.Context, ip string) (bool, time.Duration, error) {
	blockKey := fmt.Sprintf("ratelimit:block:%s", ip)

	ttl, err := rl.redis.TTL(ctx, blockKey).Result()
	if err != nil {
		return false, 0, err
	}
	if ttl > 0 {
		return false, ttl, nil
	}

	key := fmt.Sprintf("ratelimit:%s", ip)

	count, err := rl.redis.Incr(ctx, key).Result()
	if err != nil {
		return false, 0, err
	}

	// Set expiry on first request (count = 1)
	if count == 1 {
		if err := rl.redis.Expire(ctx, key, rl.config.Window).Err(); err != nil {
			return false, 0, err
		}
	}

	if count > int64(rl.config.MaxRequests) {
		if rl.config.BlockTime <= 0 {
			ttl, err := rl.redis.TTL(ctx, key).Result()
			if err != nil || ttl <= 0 {
				ttl = rl.config.Window
			}
			return false, ttl, nil
		}
		if err := rl.redis.Set(ctx, blockKey, 1, rl.config.BlockTime).Err(); err != nil {
			return false, 0, err
		}
		return false, rl.config.BlockTime, nil
	}

	return true, 0, nil
}

// Unblock lifts a block and resets the counter for ip.
func (rl *RateLimiter) Unblock(ctx context.Context, ip string) error {
	return rl.redis.Del(ctx, fmt.Sprintf("ratelimit:block:%s", ip), fmt.Sprintf("ratelimit:%s", ip)).Err()
}
