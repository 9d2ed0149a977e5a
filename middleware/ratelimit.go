package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"lecture-rag-backend/internal/config"
	"lecture-rag-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// RateLimitMiddleware limits requests per IP + endpoint combination using
// Redis counters. It fails open: if Redis is unreachable the request goes
// through, so the service keeps working without a Redis deployment.
func RateLimitMiddleware(rdb *redis.Client, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Skip rate limiting for health checks
		if c.FullPath() == "/health" {
			c.Next()
			return
		}

		key := "ratelimit:" + c.ClientIP() + ":" + c.FullPath()

		ctx := context.Background()
		count, err := rdb.Incr(ctx, key).Result()
		if err != nil {
			c.Next()
			return
		}

		// Set expiration on first request
		if count == 1 {
			rdb.Expire(ctx, key, time.Duration(cfg.RateLimitWindow)*time.Second)
		}

		if count > int64(cfg.RateLimitReqs) {
			c.Header("X-RateLimit-Limit", strconv.Itoa(cfg.RateLimitReqs))
			c.Header("X-RateLimit-Remaining", "0")
			c.Header("X-RateLimit-Reset", strconv.FormatInt(
				time.Now().Add(time.Duration(cfg.RateLimitWindow)*time.Second).Unix(), 10))

			utils.RespondWithError(c, http.StatusTooManyRequests,
				"rate_limit_exceeded",
				"Too many requests. Please try again later.",
				gin.H{
					"retry_after": cfg.RateLimitWindow,
					"limit":       cfg.RateLimitReqs,
				})
			c.Abort()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(cfg.RateLimitReqs))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(cfg.RateLimitReqs-int(count)))
		c.Next()
	}
}
