package middleware

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	redis "github.com/redis/go-redis/v9"

	"questrank/pkg/errors"
	"questrank/pkg/logger"
	"questrank/pkg/response"
)

// RateLimiter is a fixed-window limiter backed by Redis INCR/EXPIRE, keyed
// by authenticated user (falling back to client IP). State lives outside the
// process, so limits hold across restarts and across multiple instances of
// the service. Fail-open: with no Redis client, or on a Redis error, the
// request is allowed through.
type RateLimiter struct {
	client *redis.Client
	logger logger.Logger
}

func NewRateLimiter(client *redis.Client, logger logger.Logger) *RateLimiter {
	return &RateLimiter{
		client: client,
		logger: logger,
	}
}

func (rl *RateLimiter) Limit(maxRequests int, window time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if rl.client == nil {
				return next(c)
			}

			ident := c.RealIP()
			if uid, ok := c.Get("uid").(string); ok && uid != "" {
				ident = uid
			}
			key := "rl:" + c.Path() + ":" + strconv.FormatInt(int64(window.Seconds()), 10) + ":" + ident

			ctx := c.Request().Context()
			count, err := rl.client.Incr(ctx, key).Result()
			if err != nil {
				rl.logger.Warn("rate limiter unavailable, allowing request", "error", err)
				return next(c)
			}
			if count == 1 {
				rl.client.Expire(ctx, key, window)
			}

			if count > int64(maxRequests) {
				return response.Error(c, errors.TooManyRequests("rate limit exceeded"))
			}
			return next(c)
		}
	}
}
