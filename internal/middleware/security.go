package middleware

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/abisalde/storefront-auth/internal/configs"
	customErrors "github.com/abisalde/storefront-auth/internal/errors"
	"github.com/abisalde/storefront-auth/pkg/logger"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// maxBackoffShift caps the exponent so the shift cannot overflow.
const maxBackoffShift = 20

// RateLimiter counts requests per client IP and route in fixed windows.
// Each window that overflows doubles the block that follows, up to
// MaxBackoff. Redis failures let the request through.
type RateLimiter struct {
	config      configs.RateLimitConfig
	redisClient *redis.Client
	log         logger.Logger
	now         func() time.Time
}

func NewRateLimiter(config configs.RateLimitConfig, redisClient *redis.Client, log logger.Logger) *RateLimiter {
	return &RateLimiter{
		config:      config,
		redisClient: redisClient,
		log:         log,
		now:         time.Now,
	}
}

func (rl *RateLimiter) Handler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !rl.config.Enabled {
			return c.Next()
		}

		scope := c.Route().Path + ":" + c.IP()
		wait, err := rl.check(c.UserContext(), scope)
		if err != nil {
			rl.log.Error(c.UserContext(), "rate limiter unavailable", "error", err)
			return c.Next()
		}
		if wait > 0 {
			rl.log.Warn(c.UserContext(), "rate limit exceeded", "ip", c.IP(), "path", c.Path(), "retry_after", wait)
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(wait.Round(time.Second).Seconds())))
			return customErrors.RateLimitExceeded
		}
		return c.Next()
	}
}

// check returns how long the caller must wait, or zero when the request may
// proceed.
func (rl *RateLimiter) check(ctx context.Context, scope string) (time.Duration, error) {
	countKey := fmt.Sprintf("ratelimit:count:%s", scope)
	violationKey := fmt.Sprintf("ratelimit:violations:%s", scope)
	backoffKey := fmt.Sprintf("ratelimit:backoff:%s", scope)

	remaining, err := rl.redisClient.PTTL(ctx, backoffKey).Result()
	if err != nil {
		return 0, err
	}
	if remaining > 0 {
		return remaining, nil
	}

	count, err := rl.redisClient.Incr(ctx, countKey).Result()
	if err != nil {
		return 0, err
	}
	if count == 1 {
		if err := rl.redisClient.Expire(ctx, countKey, rl.config.Window).Err(); err != nil {
			return 0, err
		}
	}

	if count <= int64(rl.config.MaxRequests) {
		return 0, nil
	}

	violations, err := rl.redisClient.Incr(ctx, violationKey).Result()
	if err != nil {
		return 0, err
	}
	rl.redisClient.Expire(ctx, violationKey, rl.config.MaxBackoff)

	backoff := rl.backoff(violations)
	if err := rl.redisClient.Set(ctx, backoffKey, rl.now().Add(backoff).Unix(), backoff).Err(); err != nil {
		return 0, err
	}
	rl.redisClient.Del(ctx, countKey)
	return backoff, nil
}

func (rl *RateLimiter) backoff(violations int64) time.Duration {
	shift := violations - 1
	if shift > maxBackoffShift {
		shift = maxBackoffShift
	}
	d := rl.config.Window << shift
	if d > rl.config.MaxBackoff || d <= 0 {
		d = rl.config.MaxBackoff
	}
	return d
}

func SecurityHeaders() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderXContentTypeOptions, "nosniff")
		c.Set(fiber.HeaderXFrameOptions, "DENY")
		c.Set(fiber.HeaderReferrerPolicy, "no-referrer")
		c.Set(fiber.HeaderStrictTransportSecurity, "max-age=31536000; includeSubDomains")
		c.Set(fiber.HeaderCacheControl, "no-store")
		return c.Next()
	}
}
