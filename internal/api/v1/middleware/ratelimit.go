// Package middleware holds the gin middleware chain registered by
// internal/router: request-id, CORS, auth, rate-limit, logging,
// recovery (§4.4).
package middleware

import (
	"fmt"
	"strconv"
	"time"

	"github.com/flexprice/flexprice/internal/config"
	ierr "github.com/flexprice/flexprice/internal/errors"
	"github.com/flexprice/flexprice/internal/logger"
	"github.com/flexprice/flexprice/internal/redisclient"
	"github.com/flexprice/flexprice/internal/types"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// RateLimiter is a 60-second sliding-window limiter over a Redis
// sorted set, grounded on brokle-ai-brokle's checkRateLimit: same
// ZREMRANGEBYSCORE/ZCARD/ZADD/EXPIRE sequence inside one TxPipeline,
// scoped to (tenant_id, client_ip) — or (anonymous, client_ip) when no
// tenant was resolved by auth — per §4.4.
type RateLimiter struct {
	redis  *redisclient.Client
	cfg    config.RateLimitConfig
	log    *logger.Logger
	window time.Duration
}

func NewRateLimiter(client *redisclient.Client, cfg *config.Configuration, log *logger.Logger) *RateLimiter {
	return &RateLimiter{redis: client, cfg: cfg.RateLimit, log: log, window: 60 * time.Second}
}

func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID := types.GetTenantID(c.Request.Context())
		scope := tenantID
		if scope == "" {
			scope = "anonymous"
		}

		key := fmt.Sprintf("ratelimit:%s:%s", scope, c.ClientIP())
		allowed, remaining, err := rl.check(c, key, rl.cfg.PerMinute)
		if err != nil {
			// Fail open: Redis being down must not take ingest down with it.
			rl.log.Errorw("rate limit check failed, allowing request", "error", err.Error(), "tenant_id", tenantID)
			c.Next()
			return
		}

		reset := time.Now().Add(rl.window).Unix()
		c.Header("X-RateLimit-Limit", strconv.Itoa(rl.cfg.PerMinute))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(reset, 10))

		if !allowed {
			c.Header("Retry-After", "60")
			respErr := ierr.NewError("rate limit exceeded").
				WithHint("too many requests for this tenant, retry after the window resets").
				Mark(ierr.ErrRateLimited)
			resp := ierr.NewErrorResponse(respErr)
			c.AbortWithStatusJSON(ierr.HTTPStatus(ierr.ErrRateLimited), resp)
			return
		}

		c.Next()
	}
}

func (rl *RateLimiter) check(c *gin.Context, key string, limit int) (bool, int, error) {
	ctx := c.Request.Context()
	now := time.Now()
	windowStart := now.Add(-rl.window)

	pipe := rl.redis.TxPipeline()
	pipe.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(windowStart.UnixNano(), 10))
	countCmd := pipe.ZCard(ctx, key)
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(now.UnixNano()), Member: now.UnixNano()})
	pipe.Expire(ctx, key, rl.window)

	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, err
	}

	count := int(countCmd.Val())
	remaining := limit - count
	if remaining < 0 {
		remaining = 0
	}
	return count < limit, remaining, nil
}
