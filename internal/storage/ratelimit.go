package storage

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

//go:embed ratelimit.lua
var rateLimitLua string

var rateLimitScript = redis.NewScript(rateLimitLua)

const rateLimitKeyPrefix = "csverify:ratelimit:"

var _ RateLimiter = (*RedisRateLimiter)(nil)

// RedisRateLimiter is a fixed window counter shared by every server instance.
type RedisRateLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
}

func NewRedisRateLimiter(client *redis.Client, limit int, window time.Duration) *RedisRateLimiter {
	return &RedisRateLimiter{client: client, limit: limit, window: window}
}

func (r *RedisRateLimiter) Allow(ctx context.Context, key string) (RateLimitResult, error) {
	res, err := rateLimitScript.Run(ctx, r.client,
		[]string{rateLimitKeyPrefix + key},
		r.window.Milliseconds(),
		r.limit,
	).Int64Slice()
	if err != nil {
		return RateLimitResult{}, fmt.Errorf("failed to run rate limit script: %w", err)
	}
	if len(res) != 2 {
		return RateLimitResult{}, fmt.Errorf("unexpected rate limit script result: %v", res)
	}

	retryAfter := time.Duration(res[1]) * time.Millisecond
	if retryAfter <= 0 {
		retryAfter = r.window
	}
	return RateLimitResult{Allowed: res[0] == 1, RetryAfter: retryAfter}, nil
}
