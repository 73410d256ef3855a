package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimiter counts requests in fixed Redis windows. Callers build the
// key from tier, identity, and path category; the limiter only counts
type RateLimiter struct {
	client *redis.Client
}

// RateLimitResult reports one counted request against its ceiling
type RateLimitResult struct {
	Allowed   bool
	Limit     int
	Remaining int
}

// NewRateLimiter creates a limiter on an existing Redis client
func NewRateLimiter(client *redis.Client) *RateLimiter {
	return &RateLimiter{client: client}
}

// Allow counts one request against the key's window and reports whether
// it fits under the limit. The window TTL is set only when the key is
// created, so the window is fixed, not sliding
func (l *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (RateLimitResult, error) {
	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return RateLimitResult{}, fmt.Errorf("failed to count rate-limit window: %w", err)
	}

	count := incr.Val()
	remaining := int64(limit) - count
	if remaining < 0 {
		remaining = 0
	}
	return RateLimitResult{
		Allowed:   count <= int64(limit),
		Limit:     limit,
		Remaining: int(remaining),
	}, nil
}
