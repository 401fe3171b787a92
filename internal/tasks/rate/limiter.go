package rate

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type RateLimit struct {
	Window      time.Duration // e.g., 15 minutes
	MaxAttempts int           // max attempts per window
}

type Config struct {
	Name      string
	RateLimit RateLimit
}

// SlidingWindowLimiter counts attempts per identifier in a Redis sorted set.
type SlidingWindowLimiter struct {
	redis  *redis.Client
	config Config
}

func NewSlidingWindowLimiter(redis *redis.Client, config Config) *SlidingWindowLimiter {
	return &SlidingWindowLimiter{
		redis:  redis,
		config: config,
	}
}

func (l *SlidingWindowLimiter) key(identifier string) string {
	return fmt.Sprintf("rate_limit:%s:%s", l.config.Name, identifier)
}

// Allow records an attempt and reports whether it is within the limit.
func (l *SlidingWindowLimiter) Allow(ctx context.Context, identifier string) (bool, error) {
	key := l.key(identifier)

	pipe := l.redis.Pipeline()
	now := time.Now()
	windowStart := now.Add(-l.config.RateLimit.Window).UnixMilli()

	// Remove old entries
	pipe.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(windowStart, 10))

	// Count current window
	pipe.ZCard(ctx, key)

	// Add new entry
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(now.UnixMilli()), Member: uuid.NewString()})

	// Set expiration
	pipe.Expire(ctx, key, l.config.RateLimit.Window*2)

	results, err := pipe.Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("redis pipeline error: %w", err)
	}

	count := results[1].(*redis.IntCmd).Val()
	return count < int64(l.config.RateLimit.MaxAttempts), nil
}

// Reset forgets every attempt of identifier, e.g. after a successful login.
func (l *SlidingWindowLimiter) Reset(ctx context.Context, identifier string) error {
	return l.redis.Del(ctx, l.key(identifier)).Err()
}
