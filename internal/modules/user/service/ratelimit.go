package service

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// checkAndSetRateLimit allows one action per window per key. A nil redis
// client disables limiting.
func checkAndSetRateLimit(ctx context.Context, rdb *redis.Client, key, action string, window time.Duration) (bool, error) {
	if rdb == nil {
		return true, nil
	}

	redisKey := fmt.Sprintf("rate_limit:%s:%s", action, key)

	wasSet, err := rdb.SetNX(ctx, redisKey, "locked", window).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check rate limit in redis: %w", err)
	}

	return wasSet, nil
}
