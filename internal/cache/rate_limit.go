package cache

import (
	"context"
	"fmt"
	"time"
)

// LoginAttempt counts a login try for the key inside the rolling
// window and reports whether the caller is now over the limit. With
// the cache disabled every attempt is allowed.
func LoginAttempt(ctx context.Context, key string, window time.Duration, max int) (bool, error) {
	if !Enabled() || max <= 0 {
		return true, nil
	}
	counterKey := BuildKey(fmt.Sprintf("ratelimit:login:%s", key))
	count, err := redisClient.Incr(ctx, counterKey).Result()
	if err != nil {
		return true, err
	}
	if count == 1 {
		if err := redisClient.Expire(ctx, counterKey, window).Err(); err != nil {
			return true, err
		}
	}
	return count <= int64(max), nil
}

// ClearLoginAttempts resets the counter after a successful login.
func ClearLoginAttempts(ctx context.Context, key string) error {
	if !Enabled() {
		return nil
	}
	return redisClient.Del(ctx, BuildKey(fmt.Sprintf("ratelimit:login:%s", key))).Err()
}
