package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseIfOwner deletes the key only when it still holds our token, so an
// expired guard re-acquired by another request is left alone.
var releaseIfOwner = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
  return redis.call('DEL', KEYS[1])
end
return 0
`)

// RedisGuard admits one in-flight submission per key across all instances.
// Entries expire after ttl so a crashed holder cannot block the key forever.
type RedisGuard struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisGuard creates a guard. ttl must exceed the slowest expected submission.
func NewRedisGuard(client *redis.Client, ttl time.Duration) *RedisGuard {
	return &RedisGuard{client: client, ttl: ttl}
}

// TryAcquire claims key. ok is false when another submission holds it.
func (g *RedisGuard) TryAcquire(ctx context.Context, key string) (func(), bool, error) {
	redisKey := "dineout:inflight:" + key
	token := uuid.NewString()

	ok, err := g.client.SetNX(ctx, redisKey, token, g.ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("acquire guard %s: %w", key, err)
	}
	if !ok {
		return nil, false, nil
	}

	release := func() {
		// The request context may already be cancelled.
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = releaseIfOwner.Run(ctx, g.client, []string{redisKey}, token).Err()
	}
	return release, true, nil
}
