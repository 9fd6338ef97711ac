package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mmynk/dineout/internal/models"
)

// Connect initializes a Redis client from URL or host:port input.
func Connect(ctx context.Context, redisURL string) (*redis.Client, error) {
	var client *redis.Client
	if strings.HasPrefix(redisURL, "redis://") || strings.HasPrefix(redisURL, "rediss://") {
		opt, parseErr := redis.ParseURL(redisURL)
		if parseErr != nil {
			return nil, fmt.Errorf("parse redis url: %w", parseErr)
		}
		client = redis.NewClient(opt)
	} else {
		client = redis.NewClient(&redis.Options{Addr: redisURL})
	}
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// putIfNewer writes the record unless the cached version is newer.
// KEYS[1] = hash key, ARGV = version, payload, ttl millis.
var putIfNewer = redis.NewScript(`
local cur = redis.call('HGET', KEYS[1], 'version')
if cur and tonumber(cur) > tonumber(ARGV[1]) then
  return 0
end
redis.call('HSET', KEYS[1], 'version', ARGV[1], 'data', ARGV[2])
if tonumber(ARGV[3]) > 0 then
  redis.call('PEXPIRE', KEYS[1], ARGV[3])
end
return 1
`)

// Redis is a RestaurantCache shared by every server instance.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis creates a Redis-backed cache. ttl <= 0 keeps entries until evicted.
func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

func restaurantKey(id string) string {
	return "dineout:restaurant:" + id
}

func (c *Redis) Get(ctx context.Context, id string) (*models.Restaurant, bool, error) {
	data, err := c.client.HGet(ctx, restaurantKey(id), "data").Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", id, err)
	}
	var r models.Restaurant
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, false, fmt.Errorf("decode cached restaurant %s: %w", id, err)
	}
	return &r, true, nil
}

func (c *Redis) Put(ctx context.Context, r *models.Restaurant) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode restaurant %s: %w", r.ID, err)
	}
	err = putIfNewer.Run(ctx, c.client,
		[]string{restaurantKey(r.ID)},
		r.Version, data, c.ttl.Milliseconds(),
	).Err()
	if err != nil {
		return fmt.Errorf("redis put %s: %w", r.ID, err)
	}
	return nil
}

func (c *Redis) Delete(ctx context.Context, id string) error {
	return c.client.Del(ctx, restaurantKey(id)).Err()
}
