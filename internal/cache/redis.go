package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache fronts the expensive cross-season aggregations
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache creates a new Redis cache connection
func NewRedisCache(redisURL string, ttl time.Duration) (*RedisCache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opt)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &RedisCache{client: client, ttl: ttl}, nil
}

// Close closes the Redis connection
func (rc *RedisCache) Close() error {
	return rc.client.Close()
}

// Client returns the underlying Redis client
func (rc *RedisCache) Client() *redis.Client {
	return rc.client
}

// HealthCheck pings Redis to verify connection
func (rc *RedisCache) HealthCheck(ctx context.Context) error {
	return rc.client.Ping(ctx).Err()
}

// Set stores a serialized payload under key with the configured TTL
func (rc *RedisCache) Set(ctx context.Context, key string, value []byte) error {
	return rc.client.Set(ctx, key, value, rc.ttl).Err()
}

// Get retrieves a cached payload. A cache miss returns redis.Nil.
func (rc *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	return rc.client.Get(ctx, key).Bytes()
}

// Invalidate removes every key under a franchise prefix. Called after a
// sync run so readers never see stale aggregates.
func (rc *RedisCache) Invalidate(ctx context.Context, slug string) error {
	iter := rc.client.Scan(ctx, 0, "dynasty:"+slug+":*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return rc.client.Del(ctx, keys...).Err()
}

// IsMiss reports whether err is a cache miss rather than a real failure
func IsMiss(err error) bool {
	return err == redis.Nil
}

// Key builds a cache key from the franchise slug and view parts
func Key(slug string, parts ...string) string {
	key := "dynasty:" + slug
	for _, p := range parts {
		key += ":" + p
	}
	return key
}
