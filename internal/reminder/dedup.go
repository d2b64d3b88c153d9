package reminder

import (
	"context"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

// Deduper remembers which window-policy reminders were already sent, since
// that policy has no persisted sent flag.
type Deduper interface {
	// Claim reports true if key was not claimed within ttl and claims it.
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
	// Release drops a claim so a failed send can be retried.
	Release(ctx context.Context, key string) error
}

// MemoryDeduper is process-local; suitable for a single instance.
type MemoryDeduper struct {
	cache *cache.Cache
}

func NewMemoryDeduper() *MemoryDeduper {
	return &MemoryDeduper{cache: cache.New(30*time.Minute, 10*time.Minute)}
}

func (d *MemoryDeduper) Claim(_ context.Context, key string, ttl time.Duration) (bool, error) {
	// Add fails when an unexpired entry exists.
	return d.cache.Add(key, struct{}{}, ttl) == nil, nil
}

func (d *MemoryDeduper) Release(_ context.Context, key string) error {
	d.cache.Delete(key)
	return nil
}

// RedisDeduper shares claims across instances.
type RedisDeduper struct {
	client redis.UniversalClient
	prefix string
}

func NewRedisDeduper(client redis.UniversalClient, prefix string) *RedisDeduper {
	return &RedisDeduper{client: client, prefix: prefix}
}

func (d *RedisDeduper) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := d.client.SetNX(ctx, d.prefix+key, 1, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to claim %s: %w", key, err)
	}
	return ok, nil
}

func (d *RedisDeduper) Release(ctx context.Context, key string) error {
	if err := d.client.Del(ctx, d.prefix+key).Err(); err != nil {
		return fmt.Errorf("failed to release %s: %w", key, err)
	}
	return nil
}
