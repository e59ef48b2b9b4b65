package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/emailbuilder/emailbuilder/internal/database"
	"github.com/emailbuilder/emailbuilder/internal/model"
)

const redisKeyPrefix = "email_template:"

// RedisCache stores templates as JSON in Redis
type RedisCache struct {
	rdb *database.Redis
	ttl time.Duration
}

// NewRedisCache creates a new RedisCache
func NewRedisCache(rdb *database.Redis, ttl time.Duration) *RedisCache {
	return &RedisCache{rdb: rdb, ttl: ttl}
}

// Get returns the cached template or ErrMiss
func (c *RedisCache) Get(ctx context.Context, key string) (*model.EmailTemplate, error) {
	raw, err := c.rdb.GetString(ctx, redisKeyPrefix+key)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrMiss
		}
		return nil, fmt.Errorf("failed to read cached template: %w", err)
	}

	var t model.EmailTemplate
	if err := json.Unmarshal([]byte(raw), &t); err != nil {
		return nil, fmt.Errorf("failed to decode cached template: %w", err)
	}
	return &t, nil
}

// Set stores a template under its key
func (c *RedisCache) Set(ctx context.Context, t *model.EmailTemplate) error {
	b, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("failed to encode template: %w", err)
	}
	if err := c.rdb.SetWithTTL(ctx, redisKeyPrefix+t.Key, b, c.ttl); err != nil {
		return fmt.Errorf("failed to cache template: %w", err)
	}
	return nil
}

// Invalidate drops a cached template
func (c *RedisCache) Invalidate(ctx context.Context, key string) error {
	return c.rdb.Delete(ctx, redisKeyPrefix+key)
}
