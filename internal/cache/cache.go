// Package cache keeps recently loaded templates close to the renderer.
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/emailbuilder/emailbuilder/internal/config"
	"github.com/emailbuilder/emailbuilder/internal/database"
	"github.com/emailbuilder/emailbuilder/internal/model"
)

// ErrMiss is returned by Get when the key is not cached
var ErrMiss = errors.New("cache miss")

// TemplateCache stores templates by normalized key
type TemplateCache interface {
	Get(ctx context.Context, key string) (*model.EmailTemplate, error)
	Set(ctx context.Context, t *model.EmailTemplate) error
	Invalidate(ctx context.Context, key string) error
}

// New picks a cache implementation from config. It returns nil when
// caching is disabled.
func New(cfg config.TemplateCacheConfig, rdb *database.Redis) TemplateCache {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	switch cfg.Driver {
	case "redis":
		if rdb == nil {
			return nil
		}
		return NewRedisCache(rdb, ttl)
	case "memory":
		return NewMemoryCache(ttl)
	default:
		return nil
	}
}
