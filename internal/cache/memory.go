package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/emailbuilder/emailbuilder/internal/model"
)

// MemoryCache is a per-process template cache
type MemoryCache struct {
	c *gocache.Cache
}

// NewMemoryCache creates a new MemoryCache
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{c: gocache.New(ttl, time.Minute)}
}

// Get returns a copy of the cached template or ErrMiss
func (m *MemoryCache) Get(ctx context.Context, key string) (*model.EmailTemplate, error) {
	v, ok := m.c.Get(key)
	if !ok {
		return nil, ErrMiss
	}
	t, ok := v.(model.EmailTemplate)
	if !ok {
		return nil, ErrMiss
	}
	t.Placeholders = append([]string(nil), t.Placeholders...)
	return &t, nil
}

// Set stores a copy of t
func (m *MemoryCache) Set(ctx context.Context, t *model.EmailTemplate) error {
	cp := *t
	cp.Placeholders = append([]string(nil), t.Placeholders...)
	m.c.SetDefault(t.Key, cp)
	return nil
}

// Invalidate drops a cached template
func (m *MemoryCache) Invalidate(ctx context.Context, key string) error {
	m.c.Delete(key)
	return nil
}
