package cache

import (
	"context"
	"errors"

	"github.com/emailbuilder/emailbuilder/internal/builder"
	"github.com/emailbuilder/emailbuilder/internal/logger"
	"github.com/emailbuilder/emailbuilder/internal/model"
)

// CachedStore is a read-through builder.TemplateFinder. Cache failures are
// logged and never fail a lookup.
type CachedStore struct {
	next  builder.TemplateFinder
	cache TemplateCache
	log   *logger.Logger
}

// NewCachedStore wraps next with cache
func NewCachedStore(next builder.TemplateFinder, cache TemplateCache, log *logger.Logger) *CachedStore {
	return &CachedStore{
		next:  next,
		cache: cache,
		log:   log.WithComponent("template_cache"),
	}
}

// GetByKey serves from cache when possible and fills it on a miss
func (s *CachedStore) GetByKey(ctx context.Context, key string) (*model.EmailTemplate, error) {
	t, err := s.cache.Get(ctx, key)
	if err == nil {
		return t, nil
	}
	if !errors.Is(err, ErrMiss) {
		s.log.Warn().Err(err).Str("template_key", key).Msg("template cache read failed")
	}

	t, err = s.next.GetByKey(ctx, key)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, t); err != nil {
		s.log.Warn().Err(err).Str("template_key", key).Msg("template cache write failed")
	}
	return t, nil
}
