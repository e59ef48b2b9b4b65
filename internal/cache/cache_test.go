package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/emailbuilder/emailbuilder/internal/config"
	"github.com/emailbuilder/emailbuilder/internal/logger"
	"github.com/emailbuilder/emailbuilder/internal/model"
	"github.com/emailbuilder/emailbuilder/internal/repository"
)

type mockFinder struct {
	mock.Mock
}

func (m *mockFinder) GetByKey(ctx context.Context, key string) (*model.EmailTemplate, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.EmailTemplate), args.Error(1)
}

type brokenCache struct{}

func (brokenCache) Get(ctx context.Context, key string) (*model.EmailTemplate, error) {
	return nil, errors.New("redis down")
}
func (brokenCache) Set(ctx context.Context, t *model.EmailTemplate) error {
	return errors.New("redis down")
}
func (brokenCache) Invalidate(ctx context.Context, key string) error { return nil }

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(time.Minute)

	_, err := c.Get(ctx, "welcome")
	assert.ErrorIs(t, err, ErrMiss)

	tmpl := &model.EmailTemplate{Key: "welcome", Subject: "Hi", Placeholders: []string{"name"}}
	require.NoError(t, c.Set(ctx, tmpl))

	got, err := c.Get(ctx, "welcome")
	require.NoError(t, err)
	assert.Equal(t, "Hi", got.Subject)

	got.Placeholders[0] = "mutated"
	again, _ := c.Get(ctx, "welcome")
	assert.Equal(t, []string{"name"}, again.Placeholders)

	require.NoError(t, c.Invalidate(ctx, "welcome"))
	_, err = c.Get(ctx, "welcome")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestCachedStore_ReadThrough(t *testing.T) {
	ctx := context.Background()
	finder := new(mockFinder)
	finder.On("GetByKey", mock.Anything, "welcome").Return(&model.EmailTemplate{Key: "welcome"}, nil).Once()

	s := NewCachedStore(finder, NewMemoryCache(time.Minute), logger.Nop())

	for i := 0; i < 3; i++ {
		got, err := s.GetByKey(ctx, "welcome")
		require.NoError(t, err)
		assert.Equal(t, "welcome", got.Key)
	}
	finder.AssertNumberOfCalls(t, "GetByKey", 1)
}

func TestCachedStore_NotFoundIsNotCached(t *testing.T) {
	ctx := context.Background()
	finder := new(mockFinder)
	finder.On("GetByKey", mock.Anything, "missing").Return(nil, repository.ErrNotFound)

	s := NewCachedStore(finder, NewMemoryCache(time.Minute), logger.Nop())

	_, err := s.GetByKey(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = s.GetByKey(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	finder.AssertNumberOfCalls(t, "GetByKey", 2)
}

func TestCachedStore_BrokenCacheFallsThrough(t *testing.T) {
	finder := new(mockFinder)
	finder.On("GetByKey", mock.Anything, "welcome").Return(&model.EmailTemplate{Key: "welcome"}, nil)

	s := NewCachedStore(finder, brokenCache{}, logger.Nop())
	got, err := s.GetByKey(context.Background(), "welcome")
	require.NoError(t, err)
	assert.Equal(t, "welcome", got.Key)
}

func TestNew(t *testing.T) {
	assert.Nil(t, New(config.TemplateCacheConfig{Driver: "none"}, nil))
	assert.Nil(t, New(config.TemplateCacheConfig{Driver: "redis"}, nil))
	assert.IsType(t, &MemoryCache{}, New(config.TemplateCacheConfig{Driver: "memory"}, nil))
}
