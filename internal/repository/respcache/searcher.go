// Package respcache caches backend search responses in a key-value store.
package respcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/modelsearch/internal/db"
	"github.com/kailas-cloud/modelsearch/internal/domain/item"
)

// DefaultKeyPrefix namespaces cache keys when no prefix is configured.
const DefaultKeyPrefix = "modelsearch:"

// Searcher is the decorated backend.
type Searcher interface {
	Search(ctx context.Context, query string, topK int) ([]item.Item, error)
}

// store is the consumer interface for the response cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

// CachedSearcher serves repeated (query, top_k) pairs from the store.
// Only successful responses are cached; store faults degrade to the backend.
type CachedSearcher struct {
	inner      Searcher
	store      store
	ttl        time.Duration
	prefix     string
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates a caching decorator.
// cacheTotal is a counter vec with label "result" ("hit"/"miss"), passed explicitly.
func New(
	inner Searcher,
	s store,
	ttl time.Duration,
	prefix string,
	cacheTotal *prometheus.CounterVec,
	logger *zap.Logger,
) *CachedSearcher {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &CachedSearcher{
		inner:      inner,
		store:      s,
		ttl:        ttl,
		prefix:     prefix,
		cacheTotal: cacheTotal,
		logger:     logger,
	}
}

// Search returns cached candidates or calls the backend and caches its answer.
func (c *CachedSearcher) Search(ctx context.Context, query string, topK int) ([]item.Item, error) {
	key := c.cacheKey(query, topK)

	if items, ok := c.getFromCache(ctx, key); ok {
		c.incCache("hit")
		return items, nil
	}

	c.incCache("miss")

	items, err := c.inner.Search(ctx, query, topK)
	if err != nil {
		return nil, err //nolint:wrapcheck // transparent decorator, callers see backend errors as-is
	}

	c.putToCache(ctx, key, items)
	return items, nil
}

func (c *CachedSearcher) incCache(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}

func (c *CachedSearcher) cacheKey(query string, topK int) string {
	h := sha256.New()
	_, _ = h.Write([]byte(query))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(strconv.Itoa(topK)))
	return c.prefix + "resp:" + hex.EncodeToString(h.Sum(nil))
}

func (c *CachedSearcher) getFromCache(ctx context.Context, key string) ([]item.Item, bool) {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Failed to get cached response", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	if len(data) == 0 {
		return nil, false
	}

	items, err := decodeItems(data)
	if err != nil {
		c.logger.Warn("Failed to parse cached response", zap.String("key", key), zap.Error(err))
		if err := c.store.Del(ctx, key); err != nil {
			c.logger.Warn("Failed to drop corrupt cache entry", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	return items, true
}

func (c *CachedSearcher) putToCache(ctx context.Context, key string, items []item.Item) {
	data, err := encodeItems(items)
	if err != nil {
		c.logger.Warn("Failed to encode response for cache", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.store.SetWithTTL(ctx, key, data, c.ttl); err != nil {
		c.logger.Warn("Failed to cache response", zap.String("key", key), zap.Error(err))
	}
}
