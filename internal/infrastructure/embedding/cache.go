package embedding

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/gdugdh24/mpit2026-matching/internal/infrastructure/metrics"
	"github.com/gdugdh24/mpit2026-matching/internal/vecmath"
)

// Cache stores vectors by content key. Implementations swallow their own
// failures; a miss is always a safe answer.
type Cache interface {
	Get(ctx context.Context, key string) ([]float32, bool)
	Set(ctx context.Context, key string, vec []float32)
}

// LRUCache is an in-process bounded cache.
type LRUCache struct {
	cache *lru.Cache[string, []float32]
}

func NewLRUCache(size int) (*LRUCache, error) {
	if size <= 0 {
		size = 10000
	}
	c, err := lru.New[string, []float32](size)
	if err != nil {
		return nil, err
	}
	return &LRUCache{cache: c}, nil
}

func (c *LRUCache) Get(_ context.Context, key string) ([]float32, bool) {
	return c.cache.Get(key)
}

func (c *LRUCache) Set(_ context.Context, key string, vec []float32) {
	c.cache.Add(key, vec)
}

func (c *LRUCache) Len() int {
	return c.cache.Len()
}

// RedisCache shares vectors across service instances.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
	logger *zap.Logger
}

func NewRedisCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisCache{client: client, ttl: ttl, prefix: "emb:", logger: logger}
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]float32, bool) {
	raw, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("embedding cache read failed", zap.Error(err))
		}
		return nil, false
	}
	vec, err := vecmath.DecodeEmbedding(raw)
	if err != nil || len(vec) == 0 {
		c.logger.Warn("embedding cache entry corrupt", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return vec, true
}

func (c *RedisCache) Set(ctx context.Context, key string, vec []float32) {
	if err := c.client.Set(ctx, c.prefix+key, vecmath.EncodeEmbedding(vec), c.ttl).Err(); err != nil {
		c.logger.Warn("embedding cache write failed", zap.Error(err))
	}
}

// Tier names one level of a TieredCache for metrics.
type Tier struct {
	Name  string
	Cache Cache
}

// TieredCache checks tiers in order and backfills faster tiers on a hit.
type TieredCache struct {
	tiers   []Tier
	metrics *metrics.Metrics
}

func NewTieredCache(m *metrics.Metrics, tiers ...Tier) *TieredCache {
	return &TieredCache{tiers: tiers, metrics: m}
}

func (c *TieredCache) Get(ctx context.Context, key string) ([]float32, bool) {
	for i, t := range c.tiers {
		vec, ok := t.Cache.Get(ctx, key)
		if !ok {
			continue
		}
		for _, faster := range c.tiers[:i] {
			faster.Cache.Set(ctx, key, vec)
		}
		c.metrics.ObserveCacheHit(t.Name, 1)
		return vec, true
	}
	return nil, false
}

func (c *TieredCache) Set(ctx context.Context, key string, vec []float32) {
	for _, t := range c.tiers {
		t.Cache.Set(ctx, key, vec)
	}
}
