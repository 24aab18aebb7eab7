// Package redis caches index query results in Redis.
package redis

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sbomma1973/learnsearch"
	"golang.org/x/sync/singleflight"
)

const (
	keyPrefix     = "learnsearch:query:"
	generationKey = "learnsearch:generation"
)

// Client is the subset of the go-redis client used by the cache.
// *redis.Client satisfies it.
type Client interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Incr(ctx context.Context, key string) *redis.IntCmd
}

var _ learnsearch.IndexClient = (*CachingIndex)(nil)

// CachingIndex serves repeated queries from Redis. Every successful Upsert
// bumps a generation counter that is part of each cache key, so cached
// results never outlive a re-ingest.
//
// Redis failures are logged and the query falls through to the wrapped
// index. Index errors are never cached.
type CachingIndex struct {
	next   learnsearch.IndexClient
	client Client
	ttl    time.Duration
	group  singleflight.Group
	logger *slog.Logger
}

// NewCachingIndex wraps next with a query cache stored in client.
func NewCachingIndex(next learnsearch.IndexClient, client Client, ttl time.Duration) *CachingIndex {
	if ttl <= 0 {
		ttl = learnsearch.DefaultCacheTTL
	}
	return &CachingIndex{
		next:   next,
		client: client,
		ttl:    ttl,
		logger: slog.Default().With("component", "query-cache"),
	}
}

// NewClient opens a go-redis client for cfg.
func NewClient(cfg learnsearch.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// Upsert delegates to the wrapped index and invalidates cached queries.
func (c *CachingIndex) Upsert(ctx context.Context, records []learnsearch.IndexedRecord) error {
	if err := c.next.Upsert(ctx, records); err != nil {
		return err
	}
	if err := c.client.Incr(ctx, generationKey).Err(); err != nil {
		c.logger.Error("cache invalidate failed", "err", err)
	}
	return nil
}

// Query returns cached hits when present, otherwise queries the wrapped
// index and caches the result. Concurrent identical misses share one call.
func (c *CachingIndex) Query(ctx context.Context, text string, limit int) ([]learnsearch.Hit, error) {
	key := c.buildKey(ctx, text, limit)
	if hits, ok := c.get(ctx, key); ok {
		return hits, nil
	}

	val, err, _ := c.group.Do(key, func() (any, error) {
		if hits, ok := c.get(ctx, key); ok {
			return hits, nil
		}
		hits, err := c.next.Query(ctx, text, limit)
		if err != nil {
			return nil, err
		}
		c.set(ctx, key, hits)
		return hits, nil
	})
	if err != nil {
		return nil, err
	}
	return val.([]learnsearch.Hit), nil
}

func (c *CachingIndex) get(ctx context.Context, key string) ([]learnsearch.Hit, bool) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Error("cache get failed", "key", key, "err", err)
		}
		return nil, false
	}
	var hits []learnsearch.Hit
	if err := json.Unmarshal(data, &hits); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "err", err)
		return nil, false
	}
	c.logger.Debug("cache hit", "key", key)
	return hits, true
}

func (c *CachingIndex) set(ctx context.Context, key string, hits []learnsearch.Hit) {
	data, err := json.Marshal(hits)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "err", err)
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Error("cache set failed", "key", key, "err", err)
	}
}

func (c *CachingIndex) generation(ctx context.Context) string {
	gen, err := c.client.Get(ctx, generationKey).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Error("cache generation read failed", "err", err)
		}
		return "0"
	}
	return gen
}

func (c *CachingIndex) buildKey(ctx context.Context, text string, limit int) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(text)), " ")
	raw := fmt.Sprintf("%s|limit=%d|gen=%s", normalized, limit, c.generation(ctx))
	hash := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("%s%x", keyPrefix, hash[:16])
}
