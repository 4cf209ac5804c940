// Package cache provides caching implementations for repository interfaces.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"stock_chart/internal/feature/candles/domain/entity"
	"stock_chart/internal/feature/candles/usecase"
)

// DefaultTTL is used when Options.TTL is nil.
const DefaultTTL = 5 * time.Minute

// Metrics はキャッシュのヒット・ミスを記録します。
type Metrics interface {
	CacheHit(namespace string)
	CacheMiss(namespace string)
}

type noopMetrics struct{}

func (noopMetrics) CacheHit(string)  {}
func (noopMetrics) CacheMiss(string) {}

// Options configures a CachingCandleRepository. Zero values fall back to defaults.
type Options struct {
	// Namespace はキーの接頭辞です（既定 "candles"）。
	Namespace string
	// TTL は Set のたびに呼ばれ、その時点の有効期間を返します。
	TTL     func() time.Duration
	Logger  *zap.Logger
	Metrics Metrics
}

// CachingCandleRepository decorates a CandleRepository with Redis caching.
// A nil redis client turns it into a pass-through.
type CachingCandleRepository struct {
	inner     usecase.CandleRepository
	rdb       *redis.Client
	ttl       func() time.Duration
	namespace string
	logger    *zap.Logger
	metrics   Metrics
}

var _ usecase.CandleRepository = (*CachingCandleRepository)(nil)

// NewCachingCandleRepository decorates inner with Redis caching.
func NewCachingCandleRepository(rdb *redis.Client, inner usecase.CandleRepository, opts Options) *CachingCandleRepository {
	if opts.Namespace == "" {
		opts.Namespace = "candles"
	}
	if opts.TTL == nil {
		opts.TTL = FixedTTL(DefaultTTL)
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Metrics == nil {
		opts.Metrics = noopMetrics{}
	}
	return &CachingCandleRepository{
		inner:     inner,
		rdb:       rdb,
		ttl:       opts.TTL,
		namespace: opts.Namespace,
		logger:    opts.Logger,
		metrics:   opts.Metrics,
	}
}

// UpsertBatch writes through to inner and then drops every cached query of the touched symbol+interval pairs.
func (c *CachingCandleRepository) UpsertBatch(ctx context.Context, candles []entity.Candle) error {
	if err := c.inner.UpsertBatch(ctx, candles); err != nil {
		return err
	}
	if c.rdb == nil || len(candles) == 0 {
		return nil
	}

	seen := map[string]struct{}{}
	for _, cd := range candles {
		prefix := c.cacheKeyPrefix(cd.Symbol, cd.Interval)
		if _, ok := seen[prefix]; ok {
			continue
		}
		seen[prefix] = struct{}{}
		// 失敗しても書き込み自体は成功しているので警告のみ
		if err := c.deleteByPattern(ctx, prefix+"*"); err != nil {
			c.logger.Warn("cache invalidation failed", zap.String("prefix", prefix), zap.Error(err))
		}
	}
	return nil
}

// Find returns cached candles when present, otherwise reads inner and stores the result.
func (c *CachingCandleRepository) Find(ctx context.Context, symbol, interval string, outputsize int) ([]entity.Candle, error) {
	if c.rdb == nil {
		return c.inner.Find(ctx, symbol, interval, outputsize)
	}

	key := c.cacheKey(symbol, interval, outputsize)

	if b, err := c.rdb.Get(ctx, key).Bytes(); err == nil && len(b) > 0 {
		var out []entity.Candle
		if err := json.Unmarshal(b, &out); err == nil {
			c.metrics.CacheHit(c.namespace)
			return out, nil
		}
		c.logger.Warn("dropping corrupted cache entry", zap.String("key", key))
		_ = c.rdb.Del(ctx, key).Err()
	}
	c.metrics.CacheMiss(c.namespace)

	out, err := c.inner.Find(ctx, symbol, interval, outputsize)
	if err != nil {
		return nil, err
	}

	if b, err := json.Marshal(out); err == nil {
		if err := c.rdb.Set(ctx, key, b, c.ttl()).Err(); err != nil {
			c.logger.Debug("cache set failed", zap.String("key", key), zap.Error(err))
		}
	}
	return out, nil
}

func (c *CachingCandleRepository) cacheKey(symbol, interval string, outputsize int) string {
	return fmt.Sprintf("%s:%s:%s:%d", c.namespace, safe(symbol), safe(interval), outputsize)
}

func (c *CachingCandleRepository) cacheKeyPrefix(symbol, interval string) string {
	return fmt.Sprintf("%s:%s:%s:", c.namespace, safe(symbol), safe(interval))
}

// deleteByPattern deletes all keys matching pattern using SCAN.
func (c *CachingCandleRepository) deleteByPattern(ctx context.Context, pattern string) error {
	var cursor uint64
	for {
		keys, cur, err := c.rdb.Scan(ctx, cursor, pattern, 200).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		cursor = cur
		if cursor == 0 {
			return nil
		}
	}
}

// safe escapes characters that are problematic for Redis keys.
func safe(s string) string {
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, ":", "_")
	return s
}
