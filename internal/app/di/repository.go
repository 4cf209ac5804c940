package di

import (
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	candleadapters "stock_chart/internal/feature/candles/adapters"
	candleusecase "stock_chart/internal/feature/candles/usecase"
	"stock_chart/internal/platform/cache"
	infraredis "stock_chart/internal/platform/redis"
)

// NewCandleRepository はDBのローソク足リポジトリをRedisキャッシュでラップして返します。
// rdb が nil の場合キャッシュは素通しになります。
func NewCandleRepository(db *gorm.DB, rdb *redis.Client, cfg infraredis.Config, metrics cache.Metrics, logger *zap.Logger) (candleusecase.CandleRepository, error) {
	loc, err := time.LoadLocation(cfg.CacheTimezone)
	if err != nil {
		return nil, fmt.Errorf("cache timezone %q: %w", cfg.CacheTimezone, err)
	}
	return cache.NewCachingCandleRepository(rdb, candleadapters.NewCandleRepository(db), cache.Options{
		Namespace: "candles",
		TTL:       cache.DailyTTL(cfg.CacheResetHour, loc),
		Logger:    logger,
		Metrics:   metrics,
	}), nil
}
