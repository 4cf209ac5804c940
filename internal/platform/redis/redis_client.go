// Package redis はキャッシュ用のRedisクライアントを生成します。
package redis

import (
	"context"
	"net"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Config はRedis接続の設定です。Host が空の場合はキャッシュを使いません。
type Config struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port" default:"6379"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	// CacheResetHour はキャッシュが一斉に失効する時刻（CacheTimezone の時）です。
	CacheResetHour int    `yaml:"cache_reset_hour" default:"8" validate:"gte=0,lte=23"`
	CacheTimezone  string `yaml:"cache_timezone" default:"Asia/Tokyo"`
}

// Enabled reports whether a Redis host is configured.
func (c Config) Enabled() bool {
	return c.Host != ""
}

// Addr returns host:port.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, c.Port)
}

// NewRedisClient は接続を確認したクライアントを返します。Host 未設定の場合は nil, nil を返します。
func NewRedisClient(ctx context.Context, cfg Config, logger *zap.Logger) (*redis.Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if !cfg.Enabled() {
		logger.Info("redis not configured, cache disabled")
		return nil, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// 接続確認
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Error("redis connection failed", zap.String("address", cfg.Addr()), zap.Error(err))
		_ = rdb.Close()
		return nil, err
	}

	logger.Info("redis connection successful", zap.String("address", cfg.Addr()))
	return rdb, nil
}
