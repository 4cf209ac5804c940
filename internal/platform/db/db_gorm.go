// Package db はgormの接続とマイグレーションを提供します。
package db

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	candleadapters "stock_chart/internal/feature/candles/adapters"
	symboladapters "stock_chart/internal/feature/symbollist/adapters"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config はデータベース接続の設定です。
type Config struct {
	Driver         string        `yaml:"driver" default:"sqlite" validate:"oneof=sqlite postgres"`
	DSN            string        `yaml:"dsn" default:"stock_chart.db" validate:"required"`
	AutoMigrate    bool          `yaml:"auto_migrate" default:"true"`
	ConnectTimeout time.Duration `yaml:"connect_timeout" default:"60s"`
	RetryInterval  time.Duration `yaml:"retry_interval" default:"3s"`
}

// Dialector はドライバ名に対応するgormのDialectorを返します。
func Dialector(cfg Config) (gorm.Dialector, error) {
	switch cfg.Driver {
	case DriverSQLite:
		return sqlite.Open(cfg.DSN), nil
	case DriverPostgres:
		return postgres.Open(cfg.DSN), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// ConnectWithRetry は open が成功するか timeout を過ぎるまで interval ごとに再試行します。
func ConnectWithRetry(ctx context.Context, timeout, interval time.Duration, open func() (*gorm.DB, error), logger *zap.Logger) (*gorm.DB, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	deadline := time.Now().Add(timeout)
	for attempt := 1; ; attempt++ {
		db, err := open()
		if err == nil {
			return db, nil
		}
		if time.Now().Add(interval).After(deadline) {
			return nil, fmt.Errorf("db connect failed after %d attempts: %w", attempt, err)
		}
		logger.Warn("db connect failed, retrying", zap.Int("attempt", attempt), zap.Error(err))

		t := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, ctx.Err()
		case <-t.C:
		}
	}
}

// Open は設定に従って接続し、AutoMigrate が有効ならテーブルを作成します。
func Open(ctx context.Context, cfg Config, logger *zap.Logger) (*gorm.DB, error) {
	dialector, err := Dialector(cfg)
	if err != nil {
		return nil, err
	}
	db, err := ConnectWithRetry(ctx, cfg.ConnectTimeout, cfg.RetryInterval, func() (*gorm.DB, error) {
		return gorm.Open(dialector, &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Warn)})
	}, logger)
	if err != nil {
		return nil, err
	}
	if cfg.AutoMigrate {
		if err := Migrate(db); err != nil {
			return nil, err
		}
	}
	return db, nil
}

// Migrate creates or updates the candles and symbols tables.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&candleadapters.CandleModel{}, &symboladapters.SymbolModel{}); err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}
	return nil
}
