// Package config はYAMLファイルと環境変数からアプリケーション設定を読み込みます。
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"stock_chart/internal/feature/chart/adapters/stockdata"
	charthandler "stock_chart/internal/feature/chart/transport/handler"
	chartusecase "stock_chart/internal/feature/chart/usecase"
	symbolentity "stock_chart/internal/feature/symbollist/domain/entity"
	"stock_chart/internal/platform/db"
	"stock_chart/internal/platform/externalapi/twelvedata"
	"stock_chart/internal/platform/logger"
	"stock_chart/internal/platform/redis"
)

// DefaultPath は CONFIG_PATH が未設定の場合に読むファイルです。
const DefaultPath = "configs/config.yaml"

// Config is the root configuration shared by cmd/server and cmd/ingest.
type Config struct {
	Server     Server            `yaml:"server"`
	Log        logger.Config     `yaml:"log"`
	StockData  stockdata.Config  `yaml:"stockdata"`
	TwelveData twelvedata.Config `yaml:"twelvedata"`
	Redis      redis.Config      `yaml:"redis"`
	Database   db.Config         `yaml:"database"`
	Auth       Auth              `yaml:"auth"`
	Ingest     Ingest            `yaml:"ingest"`
	Chart      Chart             `yaml:"chart"`
}

// Server はHTTPサーバーの設定です。
type Server struct {
	Addr            string        `yaml:"addr" default:":8080" validate:"required"`
	ReadTimeout     time.Duration `yaml:"read_timeout" default:"15s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
}

// Auth は /charts の認証設定です。JWTSecret が空なら認証なしで公開します。
type Auth struct {
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl" default:"1h"`
}

// Ingest は取り込みバッチの設定です。
type Ingest struct {
	Intervals  []string      `yaml:"intervals"`
	OutputSize int           `yaml:"outputsize" default:"300" validate:"gt=0"`
	RateLimit  int           `yaml:"rate_limit" default:"8" validate:"gt=0"`
	RateWindow time.Duration `yaml:"rate_window" default:"1m"`
	Timeout    time.Duration `yaml:"timeout" default:"30m"`
	// Schedule は -schedule 指定時の cron 式です。
	Schedule string `yaml:"schedule" default:"0 8 * * 1-5"`
	// MetricsAddr が空でなければ -schedule 実行中に /metrics を公開します。
	MetricsAddr string                `yaml:"metrics_addr"`
	Symbols     []symbolentity.Symbol `yaml:"symbols" validate:"dive"`
}

// Chart は描画プランの既定値です。
type Chart struct {
	// MovingAverages が未指定なら 20/50/200 を使います。
	MovingAverages []int  `yaml:"moving_averages" validate:"dive,gt=0"`
	VolumeLookback int    `yaml:"volume_lookback" default:"20" validate:"gt=0"`
	Title          string `yaml:"title"`
	// Colors の未指定の項目は既定色になります。
	Colors chartusecase.Colors       `yaml:"colors"`
	Stream charthandler.StreamConfig `yaml:"stream"`
}

// PlanConfig は描画ユースケースのベース設定を返します。
func (c Chart) PlanConfig() chartusecase.Config {
	cfg := chartusecase.DefaultConfig()
	cfg.Title = c.Title
	if c.MovingAverages != nil {
		cfg.MovingAverages = chartusecase.SpecsFor(c.MovingAverages)
	}
	if c.VolumeLookback > 0 {
		cfg.VolumeLookback = c.VolumeLookback
	}
	cfg.Colors = c.Colors
	return cfg
}

// Load は既定値、YAMLファイル、環境変数の順に設定を重ねて検証します。
// path が空なら CONFIG_PATH、それも空なら DefaultPath を読みます。ファイルが無い場合は既定値と環境変数のみを使います。
func Load(path string) (*Config, error) {
	var c Config
	// bool の既定値が YAML の false を上書きしないよう、先に既定値を入れる
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("set defaults: %w", err)
	}

	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		path = DefaultPath
	}
	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := c.applyEnv(); err != nil {
		return nil, err
	}
	if err := validator.New().Struct(&c); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

func (c *Config) applyEnv() error {
	setString(&c.Server.Addr, "HTTP_ADDR")
	setString(&c.Log.Level, "LOG_LEVEL")
	setString(&c.StockData.BaseURL, "STOCKDATA_BASE_URL")
	setString(&c.TwelveData.APIKey, "TWELVE_DATA_API_KEY")
	setString(&c.TwelveData.BaseURL, "TWELVE_DATA_BASE_URL")
	setString(&c.Redis.Host, "REDIS_HOST")
	setString(&c.Redis.Port, "REDIS_PORT")
	setString(&c.Redis.Password, "REDIS_PASSWORD")
	setString(&c.Database.Driver, "DB_DRIVER")
	setString(&c.Database.DSN, "DB_DSN")
	setString(&c.Auth.JWTSecret, "JWT_SECRET")

	if v := os.Getenv("REDIS_DB"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("REDIS_DB: %w", err)
		}
		c.Redis.DB = n
	}
	if v := os.Getenv("JWT_EXPIRATION_HOURS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("JWT_EXPIRATION_HOURS: %w", err)
		}
		c.Auth.TokenTTL = time.Duration(n) * time.Hour
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
