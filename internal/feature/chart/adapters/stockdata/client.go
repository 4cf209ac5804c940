// Package stockdata は /stockdata/{kind}/{symbol} を提供するDataSourceのHTTPクライアントです。
package stockdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"stock_chart/internal/feature/chart/domain"
	"stock_chart/internal/feature/chart/domain/entity"
	"stock_chart/internal/feature/chart/usecase"
)

// Config はDataSourceクライアントの設定です。Interval と OutputSize は空なら送信しません。
type Config struct {
	BaseURL    string        `yaml:"base_url" default:"http://localhost:8080" validate:"required,url"`
	Timeout    time.Duration `yaml:"timeout" default:"10s"`
	Interval   string        `yaml:"interval"`
	OutputSize int           `yaml:"outputsize" validate:"gte=0"`
}

// Metrics は1回の取得の所要時間と成否を受け取ります。
type Metrics interface {
	FetchObserved(kind string, d time.Duration, err error)
}

type noopMetrics struct{}

func (noopMetrics) FetchObserved(string, time.Duration, error) {}

// Client fetches raw series from a DataSource over HTTP.
type Client struct {
	cfg     Config
	client  *http.Client
	metrics Metrics
	logger  *zap.Logger
}

var _ usecase.DataSource = (*Client)(nil)

// NewClient は Client を生成します。metrics と logger は nil でも構いません。
func NewClient(cfg Config, client *http.Client, metrics Metrics, logger *zap.Logger) *Client {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Client{cfg: cfg, client: client, metrics: metrics, logger: logger}
}

// Fetch は GET {base}/stockdata/{kind}/{symbol} を呼び、時系列を返します。
// 2xx 以外の応答、通信エラー、デコード失敗はすべて *domain.FetchError になります。
func (c *Client) Fetch(ctx context.Context, kind, symbol string) (entity.TimeSeries, error) {
	start := time.Now()
	series, err := c.fetch(ctx, kind, symbol)
	c.metrics.FetchObserved(kind, time.Since(start), err)
	if err != nil {
		c.logger.Debug("datasource fetch failed",
			zap.String("kind", kind),
			zap.String("symbol", symbol),
			zap.Error(err),
		)
	}
	return series, err
}

func (c *Client) fetch(ctx context.Context, kind, symbol string) (entity.TimeSeries, error) {
	fail := func(status int, err error) error {
		return &domain.FetchError{Kind: kind, Symbol: symbol, StatusCode: status, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url(kind, symbol), nil)
	if err != nil {
		return nil, fail(0, err)
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.client.Do(req)
	if err != nil {
		return nil, fail(0, err)
	}
	defer func() {
		if err := res.Body.Close(); err != nil {
			c.logger.Warn("failed to close response body", zap.Error(err))
		}
	}()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		// 本文は読み捨てて接続を再利用する
		_, _ = io.Copy(io.Discard, io.LimitReader(res.Body, 4<<10))
		return nil, fail(res.StatusCode, fmt.Errorf("unexpected status %s", res.Status))
	}

	var series entity.TimeSeries
	if err := json.NewDecoder(res.Body).Decode(&series); err != nil {
		return nil, fail(0, fmt.Errorf("decode: %w", err))
	}
	if series == nil {
		series = entity.TimeSeries{}
	}
	return series, nil
}

func (c *Client) url(kind, symbol string) string {
	u := fmt.Sprintf("%s/stockdata/%s/%s", c.cfg.BaseURL, url.PathEscape(kind), url.PathEscape(symbol))
	q := url.Values{}
	if c.cfg.Interval != "" {
		q.Set("interval", c.cfg.Interval)
	}
	if c.cfg.OutputSize > 0 {
		q.Set("outputsize", strconv.Itoa(c.cfg.OutputSize))
	}
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	return u
}
