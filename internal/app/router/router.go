// Package router はアプリケーションのHTTPルーティングを組み立てます。
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	candlehandler "stock_chart/internal/feature/candles/transport/handler"
	charthandler "stock_chart/internal/feature/chart/transport/handler"
	symbollisthandler "stock_chart/internal/feature/symbollist/transport/handler"
	platformhandler "stock_chart/internal/platform/http/handler"
	"stock_chart/internal/platform/http/middleware"
	jwtmw "stock_chart/internal/platform/jwt"
)

// Handlers はルーターに登録するハンドラー群です。
type Handlers struct {
	Health    *platformhandler.HealthHandler
	StockData *candlehandler.StockDataHandler
	Symbols   *symbollisthandler.SymbolHandler
	Chart     *charthandler.ChartHandler
	Stream    *charthandler.StreamHandler
}

// Options はルーター全体の設定です。
type Options struct {
	// JWTSecret が空なら /charts と /ws/charts を認証なしで公開します。
	JWTSecret string
	// Observer が nil ならリクエストを計測しません。
	Observer middleware.RequestObserver
	// MetricsHandler が nil なら /metrics を公開しません。
	MetricsHandler http.Handler
	Logger         *zap.Logger
}

// NewRouter は各エンドポイントを登録した gin.Engine を返します。
func NewRouter(h Handlers, opts Options) *gin.Engine {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(opts.Logger))
	if opts.Observer != nil {
		r.Use(middleware.Metrics(opts.Observer))
	}

	// 認証不要
	// 導通確認用
	r.GET("/healthz", h.Health.Health)
	r.HEAD("/healthz", h.Health.Health)
	r.GET("/readyz", h.Health.Ready)
	if opts.MetricsHandler != nil {
		r.GET("/metrics", gin.WrapH(opts.MetricsHandler))
	}

	// 描画プランのデータ取得元。チャートのクライアントからトークンなしで呼ばれる
	r.GET("/stockdata/:kind/:symbol", h.StockData.Get)
	r.GET("/symbols", h.Symbols.List)

	charts := r.Group("/")
	if opts.JWTSecret != "" {
		// WebSocket はヘッダーを付けられないため ?access_token= も受け付ける
		charts.Use(jwtmw.AuthRequired(opts.JWTSecret))
	} else {
		opts.Logger.Warn("JWT secret is not set; chart endpoints are public")
	}
	{
		charts.GET("/charts/:kind/:symbol", h.Chart.Get)
		charts.GET("/ws/charts", h.Stream.Serve)
	}

	return r
}
