// Package middleware はginの共通ミドルウェアを提供します。
package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestObserver はリクエスト単位の計測を受け取ります。
type RequestObserver interface {
	HTTPRequest(route, method string, status int, d time.Duration)
}

// RequestLogger はリクエストごとに method・path・status・latency を1行記録します。
// 5xx は Error、4xx は Warn、それ以外は Info で出力します。
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		switch {
		case status >= 500:
			logger.Error("request", fields...)
		case status >= 400:
			logger.Warn("request", fields...)
		default:
			logger.Info("request", fields...)
		}
	}
}

// Metrics はルートテンプレート単位でリクエストを記録します。未登録ルートは "unmatched" にまとめます。
func Metrics(obs RequestObserver) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		obs.HTTPRequest(route, c.Request.Method, c.Writer.Status(), time.Since(start))
	}
}
