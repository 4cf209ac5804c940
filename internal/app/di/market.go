// Package di provides dependency injection factories for creating application components.
package di

import (
	"go.uber.org/zap"

	"stock_chart/internal/platform/externalapi/twelvedata"
	infrahttp "stock_chart/internal/platform/http"
)

// NewMarket creates a fully configured TwelveDataMarket with HTTP client.
func NewMarket(cfg twelvedata.Config, logger *zap.Logger) *twelvedata.TwelveDataMarket {
	httpClient := infrahttp.NewHTTPClient(cfg.Timeout)
	return twelvedata.NewTwelveDataMarket(cfg, httpClient, logger)
}
