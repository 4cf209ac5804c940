package di

import (
	"go.uber.org/zap"

	"stock_chart/internal/feature/chart/adapters/stockdata"
	chartusecase "stock_chart/internal/feature/chart/usecase"
	infrahttp "stock_chart/internal/platform/http"
	"stock_chart/internal/platform/metrics"
)

// NewPlanUsecase は /stockdata を取得元とする描画ユースケースを生成します。
func NewPlanUsecase(cfg stockdata.Config, base chartusecase.Config, recorder *metrics.Recorder, logger *zap.Logger) *chartusecase.PlanUsecase {
	source := stockdata.NewClient(cfg, infrahttp.NewHTTPClient(cfg.Timeout), recorder, logger)
	return chartusecase.NewPlanUsecase(source, base, recorder, logger)
}
