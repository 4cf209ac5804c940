// Package handler はchartフィーチャーのHTTP・WebSocketハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"stock_chart/internal/api"
	"stock_chart/internal/feature/chart/domain"
	"stock_chart/internal/feature/chart/domain/entity"
	"stock_chart/internal/feature/chart/indicator"
	"stock_chart/internal/feature/chart/transport/http/dto"
	"stock_chart/internal/feature/chart/usecase"
)

// PlanBuilder は描画プランを組み立てるユースケースです。
type PlanBuilder interface {
	BuildPlan(ctx context.Context, req usecase.PlanRequest) (entity.RenderPlan, error)
}

// ChartHandler は描画プランのHTTPリクエストを処理します。
type ChartHandler struct {
	builder PlanBuilder
}

// NewChartHandler は ChartHandler を生成します。
func NewChartHandler(builder PlanBuilder) *ChartHandler {
	return &ChartHandler{builder: builder}
}

// Get は描画プランをJSONで返します。
//
// エンドポイント例:
// GET /charts/candlestick/AAPL?preset=index&ma=20,50,200&volume_lookback=20
//
// 主系列が空の場合は {"panes": []} を返します。
func (h *ChartHandler) Get(c *gin.Context) {
	var q dto.ChartQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}
	if ma, ok := c.GetQuery("ma"); ok {
		q.MA = &ma
	}

	req, err := q.PlanRequest(c.Param("kind"), c.Param("symbol"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	plan, err := h.builder.BuildPlan(c.Request.Context(), req)
	if err != nil {
		c.JSON(StatusFor(err), api.ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, plan)
}

// StatusFor はユースケースのエラーをHTTPステータスに対応付けます。
func StatusFor(err error) int {
	switch {
	case errors.Is(err, usecase.ErrUnknownKind),
		errors.Is(err, usecase.ErrUnknownPreset),
		errors.Is(err, indicator.ErrInvalidLookback),
		errors.Is(err, dto.ErrBadLookbacks):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrFetchFailed):
		return http.StatusBadGateway
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
