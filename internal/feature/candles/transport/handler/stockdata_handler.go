// Package handler はcandlesフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"stock_chart/internal/api"
	"stock_chart/internal/feature/candles/domain/entity"
	"stock_chart/internal/feature/candles/transport/http/dto"
	"stock_chart/internal/feature/candles/usecase"
)

// StockDataUsecase は /stockdata のユースケースインターフェースを定義します。
// Goの慣例に従い、インターフェースは利用者（handler）側で定義します。
type StockDataUsecase interface {
	GetCandles(ctx context.Context, symbol, interval string, outputsize int) ([]entity.Candle, error)
	Breadth(ctx context.Context, which, interval string, outputsize int) ([]entity.BreadthPoint, error)
}

// StockDataHandler は時系列データのHTTPリクエストを処理します。
type StockDataHandler struct {
	uc StockDataUsecase
}

// NewStockDataHandler は指定されたusecaseでStockDataHandlerの新しいインスタンスを生成します。
func NewStockDataHandler(uc StockDataUsecase) *StockDataHandler {
	return &StockDataHandler{uc: uc}
}

// Get は kind と銘柄コードを受け取り、時系列を時刻の昇順のJSON配列で返します。
//
// エンドポイント例:
// GET /stockdata/candlestick/AAPL?interval=1day&outputsize=200
// GET /stockdata/breadth/high52w
//
// 未知の kind は 400、データ取得の失敗は 502 を返します。
func (h *StockDataHandler) Get(c *gin.Context) {
	kind, err := usecase.ParseKind(c.Param("kind"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}
	symbol := c.Param("symbol")
	// 未指定の場合はデフォルト値を使用
	interval := c.DefaultQuery("interval", usecase.DefaultInterval)
	// 不正な値は 0 となり、usecase 側で既定値に置き換える
	outputsize, _ := strconv.Atoi(c.DefaultQuery("outputsize", strconv.Itoa(usecase.DefaultOutputSize)))

	ctx := c.Request.Context()

	if kind == usecase.KindBreadth {
		points, err := h.uc.Breadth(ctx, symbol, interval, outputsize)
		if err != nil {
			h.fail(c, err)
			return
		}
		out := make([]dto.BreadthResponse, 0, len(points))
		for _, p := range points {
			out = append(out, dto.BreadthResponse{Time: p.Time.UTC().Format(dto.DateLayout), Value: p.Percent})
		}
		c.JSON(http.StatusOK, out)
		return
	}

	candles, err := h.uc.GetCandles(ctx, symbol, interval, outputsize)
	if err != nil {
		h.fail(c, err)
		return
	}

	if kind == usecase.KindLine {
		out := make([]dto.LineResponse, 0, len(candles))
		for _, x := range candles {
			out = append(out, dto.LineResponse{Time: x.Time.UTC().Format(dto.DateLayout), Value: x.Close, Volume: x.Volume})
		}
		c.JSON(http.StatusOK, out)
		return
	}

	out := make([]dto.CandleResponse, 0, len(candles))
	for _, x := range candles {
		out = append(out, dto.CandleResponse{
			Time:   x.Time.UTC().Format(dto.DateLayout),
			Open:   x.Open,
			High:   x.High,
			Low:    x.Low,
			Close:  x.Close,
			Volume: x.Volume,
		})
	}
	c.JSON(http.StatusOK, out)
}

func (h *StockDataHandler) fail(c *gin.Context, err error) {
	status := http.StatusBadGateway
	if errors.Is(err, usecase.ErrUnknownBreadth) {
		status = http.StatusBadRequest
	}
	c.JSON(status, api.ErrorResponse{Error: err.Error()})
}
