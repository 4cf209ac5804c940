// Package dto defines the request shapes of /charts and /ws/charts.
package dto

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"stock_chart/internal/feature/chart/domain/entity"
	"stock_chart/internal/feature/chart/usecase"
)

// ErrBadLookbacks is returned for an unparsable moving-average list.
var ErrBadLookbacks = errors.New("invalid moving average list")

// ChartQuery は GET /charts/:kind/:symbol のクエリです。
type ChartQuery struct {
	Preset         string  `form:"preset"`
	MA             *string `form:"-"` // 未指定なら既定の移動平均、空文字なら移動平均なし
	VolumeLookback int     `form:"volume_lookback" binding:"gte=0"`
}

// StreamRequest は /ws/charts でクライアントが送るメッセージです。
type StreamRequest struct {
	Kind           string `json:"kind"`
	Symbol         string `json:"symbol"`
	Preset         string `json:"preset"`
	MA             []int  `json:"ma"`
	VolumeLookback int    `json:"volume_lookback"`
}

// ParseLookbacks は "20,50,200" 形式を解釈します。空文字は空のリストです。
func ParseLookbacks(s string) ([]int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return []int{}, nil
	}
	parts := strings.Split(s, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrBadLookbacks, s)
		}
		out = append(out, n)
	}
	return out, nil
}

// PlanRequest は銘柄コードを大文字に正規化して PlanRequest を組み立てます。
func (q ChartQuery) PlanRequest(kind, symbol string) (usecase.PlanRequest, error) {
	req := usecase.PlanRequest{
		Kind:           entity.SeriesKind(kind),
		Symbol:         normalizeSymbol(symbol),
		Preset:         usecase.Preset(q.Preset),
		VolumeLookback: q.VolumeLookback,
	}
	if q.MA != nil {
		lookbacks, err := ParseLookbacks(*q.MA)
		if err != nil {
			return usecase.PlanRequest{}, err
		}
		req.MovingAverages = usecase.SpecsFor(lookbacks)
	}
	return req, nil
}

// PlanRequest converts the message. A nil MA keeps the default moving averages.
func (r StreamRequest) PlanRequest() (usecase.PlanRequest, error) {
	symbol := normalizeSymbol(r.Symbol)
	if symbol == "" {
		return usecase.PlanRequest{}, errors.New("symbol is required")
	}
	if r.VolumeLookback < 0 {
		return usecase.PlanRequest{}, errors.New("volume_lookback must be >= 0")
	}
	req := usecase.PlanRequest{
		Kind:           entity.SeriesKind(r.Kind),
		Symbol:         symbol,
		Preset:         usecase.Preset(r.Preset),
		VolumeLookback: r.VolumeLookback,
	}
	if req.Kind == "" {
		req.Kind = entity.KindCandlestick
	}
	if r.MA != nil {
		req.MovingAverages = usecase.SpecsFor(r.MA)
	}
	return req, nil
}

func normalizeSymbol(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
