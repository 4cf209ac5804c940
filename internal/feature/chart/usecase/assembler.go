// Package usecase はチャート描画プランの組み立てと、取得・描画サイクルの管理を実装します。
package usecase

import (
	"errors"
	"fmt"
	"sort"

	"stock_chart/internal/feature/chart/domain/entity"
	"stock_chart/internal/feature/chart/indicator"
)

var (
	// ErrUnknownKind is returned for a primary series kind other than line or candlestick.
	ErrUnknownKind = errors.New("unknown series kind")
	// ErrUnknownPreset is returned for a preset other than stock or index.
	ErrUnknownPreset = errors.New("unknown preset")
)

const (
	pricePaneID  = 0
	volumePaneID = 1
)

// Assemble は主系列から描画プランを組み立てます。
//
// 価格ペインには主系列、続いて移動平均を lookback の昇順で並べます（重なり順・凡例順）。
// 出来高ヒストグラムとその移動平均は専用ペインの "volume" スケールに、
// オーバーレイはそれぞれ独立したペインとスケールに配置します。
// 主系列が空の場合はペインを持たない空のプランを返します。
func Assemble(primary entity.TimeSeries, kind entity.SeriesKind, cfg Config) (entity.RenderPlan, error) {
	if kind != entity.KindLine && kind != entity.KindCandlestick {
		return entity.RenderPlan{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	for _, spec := range cfg.MovingAverages {
		if spec.Lookback < 1 {
			return entity.RenderPlan{}, fmt.Errorf("moving average %d: %w", spec.Lookback, indicator.ErrInvalidLookback)
		}
	}
	if len(primary) == 0 {
		return entity.EmptyPlan(), nil
	}
	cfg = cfg.withDefaults()

	// (a) 主系列 + (b) 移動平均
	price := entity.Pane{Height: cfg.PriceHeight}
	price.Entries = append(price.Entries, primaryEntry(primary, kind, cfg))
	for _, spec := range sortedByLookback(cfg.MovingAverages) {
		ma, err := indicator.MovingAverage(primary, spec.Lookback)
		if err != nil {
			return entity.RenderPlan{}, err
		}
		price.Entries = append(price.Entries, entity.RenderPlanEntry{
			ScaleID:       PriceScaleID,
			Kind:          entity.KindLine,
			Title:         fmt.Sprintf("MA%d", spec.Lookback),
			Series:        ma,
			Style:         entity.Style{Color: spec.Color, LineWidth: 1},
			ShowLastValue: false,
			ShowPriceLine: false,
		})
	}

	// (c) 出来高
	vol, err := indicator.BuildVolumeSeries(primary, cfg.VolumeLookback, cfg.Colors.Volume)
	if err != nil {
		return entity.RenderPlan{}, err
	}
	volume := entity.Pane{
		Height: cfg.VolumeHeight,
		Entries: []entity.RenderPlanEntry{
			{
				ScaleID:       VolumeScaleID,
				Kind:          entity.KindHistogram,
				Title:         "Volume",
				Series:        vol.Histogram,
				Style:         entity.Style{PriceFormat: entity.FormatVolume},
				ShowLastValue: true,
				ShowPriceLine: true,
			},
			{
				ScaleID:       VolumeScaleID,
				Kind:          entity.KindLine,
				Title:         "Volume MA",
				Series:        vol.MovingAverage,
				Style:         entity.Style{Color: cfg.Colors.VolumeAverage, LineWidth: 1.5},
				ShowLastValue: false,
				ShowPriceLine: false,
			},
		},
	}

	panes := []entity.Pane{place(price, pricePaneID), place(volume, volumePaneID)}

	// (d) ブレッドスオーバーレイ
	for i, o := range cfg.Overlays {
		scaleID := o.ScaleID
		if scaleID == "" {
			scaleID = fmt.Sprintf("percent-%d", i)
		}
		pane := indicator.WrapOverlay(o.Series, o.Color, scaleID, cfg.OverlayHeight)
		pane.Entries[0].Title = o.Name
		panes = append(panes, place(pane, len(panes)))
	}

	return entity.RenderPlan{Panes: panes}, nil
}

func primaryEntry(primary entity.TimeSeries, kind entity.SeriesKind, cfg Config) entity.RenderPlanEntry {
	e := entity.RenderPlanEntry{
		ScaleID:       PriceScaleID,
		Kind:          kind,
		Title:         cfg.Title,
		Series:        primary.Clone(),
		ShowLastValue: true,
		ShowPriceLine: true,
	}
	switch kind {
	case entity.KindCandlestick:
		e.Style = entity.Style{UpColor: cfg.Colors.CandleUp, DownColor: cfg.Colors.CandleDown}
	default:
		e.Style = entity.Style{
			Color:       cfg.Colors.Line,
			TopColor:    cfg.Colors.AreaTop,
			BottomColor: cfg.Colors.AreaBottom,
		}
	}
	return e
}

// sortedByLookback は lookback 昇順に並べ替えたコピーを返します（同値は元の順序を保持）。
func sortedByLookback(specs []entity.IndicatorSpec) []entity.IndicatorSpec {
	out := make([]entity.IndicatorSpec, len(specs))
	copy(out, specs)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Lookback < out[j].Lookback })
	return out
}

// place sets the pane id on the pane and on every entry in it.
func place(p entity.Pane, id int) entity.Pane {
	p.ID = id
	for i := range p.Entries {
		p.Entries[i].Pane = id
	}
	return p
}
