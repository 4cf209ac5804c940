package indicator

import "stock_chart/internal/feature/chart/domain/entity"

// WrapOverlay packages a single-value breadth series (e.g. 52-week highs) into its own pane.
// The series is copied as is. An empty series yields a valid pane with an empty entry.
func WrapOverlay(series entity.TimeSeries, color, scaleID string, paneHeight int) entity.Pane {
	return entity.Pane{
		Height: paneHeight,
		Entries: []entity.RenderPlanEntry{{
			ScaleID: scaleID,
			Kind:    entity.KindLine,
			Series:  series.Clone(),
			Style: entity.Style{
				Color:       color,
				PriceFormat: entity.FormatPercent,
			},
			ShowLastValue: false,
			ShowPriceLine: false,
		}},
	}
}
