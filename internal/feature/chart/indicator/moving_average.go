// Package indicator は時系列から派生系列（移動平均・出来高ヒストグラム・ブレッドスオーバーレイ）を計算します。
// すべて入力を変更しない純粋関数です。
package indicator

import (
	"errors"

	"stock_chart/internal/feature/chart/domain/entity"
)

// ErrInvalidLookback is returned when a lookback is smaller than 1.
var ErrInvalidLookback = errors.New("lookback must be >= 1")

// MovingAverage computes the simple moving average of series over lookback points.
//
// 各点の数値は Value、なければ Close を使います。どちらもない点は合計に 0 として加算されます
// （ギャップ付近で平均が下振れする既知の挙動で、意図的に残しています）。
// 先頭の lookback-1 点は出力しません。lookback が系列長より大きい場合は空の系列を返します。
func MovingAverage(series entity.TimeSeries, lookback int) (entity.TimeSeries, error) {
	if lookback < 1 {
		return nil, ErrInvalidLookback
	}
	if lookback > len(series) {
		return entity.TimeSeries{}, nil
	}

	out := make(entity.TimeSeries, 0, len(series)-lookback+1)
	for i := lookback - 1; i < len(series); i++ {
		sum := 0.0
		// 古い順に加算（合計順序を固定して再現性を保つ）
		for j := i - lookback + 1; j <= i; j++ {
			v, _ := series[j].Numeric()
			sum += v
		}
		out = append(out, entity.TimePoint{
			Time:  series[i].Time,
			Value: entity.Float(sum / float64(lookback)),
		})
	}
	return out, nil
}
