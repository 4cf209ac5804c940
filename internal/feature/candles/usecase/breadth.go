package usecase

import (
	"sort"
	"time"

	"stock_chart/internal/feature/candles/domain/entity"
)

// BreadthWindow は52週（取引日ベース）の本数です。
const BreadthWindow = 252

// BreadthSide は集計する方向です。
type BreadthSide int

const (
	NewHigh BreadthSide = iota
	NewLow
)

// ComputeBreadth は銘柄ごとの時刻昇順の系列から、各日付で新高値（新安値）を付けた銘柄の割合を求めます。
//
// 各バーは、自身を含む直近 window 本の High の最大値（Low の最小値）と一致すれば新高値（新安値）です。
// 系列の先頭では窓を系列の開始で打ち切ります。分母はその日付にバーを持つ銘柄数です。
func ComputeBreadth(series [][]entity.Candle, side BreadthSide, window int) []entity.BreadthPoint {
	if window < 1 {
		window = 1
	}
	type tally struct{ hits, counted int }
	byTime := make(map[time.Time]*tally)

	for _, cs := range series {
		for i, c := range cs {
			start := max(0, i-window+1)
			extreme := c.High
			if side == NewLow {
				extreme = c.Low
			}
			hit := true
			for _, p := range cs[start:i] {
				if side == NewHigh && p.High > extreme {
					hit = false
					break
				}
				if side == NewLow && p.Low < extreme {
					hit = false
					break
				}
			}

			key := c.Time.UTC()
			t, ok := byTime[key]
			if !ok {
				t = &tally{}
				byTime[key] = t
			}
			t.counted++
			if hit {
				t.hits++
			}
		}
	}

	out := make([]entity.BreadthPoint, 0, len(byTime))
	for ts, t := range byTime {
		out = append(out, entity.BreadthPoint{
			Time:    ts,
			Percent: 100 * float64(t.hits) / float64(t.counted),
			Counted: t.counted,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	return out
}
