// Package dto defines the JSON shapes served by /stockdata.
package dto

// DateLayout is the time format of every /stockdata point.
const DateLayout = "2006-01-02"

// CandleResponse はロウソク足データのレスポンスDTOです（kind=candlestick）。
type CandleResponse struct {
	Time   string  `json:"time"`   // 日付
	Open   float64 `json:"open"`   // 始値
	High   float64 `json:"high"`   // 高値
	Low    float64 `json:"low"`    // 安値
	Close  float64 `json:"close"`  // 終値
	Volume int64   `json:"volume"` // 出来高
}

// LineResponse は終値ラインの点です（kind=line）。
type LineResponse struct {
	Time   string  `json:"time"`
	Value  float64 `json:"value"` // 終値
	Volume int64   `json:"volume"`
}

// BreadthResponse はブレッドス系列の点です（kind=breadth）。Value は 0〜100 の割合です。
type BreadthResponse struct {
	Time  string  `json:"time"`
	Value float64 `json:"value"`
}
