// Package entity defines the domain models for the candles feature.
package entity

import "time"

// Candle represents OHLCV (Open, High, Low, Close, Volume) candlestick data
// for a stock symbol at a specific time interval.
type Candle struct {
	Symbol   string    // Stock ticker symbol (e.g., "AAPL", "7203.T")
	Interval string    // Time interval (e.g., "1day", "1week", "1month")
	Time     time.Time // Timestamp for the start of this candle period
	Open     float64
	High     float64
	Low      float64
	Close    float64
	Volume   int64
}

// BreadthPoint is the share (0-100) of active symbols that made a new trailing high or low on one date.
type BreadthPoint struct {
	Time    time.Time
	Percent float64
	// Counted は当日バーを持っていた銘柄数（分母）です。
	Counted int
}
