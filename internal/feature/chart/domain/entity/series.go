// Package entity defines the domain models for the chart feature.
package entity

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Time はチャート上の時刻です。営業日文字列（"2024-01-02"）または数値（序数・UNIX秒）のどちらかを保持し、
// JSONでは元の形式のまま往復します。
type Time struct {
	text    string
	numeric bool
}

// DayTime は営業日文字列から Time を生成します。
func DayTime(day string) Time {
	return Time{text: day}
}

// UnixTime は数値の時刻（序数またはUNIX秒）から Time を生成します。
func UnixTime(n int64) Time {
	return Time{text: strconv.FormatInt(n, 10), numeric: true}
}

// String returns the textual form of the time.
func (t Time) String() string { return t.text }

// IsNumeric reports whether the time was given as a number.
func (t Time) IsNumeric() bool { return t.numeric }

// IsZero reports whether the time is unset.
func (t Time) IsZero() bool { return t.text == "" }

// MarshalJSON encodes a numeric time as a bare number and a day time as a string.
func (t Time) MarshalJSON() ([]byte, error) {
	if t.numeric {
		return []byte(t.text), nil
	}
	return json.Marshal(t.text)
}

// UnmarshalJSON accepts either a JSON string or a JSON number.
func (t *Time) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*t = Time{}
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = Time{text: s}
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("time must be a string or a number: %w", err)
	}
	*t = Time{text: n.String(), numeric: true}
	return nil
}

// TimePoint は時系列の1点です。ライン系列では Value、ローソク足では Open/High/Low/Close（と任意の Volume）を持ちます。
// nil は「値なし」を表し、0 とは区別されます。
type TimePoint struct {
	Time   Time     `json:"time"`
	Value  *float64 `json:"value,omitempty"`
	Open   *float64 `json:"open,omitempty"`
	High   *float64 `json:"high,omitempty"`
	Low    *float64 `json:"low,omitempty"`
	Close  *float64 `json:"close,omitempty"`
	Volume *float64 `json:"volume,omitempty"`
	Color  string   `json:"color,omitempty"` // ヒストグラムのバー色
}

// Numeric returns Value if present, otherwise Close.
func (p TimePoint) Numeric() (float64, bool) {
	if p.Value != nil {
		return *p.Value, true
	}
	if p.Close != nil {
		return *p.Close, true
	}
	return 0, false
}

// Clone returns a copy of the point that shares no pointers with p.
func (p TimePoint) Clone() TimePoint {
	return TimePoint{
		Time:   p.Time,
		Value:  cloneFloat(p.Value),
		Open:   cloneFloat(p.Open),
		High:   cloneFloat(p.High),
		Low:    cloneFloat(p.Low),
		Close:  cloneFloat(p.Close),
		Volume: cloneFloat(p.Volume),
		Color:  p.Color,
	}
}

// TimeSeries は時系列の点を時刻順に並べたものです。
type TimeSeries []TimePoint

// Clone returns a deep copy. A nil series clones to an empty, non-nil one.
func (s TimeSeries) Clone() TimeSeries {
	out := make(TimeSeries, len(s))
	for i, p := range s {
		out[i] = p.Clone()
	}
	return out
}

// Float returns a pointer to v.
func Float(v float64) *float64 {
	return &v
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
