// Package domain holds errors shared across the chart feature layers.
package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrFetchFailed は生データの取得失敗を表します。再計算サイクルは中断されます。
	ErrFetchFailed = errors.New("fetch failed")
	// ErrSuperseded is returned by a recompute cycle that a newer cycle replaced.
	ErrSuperseded = errors.New("recompute cycle superseded")
)

// FetchError describes a failed DataSource fetch. It matches ErrFetchFailed via errors.Is.
type FetchError struct {
	Kind       string
	Symbol     string
	StatusCode int // 0 when no HTTP response was received
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s/%s: http %d", e.Kind, e.Symbol, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s/%s: %v", e.Kind, e.Symbol, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

func (e *FetchError) Is(target error) bool { return target == ErrFetchFailed }
