// Package http は外部HTTP呼び出しの共通設定を提供します。
package http

import (
	"net"
	"net/http"
	"time"
)

// DefaultTimeout は timeout に 0 以下が渡された場合のリクエスト全体の期限です。
const DefaultTimeout = 10 * time.Second

// NewHTTPClient は Twelve Data と DataSource の取得に使うHTTPクライアントを作成します。
// http.DefaultClient にはタイムアウトがないため使いません。
//
// 主系列とオーバーレイを同じホストへ並行に取得するので、ホストごとのアイドル接続を多めに残します。
// 応答ヘッダーが来ないまま接続が滞留しないよう、ヘッダー待ちにも全体と同じ期限を掛けます。
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	dialer := &net.Dialer{
		Timeout:   5 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			DialContext:           dialer.DialContext,
			MaxIdleConns:          64,
			MaxIdleConnsPerHost:   16,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   5 * time.Second,
			ResponseHeaderTimeout: timeout,
		},
	}
}
