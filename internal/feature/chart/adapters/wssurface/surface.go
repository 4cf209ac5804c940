// Package wssurface はWebSocket接続を描画面（RenderSurface）として扱います。
// クライアントは plan フレームで描画し、release フレームで同じ cycle の描画を破棄します。
package wssurface

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"stock_chart/internal/feature/chart/domain/entity"
	"stock_chart/internal/feature/chart/usecase"
)

// フレーム種別
const (
	FramePlan    = "plan"
	FrameRelease = "release"
	FrameError   = "error"
)

// DefaultWriteTimeout は1フレームの書き込み期限です。
const DefaultWriteTimeout = 10 * time.Second

// Frame is one server-to-client message.
type Frame struct {
	Type  string             `json:"type"`
	Cycle uint64             `json:"cycle"`
	Plan  *entity.RenderPlan `json:"plan,omitempty"`
	Error string             `json:"error,omitempty"`
}

// Conn serializes writes to a websocket connection. gorilla/websocket allows only one concurrent writer.
type Conn struct {
	mu           sync.Mutex
	ws           *websocket.Conn
	writeTimeout time.Duration
}

// NewConn wraps ws. writeTimeout <= 0 uses DefaultWriteTimeout.
func NewConn(ws *websocket.Conn, writeTimeout time.Duration) *Conn {
	if writeTimeout <= 0 {
		writeTimeout = DefaultWriteTimeout
	}
	return &Conn{ws: ws, writeTimeout: writeTimeout}
}

// WriteFrame は f をJSONで送信します。
func (c *Conn) WriteFrame(f Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
		return err
	}
	return c.ws.WriteJSON(f)
}

// Ping sends a ping control frame.
func (c *Conn) Ping() error {
	return c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(c.writeTimeout))
}

// Opener は cycle ごとに Surface を開きます。
type Opener struct {
	conn *Conn
}

var _ usecase.SurfaceOpener = (*Opener)(nil)

// NewOpener returns an Opener writing to conn.
func NewOpener(conn *Conn) *Opener {
	return &Opener{conn: conn}
}

// Open は cycle 用の描画面を返します。送信は Render まで行いません。
func (o *Opener) Open(ctx context.Context, cycle uint64) (usecase.RenderSurface, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &Surface{conn: o.conn, cycle: cycle}, nil
}

// Surface is the client-side drawing of one cycle.
type Surface struct {
	conn     *Conn
	cycle    uint64
	rendered bool
	once     sync.Once
	closeErr error
}

var _ usecase.RenderSurface = (*Surface)(nil)

// Render sends the plan frame.
func (s *Surface) Render(ctx context.Context, plan entity.RenderPlan) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.conn.WriteFrame(Frame{Type: FramePlan, Cycle: s.cycle, Plan: &plan}); err != nil {
		return err
	}
	s.rendered = true
	return nil
}

// Close はクライアントに release を送ります。描画していない cycle では何も送りません。2回目以降は何もしません。
func (s *Surface) Close() error {
	s.once.Do(func() {
		if s.rendered {
			s.closeErr = s.conn.WriteFrame(Frame{Type: FrameRelease, Cycle: s.cycle})
		}
	})
	return s.closeErr
}
