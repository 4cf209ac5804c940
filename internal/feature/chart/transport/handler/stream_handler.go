package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"stock_chart/internal/feature/chart/adapters/wssurface"
	"stock_chart/internal/feature/chart/domain"
	"stock_chart/internal/feature/chart/transport/http/dto"
	"stock_chart/internal/feature/chart/usecase"
)

// StreamConfig は /ws/charts の接続設定です。
type StreamConfig struct {
	PingInterval time.Duration `yaml:"ping_interval" default:"30s"`
	WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
	// ReadLimit は1メッセージの最大バイト数です。
	ReadLimit int64 `yaml:"read_limit" default:"4096"`
	// AllowedOrigins が空なら Origin を検査しません。
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// StreamHandler は接続ごとに Viewer を持ち、受信した要求ごとに再計算サイクルを開始します。
type StreamHandler struct {
	builder  usecase.PlanBuilder
	cfg      StreamConfig
	upgrader websocket.Upgrader
	metrics  usecase.Metrics
	logger   *zap.Logger
}

// NewStreamHandler は StreamHandler を生成します。metrics と logger は nil でも構いません。
func NewStreamHandler(builder usecase.PlanBuilder, cfg StreamConfig, metrics usecase.Metrics, logger *zap.Logger) *StreamHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = 30 * time.Second
	}
	if cfg.ReadLimit <= 0 {
		cfg.ReadLimit = 4096
	}
	h := &StreamHandler{builder: builder, cfg: cfg, metrics: metrics, logger: logger}
	h.upgrader = websocket.Upgrader{CheckOrigin: h.checkOrigin}
	return h
}

func (h *StreamHandler) checkOrigin(r *http.Request) bool {
	if len(h.cfg.AllowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	for _, o := range h.cfg.AllowedOrigins {
		if o == origin {
			return true
		}
	}
	return false
}

// Serve は GET /ws/charts を処理します。
//
// クライアントは {"kind","symbol","preset","ma","volume_lookback"} を送り、サーバーは
// {"type":"plan"|"release"|"error","cycle":n,...} を返します。新しい要求は処理中の古い要求を置き換えます。
func (h *StreamHandler) Serve(c *gin.Context) {
	ws, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade が応答を書き込み済み
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	conn := wssurface.NewConn(ws, h.cfg.WriteTimeout)
	viewer := usecase.NewViewer(h.builder, wssurface.NewOpener(conn), h.metrics, h.logger)

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	defer func() {
		cancel()
		_ = viewer.Close()
		wg.Wait()
		_ = ws.Close()
	}()

	pongWait := h.cfg.PingInterval * 2
	ws.SetReadLimit(h.cfg.ReadLimit)
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	wg.Add(1)
	go func() {
		defer wg.Done()
		h.pingLoop(ctx, conn)
	}()

	for {
		_, msg, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Warn("websocket read failed", zap.Error(err))
			}
			return
		}
		_ = ws.SetReadDeadline(time.Now().Add(pongWait))

		var in dto.StreamRequest
		if err := json.Unmarshal(msg, &in); err != nil {
			h.writeError(conn, viewer.Cycle(), "malformed request: "+err.Error())
			continue
		}
		req, err := in.PlanRequest()
		if err != nil {
			h.writeError(conn, viewer.Cycle(), err.Error())
			continue
		}

		done := viewer.Submit(ctx, req)
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.report(ctx, conn, <-done)
		}()
	}
}

// report はサイクルの失敗をクライアントに伝えます。置き換えられたサイクルと切断後の失敗は送りません。
func (h *StreamHandler) report(ctx context.Context, conn *wssurface.Conn, err error) {
	if err == nil || ctx.Err() != nil {
		return
	}
	if errors.Is(err, domain.ErrSuperseded) || errors.Is(err, usecase.ErrViewerClosed) {
		return
	}
	var cycle uint64
	var ce *usecase.CycleError
	if errors.As(err, &ce) {
		cycle = ce.Cycle
	}
	h.writeError(conn, cycle, err.Error())
}

func (h *StreamHandler) writeError(conn *wssurface.Conn, cycle uint64, msg string) {
	if err := conn.WriteFrame(wssurface.Frame{Type: wssurface.FrameError, Cycle: cycle, Error: msg}); err != nil {
		h.logger.Debug("failed to write error frame", zap.Error(err))
	}
}

func (h *StreamHandler) pingLoop(ctx context.Context, conn *wssurface.Conn) {
	ticker := time.NewTicker(h.cfg.PingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.Ping(); err != nil {
				return
			}
		}
	}
}
