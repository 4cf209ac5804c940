package handler_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock_chart/internal/feature/chart/adapters/wssurface"
	"stock_chart/internal/feature/chart/domain/entity"
	"stock_chart/internal/feature/chart/transport/handler"
	"stock_chart/internal/feature/chart/usecase"
)

func dialStream(t *testing.T, builder usecase.PlanBuilder) *websocket.Conn {
	t.Helper()

	h := handler.NewStreamHandler(builder, handler.StreamConfig{PingInterval: time.Minute}, nil, nil)
	router := gin.New()
	router.GET("/ws/charts", h.Serve)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/charts"
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ws.Close() })
	return ws
}

func readFrame(t *testing.T, ws *websocket.Conn) wssurface.Frame {
	t.Helper()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(5*time.Second)))
	var f wssurface.Frame
	require.NoError(t, ws.ReadJSON(&f))
	return f
}

func TestStreamHandler_RendersPlan(t *testing.T) {
	builder := &mockPlanBuilder{BuildPlanFunc: func(ctx context.Context, req usecase.PlanRequest) (entity.RenderPlan, error) {
		assert.Equal(t, entity.KindCandlestick, req.Kind)
		assert.Equal(t, "AAPL", req.Symbol)
		assert.Equal(t, usecase.SpecsFor([]int{5}), req.MovingAverages)
		return onePanePlan(), nil
	}}
	ws := dialStream(t, builder)

	require.NoError(t, ws.WriteJSON(map[string]any{"symbol": "aapl", "ma": []int{5}}))

	f := readFrame(t, ws)
	assert.Equal(t, wssurface.FramePlan, f.Type)
	assert.Equal(t, uint64(1), f.Cycle)
	require.NotNil(t, f.Plan)
	assert.Len(t, f.Plan.Panes, 1)
}

func TestStreamHandler_NewerRequestSupersedesOlder(t *testing.T) {
	started := make(chan struct{})
	builder := &mockPlanBuilder{BuildPlanFunc: func(ctx context.Context, req usecase.PlanRequest) (entity.RenderPlan, error) {
		switch req.Symbol {
		case "SLOW":
			close(started)
			<-ctx.Done()
			return entity.RenderPlan{}, ctx.Err()
		case "BAD":
			return entity.RenderPlan{}, errors.New("boom")
		default:
			return onePanePlan(), nil
		}
	}}
	ws := dialStream(t, builder)

	require.NoError(t, ws.WriteJSON(map[string]any{"symbol": "SLOW"}))
	<-started
	require.NoError(t, ws.WriteJSON(map[string]any{"symbol": "FAST"}))

	// 置き換えられたサイクル 1 は何も送らない
	f := readFrame(t, ws)
	assert.Equal(t, wssurface.FramePlan, f.Type)
	assert.Equal(t, uint64(2), f.Cycle)

	require.NoError(t, ws.WriteJSON(map[string]any{"symbol": "BAD"}))

	f = readFrame(t, ws)
	assert.Equal(t, wssurface.FrameRelease, f.Type)
	assert.Equal(t, uint64(2), f.Cycle)

	f = readFrame(t, ws)
	assert.Equal(t, wssurface.FrameError, f.Type)
	assert.Equal(t, uint64(3), f.Cycle)
	assert.Contains(t, f.Error, "boom")
}

func TestStreamHandler_InvalidMessages(t *testing.T) {
	tests := []struct {
		name    string
		message string
		wantErr string
	}{
		{"malformed json", `{"symbol":`, "malformed request"},
		{"missing symbol", `{"kind":"line"}`, "symbol is required"},
		{"negative volume lookback", `{"symbol":"AAPL","volume_lookback":-1}`, "volume_lookback"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ws := dialStream(t, &mockPlanBuilder{})

			require.NoError(t, ws.WriteMessage(websocket.TextMessage, []byte(tt.message)))

			f := readFrame(t, ws)
			assert.Equal(t, wssurface.FrameError, f.Type)
			assert.Zero(t, f.Cycle)
			assert.Contains(t, f.Error, tt.wantErr)
		})
	}
}

func TestStreamHandler_RejectsForeignOrigin(t *testing.T) {
	h := handler.NewStreamHandler(&mockPlanBuilder{}, handler.StreamConfig{AllowedOrigins: []string{"https://chart.example"}}, nil, nil)
	router := gin.New()
	router.GET("/ws/charts", h.Serve)
	server := httptest.NewServer(router)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/charts"
	header := http.Header{"Origin": {"https://evil.example"}}
	_, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}
