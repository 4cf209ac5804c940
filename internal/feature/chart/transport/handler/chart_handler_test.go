package handler_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"stock_chart/internal/feature/chart/domain"
	"stock_chart/internal/feature/chart/domain/entity"
	"stock_chart/internal/feature/chart/indicator"
	"stock_chart/internal/feature/chart/transport/handler"
	"stock_chart/internal/feature/chart/usecase"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// mockPlanBuilder はPlanBuilderインターフェースのモック実装です。
type mockPlanBuilder struct {
	BuildPlanFunc func(ctx context.Context, req usecase.PlanRequest) (entity.RenderPlan, error)
}

func (m *mockPlanBuilder) BuildPlan(ctx context.Context, req usecase.PlanRequest) (entity.RenderPlan, error) {
	if m.BuildPlanFunc == nil {
		return entity.RenderPlan{}, errors.New("BuildPlanFunc is not implemented")
	}
	return m.BuildPlanFunc(ctx, req)
}

func onePanePlan() entity.RenderPlan {
	return entity.RenderPlan{Panes: []entity.Pane{{
		ID:     0,
		Height: 300,
		Entries: []entity.RenderPlanEntry{{
			Pane:    0,
			ScaleID: "right",
			Kind:    entity.KindLine,
			Title:   "AAPL",
			Series:  entity.TimeSeries{{Time: entity.DayTime("2024-01-02"), Value: entity.Float(1.5)}},
		}},
	}}}
}

func TestChartHandler_Get(t *testing.T) {
	tests := []struct {
		name           string
		url            string
		build          func(ctx context.Context, req usecase.PlanRequest) (entity.RenderPlan, error)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "success: defaults",
			url:  "/charts/line/aapl",
			build: func(ctx context.Context, req usecase.PlanRequest) (entity.RenderPlan, error) {
				assert.Equal(t, entity.KindLine, req.Kind)
				assert.Equal(t, "AAPL", req.Symbol)
				assert.Equal(t, usecase.Preset(""), req.Preset)
				assert.Nil(t, req.MovingAverages)
				assert.Zero(t, req.VolumeLookback)
				return onePanePlan(), nil
			},
			expectedStatus: http.StatusOK,
			expectedBody: `{"panes":[{"id":0,"height":300,"entries":[{"pane":0,"scaleId":"right","kind":"line","title":"AAPL",
				"series":[{"time":"2024-01-02","value":1.5}],"style":{},"showLastValue":false,"showPriceLine":false}]}]}`,
		},
		{
			name: "success: query parameters",
			url:  "/charts/candlestick/AAPL?preset=index&ma=20,10&volume_lookback=5",
			build: func(ctx context.Context, req usecase.PlanRequest) (entity.RenderPlan, error) {
				assert.Equal(t, usecase.PresetIndex, req.Preset)
				assert.Equal(t, usecase.SpecsFor([]int{20, 10}), req.MovingAverages)
				assert.Equal(t, 5, req.VolumeLookback)
				return entity.EmptyPlan(), nil
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"panes":[]}`,
		},
		{
			name: "success: empty ma disables moving averages",
			url:  "/charts/line/AAPL?ma=",
			build: func(ctx context.Context, req usecase.PlanRequest) (entity.RenderPlan, error) {
				assert.NotNil(t, req.MovingAverages)
				assert.Empty(t, req.MovingAverages)
				return entity.EmptyPlan(), nil
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"panes":[]}`,
		},
		{
			name:           "error: unparsable ma",
			url:            "/charts/line/AAPL?ma=20,x",
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"error":"invalid moving average list: \"20,x\""}`,
		},
		{
			name:           "error: negative volume lookback",
			url:            "/charts/line/AAPL?volume_lookback=-1",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "error: unknown kind",
			url:  "/charts/area/AAPL",
			build: func(ctx context.Context, req usecase.PlanRequest) (entity.RenderPlan, error) {
				return entity.RenderPlan{}, fmt.Errorf("%w: %q", usecase.ErrUnknownKind, req.Kind)
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "error: invalid lookback",
			url:  "/charts/line/AAPL?ma=0",
			build: func(ctx context.Context, req usecase.PlanRequest) (entity.RenderPlan, error) {
				return entity.RenderPlan{}, fmt.Errorf("ma 0: %w", indicator.ErrInvalidLookback)
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "error: fetch failed",
			url:  "/charts/line/AAPL?preset=index",
			build: func(ctx context.Context, req usecase.PlanRequest) (entity.RenderPlan, error) {
				return entity.RenderPlan{}, &domain.FetchError{Kind: "breadth", Symbol: "high52w", StatusCode: 500}
			},
			expectedStatus: http.StatusBadGateway,
			expectedBody:   `{"error":"fetch breadth/high52w: http 500"}`,
		},
		{
			name: "error: unexpected",
			url:  "/charts/line/AAPL",
			build: func(ctx context.Context, req usecase.PlanRequest) (entity.RenderPlan, error) {
				return entity.RenderPlan{}, errors.New("boom")
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"error":"boom"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := handler.NewChartHandler(&mockPlanBuilder{BuildPlanFunc: tt.build})

			router := gin.New()
			router.GET("/charts/:kind/:symbol", h.Get)

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.url, nil))

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedBody != "" {
				assert.JSONEq(t, tt.expectedBody, w.Body.String())
			}
		})
	}
}

func TestStatusFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want int
	}{
		{usecase.ErrUnknownPreset, http.StatusBadRequest},
		{&domain.FetchError{Kind: "line", Symbol: "A", Err: context.Canceled}, http.StatusBadGateway},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{errors.New("other"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.err.Error(), func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, handler.StatusFor(tt.err))
		})
	}
}
