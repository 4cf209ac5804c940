package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	candleentity "stock_chart/internal/feature/candles/domain/entity"
	candlehandler "stock_chart/internal/feature/candles/transport/handler"
	chartentity "stock_chart/internal/feature/chart/domain/entity"
	charthandler "stock_chart/internal/feature/chart/transport/handler"
	chartusecase "stock_chart/internal/feature/chart/usecase"
	symbolentity "stock_chart/internal/feature/symbollist/domain/entity"
	symbollisthandler "stock_chart/internal/feature/symbollist/transport/handler"
	platformhandler "stock_chart/internal/platform/http/handler"
	jwtmw "stock_chart/internal/platform/jwt"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type stubStockData struct{}

func (stubStockData) GetCandles(ctx context.Context, symbol, interval string, outputsize int) ([]candleentity.Candle, error) {
	return []candleentity.Candle{}, nil
}

func (stubStockData) Breadth(ctx context.Context, which, interval string, outputsize int) ([]candleentity.BreadthPoint, error) {
	return []candleentity.BreadthPoint{}, nil
}

type stubSymbols struct{}

func (stubSymbols) ListActiveSymbols(ctx context.Context, market string) ([]symbolentity.Symbol, error) {
	return []symbolentity.Symbol{}, nil
}

type stubBuilder struct{}

func (stubBuilder) BuildPlan(ctx context.Context, req chartusecase.PlanRequest) (chartentity.RenderPlan, error) {
	return chartentity.EmptyPlan(), nil
}

type recordingObserver struct {
	routes []string
}

func (o *recordingObserver) HTTPRequest(route, method string, status int, d time.Duration) {
	o.routes = append(o.routes, route)
}

func newTestRouter(opts Options) *gin.Engine {
	return NewRouter(Handlers{
		Health:    platformhandler.NewHealthHandler(nil),
		StockData: candlehandler.NewStockDataHandler(stubStockData{}),
		Symbols:   symbollisthandler.NewSymbolHandler(stubSymbols{}),
		Chart:     charthandler.NewChartHandler(stubBuilder{}),
		Stream:    charthandler.NewStreamHandler(stubBuilder{}, charthandler.StreamConfig{}, nil, nil),
	}, opts)
}

func get(r http.Handler, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestNewRouter_PublicRoutes(t *testing.T) {
	metricsHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("# metrics"))
	})
	r := newTestRouter(Options{JWTSecret: "secret", MetricsHandler: metricsHandler})

	for _, path := range []string{"/healthz", "/readyz", "/metrics", "/stockdata/line/AAPL", "/symbols"} {
		t.Run(path, func(t *testing.T) {
			assert.Equal(t, http.StatusOK, get(r, path, "").Code)
		})
	}
}

func TestNewRouter_MetricsDisabled(t *testing.T) {
	r := newTestRouter(Options{})

	assert.Equal(t, http.StatusNotFound, get(r, "/metrics", "").Code)
}

func TestNewRouter_ChartsRequireTokenWhenSecretSet(t *testing.T) {
	r := newTestRouter(Options{JWTSecret: "secret"})

	assert.Equal(t, http.StatusUnauthorized, get(r, "/charts/line/AAPL", "").Code)
	assert.Equal(t, http.StatusUnauthorized, get(r, "/ws/charts", "").Code)

	token, err := jwtmw.NewGenerator("secret", time.Hour).GenerateToken("viewer")
	require.NoError(t, err)

	w := get(r, "/charts/line/AAPL", token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"panes":[]}`, w.Body.String())
}

func TestNewRouter_ChartsPublicWithoutSecret(t *testing.T) {
	r := newTestRouter(Options{})

	assert.Equal(t, http.StatusOK, get(r, "/charts/candlestick/AAPL", "").Code)
}

func TestNewRouter_ObserverSeesRouteTemplates(t *testing.T) {
	obs := &recordingObserver{}
	r := newTestRouter(Options{Observer: obs})

	get(r, "/stockdata/line/AAPL", "")
	get(r, "/nope", "")

	assert.Equal(t, []string{"/stockdata/:kind/:symbol", "unmatched"}, obs.routes)
}
