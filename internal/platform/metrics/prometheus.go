// Package metrics はPrometheusによる計測を提供します。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "stock_chart"

// Recorder は chart・cache・HTTP・ingest の計測値を記録します。
type Recorder struct {
	reg *prometheus.Registry

	fetchDuration   *prometheus.HistogramVec
	fetchErrors     *prometheus.CounterVec
	plansAssembled  *prometheus.CounterVec
	cyclesReplaced  prometheus.Counter
	cacheLookups    *prometheus.CounterVec
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
	ingestRequests  *prometheus.CounterVec
	ingestLastCount prometheus.Gauge
}

// New registers all collectors on a fresh registry, together with the Go and process collectors.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewGoCollector(), prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Recorder{
		reg: reg,
		fetchDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "datasource_fetch_duration_seconds",
			Help:      "Duration of DataSource fetches in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),
		fetchErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "datasource_fetch_errors_total",
			Help:      "Total number of failed DataSource fetches",
		}, []string{"kind"}),
		plansAssembled: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "plans_assembled_total",
			Help:      "Total number of render plans assembled",
		}, []string{"kind"}),
		cyclesReplaced: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cycles_superseded_total",
			Help:      "Total number of recompute cycles replaced by a newer one before rendering",
		}),
		cacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Cache lookups by result",
		}, []string{"namespace", "result"}),
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"route", "method", "status"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"route", "method"}),
		ingestRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_requests_total",
			Help:      "Symbol and interval pairs ingested, by result",
		}, []string{"result"}),
		ingestLastCount: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ingest_last_candles",
			Help:      "Number of candles upserted by the last ingest run",
		}),
	}
}

// FetchObserved records one DataSource fetch.
func (r *Recorder) FetchObserved(kind string, d time.Duration, err error) {
	r.fetchDuration.WithLabelValues(kind).Observe(d.Seconds())
	if err != nil {
		r.fetchErrors.WithLabelValues(kind).Inc()
	}
}

// PlanAssembled counts a successfully assembled plan.
func (r *Recorder) PlanAssembled(kind string) {
	r.plansAssembled.WithLabelValues(kind).Inc()
}

// CycleSuperseded counts a cycle dropped in favour of a newer one.
func (r *Recorder) CycleSuperseded() {
	r.cyclesReplaced.Inc()
}

func (r *Recorder) CacheHit(ns string) {
	r.cacheLookups.WithLabelValues(ns, "hit").Inc()
}

func (r *Recorder) CacheMiss(ns string) {
	r.cacheLookups.WithLabelValues(ns, "miss").Inc()
}

// HTTPRequest records a served request. route はテンプレート化されたパス（例 "/charts/:kind/:symbol"）です。
func (r *Recorder) HTTPRequest(route, method string, status int, d time.Duration) {
	r.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	r.httpDuration.WithLabelValues(route, method).Observe(d.Seconds())
}

// IngestFinished records the outcome of one ingest run.
func (r *Recorder) IngestFinished(succeeded, failed, candles int) {
	r.ingestRequests.WithLabelValues("ok").Add(float64(succeeded))
	r.ingestRequests.WithLabelValues("error").Add(float64(failed))
	r.ingestLastCount.Set(float64(candles))
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{Registry: r.reg})
}
