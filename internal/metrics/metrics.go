// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector はPrometheusメトリクスを収集する実装。
// recipe.MetricsCollectorを満たす。
type Collector struct {
	sourceSuccess  *prometheus.CounterVec
	sourceFail     *prometheus.CounterVec
	fallbackServed *prometheus.CounterVec
	sourceLatency  prometheus.Histogram
	httpStatus     *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		sourceSuccess: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mealman_source_success_total",
			Help: "外部ソース呼び出し成功の合計数",
		}, []string{"operation"}),
		sourceFail: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mealman_source_fail_total",
			Help: "外部ソース呼び出し失敗の合計数",
		}, []string{"operation"}),
		fallbackServed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mealman_fallback_served_total",
			Help: "フォールバックレシピを返した回数",
		}, []string{"operation"}),
		sourceLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "mealman_source_latency_seconds",
			Help:    "外部ソース呼び出しのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mealman_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
	}

	reg.MustRegister(
		c.sourceSuccess,
		c.sourceFail,
		c.fallbackServed,
		c.sourceLatency,
		c.httpStatus,
	)

	return c
}

// RecordSourceSuccess は外部ソース呼び出し成功を記録する。
func (c *Collector) RecordSourceSuccess(operation string) {
	c.sourceSuccess.WithLabelValues(operation).Inc()
}

// RecordSourceFailure は外部ソース呼び出し失敗を記録する。
func (c *Collector) RecordSourceFailure(operation string) {
	c.sourceFail.WithLabelValues(operation).Inc()
}

// RecordFallbackServed はフォールバック応答を記録する。
func (c *Collector) RecordFallbackServed(operation string) {
	c.fallbackServed.WithLabelValues(operation).Inc()
}

// RecordSourceLatency は外部ソース呼び出しのレイテンシを記録する。
func (c *Collector) RecordSourceLatency(duration time.Duration) {
	c.sourceLatency.Observe(duration.Seconds())
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute は/metricsエンドポイントを提供するHTTPハンドラーを返す。
// Prometheusスクレイプに対応する。
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}
