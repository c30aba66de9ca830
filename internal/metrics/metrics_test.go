package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func counterValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	metrics, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	for _, mf := range metrics {
		if mf.GetName() == name {
			var total float64
			for _, m := range mf.GetMetric() {
				total += m.GetCounter().GetValue()
			}
			return total
		}
	}
	t.Fatalf("%s metric not found", name)
	return 0
}

// TestNewCollector_ReturnsNonNil はCollectorが正常に生成されることを検証する。
func TestNewCollector_ReturnsNonNil(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	if c == nil {
		t.Fatal("expected non-nil Collector")
	}
}

// TestRecordSourceSuccess_IncrementsCounter は成功カウンタが増加することを検証する。
func TestRecordSourceSuccess_IncrementsCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordSourceSuccess("search")
	c.RecordSourceSuccess("search")

	if val := counterValue(t, reg, "mealman_source_success_total"); val != 2 {
		t.Errorf("source_success_total = %v, want 2", val)
	}
}

// TestRecordSourceFailure_IncrementsCounter は失敗カウンタが増加することを検証する。
func TestRecordSourceFailure_IncrementsCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordSourceFailure("lookup")

	if val := counterValue(t, reg, "mealman_source_fail_total"); val != 1 {
		t.Errorf("source_fail_total = %v, want 1", val)
	}
}

// TestRecordFallbackServed_IncrementsCounter はフォールバックカウンタが増加することを検証する。
func TestRecordFallbackServed_IncrementsCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordFallbackServed("search")
	c.RecordFallbackServed("ingredients")
	c.RecordFallbackServed("random")

	if val := counterValue(t, reg, "mealman_fallback_served_total"); val != 3 {
		t.Errorf("fallback_served_total = %v, want 3", val)
	}
}

// TestRecordHTTPStatus_LabelsByCode はステータスコード別に記録されることを検証する。
func TestRecordHTTPStatus_LabelsByCode(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordHTTPStatus(200)
	c.RecordHTTPStatus(200)
	c.RecordHTTPStatus(404)

	if val := counterValue(t, reg, "mealman_http_status_total"); val != 3 {
		t.Errorf("http_status_total = %v, want 3", val)
	}
}

// TestRecordSourceLatency_Observes はレイテンシがヒストグラムに記録されることを検証する。
func TestRecordSourceLatency_Observes(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordSourceLatency(150 * time.Millisecond)

	metrics, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	found := false
	for _, mf := range metrics {
		if mf.GetName() == "mealman_source_latency_seconds" {
			found = true
			if count := mf.GetMetric()[0].GetHistogram().GetSampleCount(); count != 1 {
				t.Errorf("sample count = %d, want 1", count)
			}
		}
	}
	if !found {
		t.Error("mealman_source_latency_seconds metric not found")
	}
}

// TestSetupMetricsRoute_ServesMetrics は/metricsがPrometheus形式で応答することを検証する。
func TestSetupMetricsRoute_ServesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordSourceSuccess("search")

	handler := SetupMetricsRoute(reg)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	body, err := io.ReadAll(rec.Body)
	if err != nil {
		t.Fatalf("failed to read body: %v", err)
	}
	if !strings.Contains(string(body), "mealman_source_success_total") {
		t.Error("metrics output missing mealman_source_success_total")
	}
}
