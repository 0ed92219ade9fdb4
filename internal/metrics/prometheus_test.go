package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"liquidityPilot/internal/model"
)

func TestPrometheusCounters(t *testing.T) {
	prom := NewPrometheus()
	prom.Metrics.Steps.Inc()
	prom.Metrics.Steps.Inc()
	prom.Metrics.Allocations.Inc()
	prom.Metrics.SignalLookupMiss.Inc()
	prom.Metrics.Reset(model.ResetLeaveRange).Inc()
	prom.Metrics.Reset(model.ResetNewSignal).Inc()
	prom.Metrics.Reset(model.ResetLeaveRange).Inc()
	prom.Metrics.Reset(model.ResetNone).Inc()
	prom.Metrics.PositionValue.Set(42.5)

	assertCounter(t, prom.steps, 2)
	assertCounter(t, prom.allocations, 1)
	assertCounter(t, prom.lookupMiss, 1)
	assertCounter(t, prom.resets.WithLabelValues("leave_range"), 2)
	assertCounter(t, prom.resets.WithLabelValues("new_signal"), 1)
	if got := testutil.ToFloat64(prom.positionValue); got != 42.5 {
		t.Fatalf("expected 42.5, got %v", got)
	}
}

func TestNoopMetrics(t *testing.T) {
	m := NewNoop()
	m.Steps.Inc()
	m.Reset(model.ResetLeaveRange).Inc()
	m.PositionValue.Set(1)
}

func assertCounter(t *testing.T, counter prometheus.Counter, expected float64) {
	t.Helper()
	if got := testutil.ToFloat64(counter); got != expected {
		t.Fatalf("expected %v, got %v", expected, got)
	}
}

func TestPrometheusHandlerExposesMetrics(t *testing.T) {
	prom := NewPrometheus()
	prom.Metrics.Steps.Inc()
	prom.Metrics.Reset(model.ResetNewSignal).Inc()

	rec := httptest.NewRecorder()
	prom.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		"liquidity_pilot_steps_total 1",
		`liquidity_pilot_resets_total{reason="new_signal"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in output:\n%s", want, body)
		}
	}
}
