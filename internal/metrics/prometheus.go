package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"liquidityPilot/internal/model"
)

const promNamespace = "liquidity_pilot"

type Prometheus struct {
	Metrics *Metrics

	registry      *prometheus.Registry
	steps         prometheus.Counter
	allocations   prometheus.Counter
	lookupMiss    prometheus.Counter
	resets        *prometheus.CounterVec
	positionValue prometheus.Gauge
}

func NewPrometheus() *Prometheus {
	registry := prometheus.NewRegistry()
	steps := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: promNamespace,
		Name:      "steps_total",
		Help:      "Total number of observation steps processed.",
	})
	allocations := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: promNamespace,
		Name:      "allocations_total",
		Help:      "Total number of base/limit range allocations.",
	})
	lookupMiss := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: promNamespace,
		Name:      "signal_lookup_miss_total",
		Help:      "Total number of signal lookups that fell back to neutral.",
	})
	resets := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: promNamespace,
		Name:      "resets_total",
		Help:      "Total number of position resets by reason.",
	}, []string{"reason"})
	positionValue := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: promNamespace,
		Name:      "position_value_token0",
		Help:      "Latest total position value expressed in token0.",
	})

	registry.MustRegister(steps, allocations, lookupMiss, resets, positionValue)

	m := &Metrics{
		Steps:            steps,
		Allocations:      allocations,
		SignalLookupMiss: lookupMiss,
		ResetsNewSignal:  resets.WithLabelValues(string(model.ResetNewSignal)),
		ResetsLeaveRange: resets.WithLabelValues(string(model.ResetLeaveRange)),
		PositionValue:    positionValue,
	}

	return &Prometheus{
		Metrics:       m,
		registry:      registry,
		steps:         steps,
		allocations:   allocations,
		lookupMiss:    lookupMiss,
		resets:        resets,
		positionValue: positionValue,
	}
}

func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

// Serve exposes the registry on addr under /metrics. The caller shuts the server down.
func (p *Prometheus) Serve(addr string, logger *zap.Logger) *http.Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", p.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server stopped", zap.Error(err))
		}
	}()
	return srv
}
