package observability

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/yungbote/branchaudit-backend/internal/platform/logger"
)

// Metrics owns its own registry so tests and parallel servers never collide.
type Metrics struct {
	registry *prometheus.Registry

	apiRequests *prometheus.CounterVec
	apiLatency  *prometheus.HistogramVec
	apiInflight prometheus.Gauge

	storeWrites       *prometheus.HistogramVec
	storeWriteConflicts *prometheus.CounterVec
	storeWriteRetries   *prometheus.CounterVec

	reorderWrites   *prometheus.CounterVec
	reorderRetries  *prometheus.CounterVec
	reorderOutcomes *prometheus.CounterVec

	archivalOutcomes *prometheus.CounterVec
	archivalFailures *prometheus.CounterVec

	redisUp   prometheus.Gauge
	redisPing prometheus.Gauge
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		apiRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ba_api_requests_total",
			Help: "Total API requests by method/route/status.",
		}, []string{"method", "route", "status"}),
		apiLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ba_api_request_duration_seconds",
			Help:    "API request latency in seconds by method/route/status.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}, []string{"method", "route", "status"}),
		apiInflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ba_api_inflight_requests",
			Help: "In-flight API requests.",
		}),
		storeWrites: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ba_store_write_duration_seconds",
			Help:    "Aggregate write duration by operation/status.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation", "status"}),
		storeWriteConflicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ba_store_write_conflicts_total",
			Help: "Aggregate writes rejected by a concurrency guard.",
		}, []string{"operation"}),
		storeWriteRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ba_store_write_retryable_total",
			Help: "Aggregate writes that failed with a retryable or rate-limited error.",
		}, []string{"operation"}),
		reorderWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ba_reorder_writes_total",
			Help: "Question order_index writes issued by reorders.",
		}, []string{"questionnaire_type"}),
		reorderRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ba_reorder_retries_total",
			Help: "Reorder item writes retried after rate limiting.",
		}, []string{"questionnaire_type"}),
		reorderOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ba_reorder_outcomes_total",
			Help: "Reorder results by outcome.",
		}, []string{"outcome"}),
		archivalOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ba_archival_outcomes_total",
			Help: "Audit deletions by outcome (complete/partial/already_deleted/failed).",
		}, []string{"outcome"}),
		archivalFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ba_archival_step_failures_total",
			Help: "Non-fatal per-row failures during archival cascades.",
		}, []string{"step"}),
		redisUp: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ba_redis_up",
			Help: "1 when the last Redis ping succeeded.",
		}),
		redisPing: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ba_redis_ping_seconds",
			Help: "Latency of the last Redis ping.",
		}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.apiRequests, m.apiLatency, m.apiInflight,
		m.storeWrites, m.storeWriteConflicts, m.storeWriteRetries,
		m.reorderWrites, m.reorderRetries, m.reorderOutcomes,
		m.archivalOutcomes, m.archivalFailures,
		m.redisUp, m.redisPing,
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	if method == "" {
		method = "UNKNOWN"
	}
	if route == "" {
		route = "unknown"
	}
	if status == "" {
		status = "0"
	}
	m.apiRequests.WithLabelValues(method, route, status).Inc()
	m.apiLatency.WithLabelValues(method, route, status).Observe(dur.Seconds())
}

func (m *Metrics) ApiInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) ApiInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

func (m *Metrics) ObserveStoreWrite(name, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.storeWrites.WithLabelValues(name, status).Observe(dur.Seconds())
}

func (m *Metrics) IncStoreWriteConflict(name string) {
	if m == nil {
		return
	}
	m.storeWriteConflicts.WithLabelValues(name).Inc()
}

func (m *Metrics) IncStoreWriteRetry(name string) {
	if m == nil {
		return
	}
	m.storeWriteRetries.WithLabelValues(name).Inc()
}

func (m *Metrics) IncReorderWrite(questionnaireType string) {
	if m == nil {
		return
	}
	m.reorderWrites.WithLabelValues(strings.TrimSpace(questionnaireType)).Inc()
}

func (m *Metrics) IncReorderRetry(questionnaireType string) {
	if m == nil {
		return
	}
	m.reorderRetries.WithLabelValues(strings.TrimSpace(questionnaireType)).Inc()
}

func (m *Metrics) IncReorderOutcome(outcome string) {
	if m == nil {
		return
	}
	m.reorderOutcomes.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncArchivalOutcome(outcome string) {
	if m == nil {
		return
	}
	m.archivalOutcomes.WithLabelValues(outcome).Inc()
}

func (m *Metrics) AddArchivalFailures(step string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.archivalFailures.WithLabelValues(step).Add(float64(n))
}

// StartRedisCollector pings rdb every interval until ctx is done.
func (m *Metrics) StartRedisCollector(ctx context.Context, log *logger.Logger, rdb redis.UniversalClient, interval time.Duration) {
	if m == nil || rdb == nil {
		return
	}
	if interval <= 0 {
		interval = 15 * time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				start := time.Now()
				if err := rdb.Ping(ctx).Err(); err != nil {
					m.redisUp.Set(0)
					if log != nil {
						log.Warn("metrics: redis ping failed", "error", err)
					}
					continue
				}
				m.redisUp.Set(1)
				m.redisPing.Set(time.Since(start).Seconds())
			}
		}
	}()
}
