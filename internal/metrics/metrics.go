// Package metrics exposes prometheus collectors for executions, tasks and
// HTTP traffic.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Softbalance/equipment/internal/model"
)

const namespace = "equipment"

// NewRegistry creates a registry with the Go and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler returns the /metrics handler for reg.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

// Metrics holds the application collectors.
type Metrics struct {
	Executions        *prometheus.CounterVec   // labels: driver, source, result
	ExecutionDuration *prometheus.HistogramVec // labels: driver
	Tasks             *prometheus.CounterVec   // labels: driver, type
	ActiveSessions    prometheus.Gauge
	HTTPRequests      *prometheus.CounterVec   // labels: method, route, status
	HTTPDuration      *prometheus.HistogramVec // labels: method, route
	RateLimited       prometheus.Counter
}

// New registers the application collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Executions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "executions_total",
			Help:      "Task batches executed by result code.",
		}, []string{"driver", "source", "result"}),
		ExecutionDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "execution_duration_seconds",
			Help:      "Time spent executing one task batch.",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"driver"}),
		Tasks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_total",
			Help:      "Tasks submitted by type.",
		}, []string{"driver", "type"}),
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Named sessions currently registered.",
		}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		RateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_rate_limited_total",
			Help:      "Requests rejected by the rate limiter.",
		}),
	}
	reg.MustRegister(m.Executions, m.ExecutionDuration, m.Tasks, m.ActiveSessions,
		m.HTTPRequests, m.HTTPDuration, m.RateLimited)
	return m
}

// ObserveExecution records one finished batch. A nil receiver is a no-op.
func (m *Metrics) ObserveExecution(driver model.DriverKind, source model.ExecutionSource, tasks []model.Task, code model.ResponseCode, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.Executions.WithLabelValues(string(driver), string(source), code.String()).Inc()
	m.ExecutionDuration.WithLabelValues(string(driver)).Observe(elapsed.Seconds())
	for _, t := range tasks {
		m.Tasks.WithLabelValues(string(driver), string(t.Type)).Inc()
	}
}

// SetActiveSessions updates the session gauge.
func (m *Metrics) SetActiveSessions(n int) {
	if m == nil {
		return
	}
	m.ActiveSessions.Set(float64(n))
}
