// Package metrics exposes Prometheus collectors for the HTTP layer and the
// lending and scheduling managers. A nil *Metrics is valid and records nothing.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "labdesk"

type Metrics struct {
	HTTPRequests     *prometheus.CounterVec
	HTTPDuration     *prometheus.HistogramVec
	BorrowOutcomes   *prometheus.CounterVec
	ScheduleOutcomes *prometheus.CounterVec
	ActivityFailures prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"method", "route", "code"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		BorrowOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "borrow_requests_total",
			Help:      "Borrow request operations by outcome.",
		}, []string{"outcome"}),
		ScheduleOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "schedules_total",
			Help:      "Schedule operations by outcome.",
		}, []string{"outcome"}),
		ActivityFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "activity_log_failures_total",
			Help:      "Activity log entries that could not be written.",
		}),
	}
	reg.MustRegister(m.HTTPRequests, m.HTTPDuration, m.BorrowOutcomes, m.ScheduleOutcomes, m.ActivityFailures)
	return m
}

func (m *Metrics) Borrow(outcome string) {
	if m == nil {
		return
	}
	m.BorrowOutcomes.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Schedule(outcome string) {
	if m == nil {
		return
	}
	m.ScheduleOutcomes.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ActivityFailed() {
	if m == nil {
		return
	}
	m.ActivityFailures.Inc()
}

func (m *Metrics) ObserveHTTP(method, route, code string, seconds float64) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, code).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(seconds)
}
