package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.Borrow("submitted")
	m.Borrow("submitted")
	m.Borrow("conflict")
	m.Schedule("created")
	m.ActivityFailed()
	m.ObserveHTTP("POST", "/api/borrow", "201", 0.01)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.BorrowOutcomes.WithLabelValues("submitted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BorrowOutcomes.WithLabelValues("conflict")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ScheduleOutcomes.WithLabelValues("created")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ActivityFailures))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("POST", "/api/borrow", "201")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.Borrow("submitted")
		m.Schedule("created")
		m.ActivityFailed()
		m.ObserveHTTP("GET", "/", "200", 0)
	})
}
