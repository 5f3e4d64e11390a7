package observability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMetricsSnapshot(t *testing.T) {
	m := NewMetrics()
	m.RecordRequest("/jobs/:id/apply", "POST", 201, 20*time.Millisecond)
	m.RecordRequest("/jobs/:id/apply", "POST", 201, 40*time.Millisecond)
	m.RecordError("/jobs/:id/apply", "POST", "CONFLICT")
	m.Inc(CounterApplicationsSubmitted)
	m.Inc(CounterApplicationsSubmitted)

	snap := m.Snapshot()
	assert.Equal(t, int64(2), snap.Requests["/jobs/:id/apply|POST|201"])
	assert.Equal(t, int64(30), snap.AvgLatencyMS["/jobs/:id/apply|POST|201"])
	assert.Equal(t, int64(1), snap.Errors["/jobs/:id/apply|POST|CONFLICT"])
	assert.Equal(t, int64(2), snap.Domain[CounterApplicationsSubmitted])
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.RecordRequest("/", "GET", 200, time.Millisecond)
	m.RecordError("/", "GET", "X")
	m.Inc("x")
	assert.Empty(t, m.Snapshot().Requests)
}
