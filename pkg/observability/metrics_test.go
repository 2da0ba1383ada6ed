package observability

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoopMetrics(t *testing.T) {
	m := NoopMetrics{}

	m.Counter("test", 1)
	m.Timing("test", time.Second)
}

func TestInMemoryMetrics(t *testing.T) {
	m := NewInMemoryMetrics()

	m.Counter(MetricSessionsBooked, 1, T("outcome", "ok"))
	m.Counter(MetricSessionsBooked, 1, T("outcome", "ok"))
	m.Counter(MetricSessionsBooked, 1, T("outcome", "conflict"))
	m.Timing(MetricHTTPDuration, 20*time.Millisecond)

	assert.Equal(t, int64(2), m.GetCounter(MetricSessionsBooked, T("outcome", "ok")))
	assert.Equal(t, int64(1), m.GetCounter(MetricSessionsBooked, T("outcome", "conflict")))
	assert.Equal(t, []time.Duration{20 * time.Millisecond}, m.GetTimings(MetricHTTPDuration))
}

func TestPrometheusMetrics_Handler(t *testing.T) {
	m := NewPrometheusMetrics()

	m.Counter(MetricSessionsBooked, 1, T("outcome", "ok"))
	m.Counter(MetricSessionsBooked, 2, T("outcome", "ok"))
	m.Timing(MetricHTTPDuration, 15*time.Millisecond, T("route", "/api/v1/sessions"), T("method", http.MethodGet))

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), `cadence_sessions_booked_total{outcome="ok"} 3`)
	assert.Contains(t, string(body), `cadence_http_request_duration_seconds_count{method="GET",route="/api/v1/sessions"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}
