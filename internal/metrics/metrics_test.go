package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()
	m.Tick(true)
	m.Tick(false)
	m.Tick(false)
	m.Quote("simulated", true)
	m.Stale()
	m.ViewMounted()
	m.ViewMounted()
	m.ViewUnmounted()
	m.LedgerMutation("transactions", "CREATE", "OK")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.PollTicks.WithLabelValues("ok")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.PollTicks.WithLabelValues("error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Quotes.WithLabelValues("simulated", "true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StaleResponses))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ActiveViews))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LedgerMutations.WithLabelValues("transactions", "CREATE", "OK")))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.Tick(true)
		m.Quote("x", false)
		m.ProviderError("x", "quote")
		m.Stale()
		m.ViewMounted()
		m.ViewUnmounted()
		m.LedgerMutation("a", "b", "c")
		m.ObserveHTTP("GET", "/", 200, time.Millisecond)
	})
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.ObserveHTTP("GET", "/healthz", 200, 3*time.Millisecond)
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "findesk_http_request_duration_seconds")
}
