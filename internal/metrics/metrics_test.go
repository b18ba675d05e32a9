package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveRequest(t *testing.T) {
	m := New()

	m.ObserveRequest("POST", "/submit-email", 200)
	m.ObserveRequest("POST", "/submit-email", 200)
	m.ObserveRequest("GET", "", 405)

	count := testutil.ToFloat64(m.HTTPRequests.WithLabelValues("POST", "/submit-email", "200"))
	if count != 2 {
		t.Errorf("Expected 2 submit requests, got %f", count)
	}
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "unmatched", "405")))
}

func TestObserveSink(t *testing.T) {
	m := New()

	m.ObserveSink("sheets", true)
	m.ObserveSink("mailchimp", false)
	m.ObserveSink("mailchimp", false)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.SinkOutcomes.WithLabelValues("sheets", "success")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.SinkOutcomes.WithLabelValues("mailchimp", "failure")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveRequest("POST", "/", 200)
		m.ObserveSink("sheets", true)
	})
}

func TestHandlerExposesCounters(t *testing.T) {
	m := New()
	m.ObserveSink("sheets", true)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `submission_sink_outcomes_total{result="success",sink="sheets"} 1`)
}
