package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserve(t *testing.T) {
	m := New()

	m.ObserveTransition("BOOKING", "CONFIRM", "ok", 5*time.Millisecond)
	m.ObserveTransition("BOOKING", "CONFIRM", "Conflict", time.Millisecond)
	m.ObserveView("FLEET_SUMMARY", true)
	m.ObserveView("FLEET_SUMMARY", false)
	m.ObserveView("FLEET_SUMMARY", false)
	m.ObservePredictiveScan(3, nil)
	m.ObservePredictiveScan(0, errors.New("db down"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.transitions.WithLabelValues("BOOKING", "CONFIRM", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.transitions.WithLabelValues("BOOKING", "CONFIRM", "Conflict")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.views.WithLabelValues("FLEET_SUMMARY", "miss")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.predictiveTickets))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.predictiveScans.WithLabelValues("error")))
}

func TestNilMetricsAreNoops(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveTransition("VEHICLE", "RETIRE", "ok", 0)
		m.ObserveView("FLEET_SUMMARY", true)
		m.ObservePredictiveScan(1, nil)
	})
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObserveView("PENDING_BOOKINGS", false)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `fleetops_views_total{cache="miss",kind="PENDING_BOOKINGS"} 1`)
}
