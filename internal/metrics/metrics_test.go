package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.Transition("publish", "ok")
		m.SetQueueDepth(3)
		m.Drained("committed")
		m.LocalFallback()
	})
	assert.Nil(t, m.Registry())
}

func TestCollectors(t *testing.T) {
	m := New()
	m.Transition("publish", "ok")
	m.Transition("publish", "ok")
	m.Transition("award", "conflict")
	m.SetQueueDepth(4)
	m.Drained("rejected")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.transitions.WithLabelValues("publish", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.transitions.WithLabelValues("award", "conflict")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.queueDepth))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.drains.WithLabelValues("rejected")))
}

func TestHandlerExposesNamespace(t *testing.T) {
	m := New()
	m.Transition("create", "ok")
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `lifelines_transitions_total{action="create",outcome="ok"} 1`)
}
