package monitoring

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsRecordNothing(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.RecordHTTPRequest("GET", "/", "200", time.Millisecond, 0, 0)
		m.RecordRender("Clock", "success", time.Millisecond)
		m.RecordFetch("example.com", "200", time.Millisecond)
		m.RecordResolution("Chart", "ok", "Type")
		m.IncWSConnections()
		m.DecWSConnections()
	})
	assert.Equal(t, MetricsSnapshot{}, m.Snapshot())
}

func TestRecordHTTPRequestCountsErrors(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.RecordHTTPRequest("GET", "/dashboards", "200", 10*time.Millisecond, 0, 128)
	m.RecordHTTPRequest("GET", "/dashboards/:id", "404", 30*time.Millisecond, 0, 32)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "/dashboards/:id", "404")))

	snap := m.Snapshot()
	assert.Equal(t, int64(2), snap.TotalRequests)
	assert.Equal(t, int64(1), snap.TotalErrors)
	assert.InDelta(t, 20.0, snap.AvgLatencyMS, 0.001)
}

func TestRenderAndResolutionMetrics(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.RecordRender("Salah", "success", time.Millisecond)
	m.RecordRender("Salah", "error", time.Millisecond)
	m.IncStaleDiscarded("Chart")
	m.RecordResolution("Chart", "warnings", "Type", "Label")
	m.SetTilesActive(4)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Renders.WithLabelValues("Salah", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StaleDiscarded.WithLabelValues("Chart")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CoercionWarnings.WithLabelValues("Chart", "Label")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.TilesActive))

	snap := m.Snapshot()
	assert.Equal(t, int64(2), snap.TotalRenders)
	assert.Equal(t, int64(1), snap.FailedRenders)
}

func TestWSConnectionGauge(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.IncWSConnections()
	m.IncWSConnections()
	m.DecWSConnections()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.WSConnections))
	assert.Equal(t, int64(1), m.Snapshot().ActiveConnections)
}

func TestMiddlewareLabelsByRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewMetrics(prometheus.NewRegistry())

	r := gin.New()
	r.Use(Middleware(m))
	r.GET("/dashboards/:id", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	for _, id := range []string{"home", "work"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/dashboards/"+id, nil))
		require.Equal(t, http.StatusOK, w.Code)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "/dashboards/:id", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "unmatched", "404")))
}

func TestMiddlewareSkipsPaths(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewMetrics(prometheus.NewRegistry())

	r := gin.New()
	r.Use(Middleware(m, "/metrics"))
	r.GET("/metrics", func(c *gin.Context) { c.Status(http.StatusOK) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, int64(0), m.Snapshot().TotalRequests)
}
