package monitoring

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics. A nil *Metrics is valid and records
// nothing, so components can be built without a registry in tests.
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	RequestSize     *prometheus.HistogramVec
	ResponseSize    *prometheus.HistogramVec

	// Widget metrics
	WidgetsRegistered prometheus.Gauge
	Resolutions       *prometheus.CounterVec
	CoercionWarnings  *prometheus.CounterVec
	Renders           *prometheus.CounterVec
	RenderDuration    *prometheus.HistogramVec
	StaleDiscarded    *prometheus.CounterVec
	TilesActive       prometheus.Gauge

	// Outbound fetch metrics
	Fetches       *prometheus.CounterVec
	FetchDuration *prometheus.HistogramVec

	// Dashboard metrics
	DashboardsStored  prometheus.Gauge
	DashboardsSaved   prometheus.Counter
	DashboardsDeleted prometheus.Counter

	// WebSocket metrics
	WSConnections prometheus.Gauge
	WSMessages    *prometheus.CounterVec

	startTime time.Time

	// Snapshot for JSON API - track current values
	snapshot MetricsSnapshot

	mu sync.RWMutex
}

// MetricsSnapshot holds current metric values for the JSON health API
type MetricsSnapshot struct {
	TotalRequests     int64   `json:"total_requests"`
	TotalErrors       int64   `json:"total_errors"`
	TotalRenders      int64   `json:"total_renders"`
	FailedRenders     int64   `json:"failed_renders"`
	ActiveConnections int64   `json:"active_connections"`
	AvgLatencyMS      float64 `json:"avg_latency_ms"`
	UptimeSeconds     float64 `json:"uptime_seconds"`

	totalDuration float64
}

// NewMetrics creates a metrics collector registered on reg. A nil reg uses
// the process default registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	m := &Metrics{
		startTime: time.Now(),

		// HTTP metrics
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dashboard_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dashboard_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		RequestSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dashboard_http_request_size_bytes",
				Help:    "HTTP request size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000, 10000000},
			},
			[]string{"method", "path"},
		),
		ResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dashboard_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000, 10000000},
			},
			[]string{"method", "path"},
		),

		// Widget metrics
		WidgetsRegistered: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "dashboard_widgets_registered",
				Help: "Number of widget definitions in the registry",
			},
		),
		Resolutions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dashboard_widget_resolutions_total",
				Help: "Widget occurrence resolutions by outcome",
			},
			[]string{"widget", "outcome"},
		),
		CoercionWarnings: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dashboard_widget_coercion_warnings_total",
				Help: "Stored property values replaced by their default",
			},
			[]string{"widget", "option"},
		),
		Renders: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dashboard_renders_total",
				Help: "Settled tile renders by widget and status",
			},
			[]string{"widget", "status"},
		),
		RenderDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dashboard_render_duration_seconds",
				Help:    "Tile render duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 15},
			},
			[]string{"widget"},
		),
		StaleDiscarded: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dashboard_render_stale_discarded_total",
				Help: "Render results dropped because the tile's properties changed",
			},
			[]string{"widget"},
		),
		TilesActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "dashboard_tiles_active",
				Help: "Number of tiles tracked by the render dispatcher",
			},
		),

		// Outbound fetch metrics
		Fetches: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dashboard_fetches_total",
				Help: "Outbound fetches by host and status",
			},
			[]string{"host", "status"},
		),
		FetchDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dashboard_fetch_duration_seconds",
				Help:    "Outbound fetch duration in seconds",
				Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 15},
			},
			[]string{"host"},
		),

		// Dashboard metrics
		DashboardsStored: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "dashboard_layouts_stored",
				Help: "Number of stored dashboard layouts",
			},
		),
		DashboardsSaved: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "dashboard_layouts_saved_total",
				Help: "Total number of layout saves",
			},
		),
		DashboardsDeleted: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "dashboard_layouts_deleted_total",
				Help: "Total number of layout deletions",
			},
		),

		// WebSocket metrics
		WSConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "dashboard_ws_connections",
				Help: "Number of active WebSocket connections",
			},
		),
		WSMessages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dashboard_ws_messages_total",
				Help: "Total number of WebSocket messages",
			},
			[]string{"direction", "type"},
		),
	}

	factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "dashboard_uptime_seconds",
			Help: "Backend uptime in seconds",
		},
		func() float64 { return time.Since(m.startTime).Seconds() },
	)

	return m
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration, reqSize, respSize int64) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	m.RequestSize.WithLabelValues(method, path).Observe(float64(reqSize))
	m.ResponseSize.WithLabelValues(method, path).Observe(float64(respSize))

	m.mu.Lock()
	m.snapshot.TotalRequests++
	m.snapshot.totalDuration += duration.Seconds()
	if status != "" && (status[0] == '4' || status[0] == '5') {
		m.snapshot.TotalErrors++
	}
	m.mu.Unlock()
}

// SetWidgetsRegistered sets the number of registered widget definitions
func (m *Metrics) SetWidgetsRegistered(count int) {
	if m == nil {
		return
	}
	m.WidgetsRegistered.Set(float64(count))
}

// RecordResolution records one occurrence resolution and its warnings
func (m *Metrics) RecordResolution(widget, outcome string, warnedOptions ...string) {
	if m == nil {
		return
	}
	m.Resolutions.WithLabelValues(widget, outcome).Inc()
	for _, opt := range warnedOptions {
		m.CoercionWarnings.WithLabelValues(widget, opt).Inc()
	}
}

// RecordRender records a settled render
func (m *Metrics) RecordRender(widget, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.Renders.WithLabelValues(widget, status).Inc()
	m.RenderDuration.WithLabelValues(widget).Observe(duration.Seconds())

	m.mu.Lock()
	m.snapshot.TotalRenders++
	if status == "error" {
		m.snapshot.FailedRenders++
	}
	m.mu.Unlock()
}

// IncStaleDiscarded counts a render result dropped as stale
func (m *Metrics) IncStaleDiscarded(widget string) {
	if m == nil {
		return
	}
	m.StaleDiscarded.WithLabelValues(widget).Inc()
}

// SetTilesActive sets the number of tracked tiles
func (m *Metrics) SetTilesActive(count int) {
	if m == nil {
		return
	}
	m.TilesActive.Set(float64(count))
}

// RecordFetch records an outbound fetch
func (m *Metrics) RecordFetch(host, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.Fetches.WithLabelValues(host, status).Inc()
	m.FetchDuration.WithLabelValues(host).Observe(duration.Seconds())
}

// SetDashboardsStored sets the number of stored layouts
func (m *Metrics) SetDashboardsStored(count int) {
	if m == nil {
		return
	}
	m.DashboardsStored.Set(float64(count))
}

// IncDashboardsSaved increments the layout save counter
func (m *Metrics) IncDashboardsSaved() {
	if m == nil {
		return
	}
	m.DashboardsSaved.Inc()
}

// IncDashboardsDeleted increments the layout delete counter
func (m *Metrics) IncDashboardsDeleted() {
	if m == nil {
		return
	}
	m.DashboardsDeleted.Inc()
}

// RecordWSMessage records a WebSocket message
func (m *Metrics) RecordWSMessage(direction, msgType string) {
	if m == nil {
		return
	}
	m.WSMessages.WithLabelValues(direction, msgType).Inc()
}

// IncWSConnections increments WebSocket connections
func (m *Metrics) IncWSConnections() {
	if m == nil {
		return
	}
	m.WSConnections.Inc()
	m.mu.Lock()
	m.snapshot.ActiveConnections++
	m.mu.Unlock()
}

// DecWSConnections decrements WebSocket connections
func (m *Metrics) DecWSConnections() {
	if m == nil {
		return
	}
	m.WSConnections.Dec()
	m.mu.Lock()
	m.snapshot.ActiveConnections--
	m.mu.Unlock()
}

// Snapshot returns the current values for the JSON health API
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil {
		return MetricsSnapshot{}
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := m.snapshot
	if s.TotalRequests > 0 {
		s.AvgLatencyMS = s.totalDuration / float64(s.TotalRequests) * 1000
	}
	s.UptimeSeconds = time.Since(m.startTime).Seconds()
	return s
}
