/*
Package monitoring provides Prometheus metrics for the dashboard backend.

# Overview

Metrics are registered on an injected prometheus.Registerer rather than the
global default, so each test can build its own collector. A nil *Metrics is a
valid no-op collector.

# Features

- HTTP request metrics (latency, throughput, size) labeled by route template
- Widget registry size, resolutions and coercion warnings
- Tile renders by status, render latency and stale-result discards
- Outbound fetches by host and status
- Stored layouts, saves and deletions
- WebSocket connections and messages

# Usage

	reg := prometheus.NewRegistry()
	metrics := monitoring.NewMetrics(reg)

	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	timer := monitoring.NewTimer()
	// ... render ...
	metrics.RecordRender("Chart", "success", timer.Elapsed())
*/
package monitoring
