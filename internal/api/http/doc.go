// Package http provides HTTP handlers for the dashboard REST API.
//
// Endpoints:
//   - Health: / and /health
//   - Widgets: /widgets, /widgets/:id, /widgets/resolve
//   - Dashboards: /dashboards, /dashboards/:id, /dashboards/:id/board
//   - Tiles: /dashboards/:id/tiles/:tile (?wait=true), .../refresh
//   - Salah: /salah/cities (admin), /salah/timings
//
// Every error answers {"error": "..."} with a status derived from the error
// chain: 400 invalid input, 403 missing admin capability, 404 unknown layout,
// tile or widget, 422 unknown widget type in a resolve request, 502 upstream
// failure, 503 open circuit, 504 timeout.
//
// Example Usage:
//
//	handlers := http.NewHandlers(http.Deps{Registry: reg, Layouts: manager, ...})
//	router.GET("/dashboards/:id/board", handlers.Board)
package http
