package http

import "github.com/gin-gonic/gin"

// Register mounts every REST route on r. Mutating dashboard routes and the
// city lookup run behind admin.
func (h *Handlers) Register(r gin.IRouter, admin gin.HandlerFunc) {
	r.GET("/", h.Root)
	r.GET("/health", h.Health)

	// Widget catalog
	r.GET("/widgets", h.ListWidgets)
	r.GET("/widgets/:id", h.GetWidget)
	r.POST("/widgets/resolve", h.ResolveWidget)

	// Dashboards
	r.GET("/dashboards", h.ListDashboards)
	r.GET("/dashboards/:id", h.GetDashboard)
	r.GET("/dashboards/:id/board", h.Board)
	r.GET("/dashboards/:id/tiles/:tile", h.GetTile)
	r.POST("/dashboards/:id/tiles/:tile/refresh", h.RefreshTile)

	// Salah
	r.GET("/salah/timings", h.RetrievePrayer)

	protected := r.Group("/", admin)
	protected.POST("/dashboards", h.CreateDashboard)
	protected.PUT("/dashboards/:id", h.PutDashboard)
	protected.DELETE("/dashboards/:id", h.DeleteDashboard)
	protected.PATCH("/dashboards/:id/tiles/:tile", h.PatchTile)
	protected.GET("/salah/cities", h.FindCity)
}
