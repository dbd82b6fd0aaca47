package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/Dashboard/backend/internal/domain/dashboard"
	"github.com/GriffinCanCode/Dashboard/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/Dashboard/backend/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/Dashboard/backend/internal/providers/geocoding"
	"github.com/GriffinCanCode/Dashboard/backend/internal/providers/prayer"
	"github.com/GriffinCanCode/Dashboard/backend/internal/render"
	"github.com/GriffinCanCode/Dashboard/backend/internal/widget"
)

// Version is reported by the root endpoint
const Version = "1.0.0"

// CityFinder looks up cities by name
type CityFinder interface {
	FindCity(ctx context.Context, query string) (*geocoding.Result, error)
}

// PrayerRetriever looks up prayer timings for a location
type PrayerRetriever interface {
	Retrieve(ctx context.Context, loc widget.Location) (*prayer.Salah, error)
}

// BreakerReporter reports upstream circuit states
type BreakerReporter interface {
	BreakerStates() map[string]resilience.Snapshot
}

// Deps are the collaborators the handlers serve
type Deps struct {
	Registry   *widget.Registry
	Resolver   *widget.Resolver
	Layouts    *dashboard.Manager
	Dispatcher *render.Dispatcher
	Geocoding  CityFinder
	Prayer     PrayerRetriever
	Upstreams  BreakerReporter
	Metrics    *monitoring.Metrics
	Logger     *zap.Logger
}

// Handlers contains all HTTP handlers
type Handlers struct {
	registry   *widget.Registry
	resolver   *widget.Resolver
	layouts    *dashboard.Manager
	dispatcher *render.Dispatcher
	geocoding  CityFinder
	prayer     PrayerRetriever
	upstreams  BreakerReporter
	metrics    *monitoring.Metrics
	logger     *zap.Logger
}

// NewHandlers creates a new handler set
func NewHandlers(deps Deps) *Handlers {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	resolver := deps.Resolver
	if resolver == nil && deps.Registry != nil {
		resolver = widget.NewResolver(deps.Registry)
	}
	return &Handlers{
		registry:   deps.Registry,
		resolver:   resolver,
		layouts:    deps.Layouts,
		dispatcher: deps.Dispatcher,
		geocoding:  deps.Geocoding,
		prayer:     deps.Prayer,
		upstreams:  deps.Upstreams,
		metrics:    deps.Metrics,
		logger:     logger,
	}
}

// Root handles the liveness check
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "Dashboard Service (Go)",
		"version": Version,
	})
}

// Health reports component state
func (h *Handlers) Health(c *gin.Context) {
	resp := gin.H{
		"status":  "healthy",
		"widgets": h.registry.Stats(),
		"metrics": h.metrics.Snapshot(),
	}
	if h.dispatcher != nil {
		resp["tiles_active"] = h.dispatcher.Len()
	}
	if h.upstreams != nil {
		resp["upstreams"] = h.upstreams.BreakerStates()
	}
	c.JSON(http.StatusOK, resp)
}
