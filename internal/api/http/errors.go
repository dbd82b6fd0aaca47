package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/Dashboard/backend/internal/domain/dashboard"
	"github.com/GriffinCanCode/Dashboard/backend/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/Dashboard/backend/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/Dashboard/backend/internal/providers/geocoding"
	"github.com/GriffinCanCode/Dashboard/backend/internal/providers/http/client"
	"github.com/GriffinCanCode/Dashboard/backend/internal/providers/prayer"
	"github.com/GriffinCanCode/Dashboard/backend/internal/render"
	"github.com/GriffinCanCode/Dashboard/backend/internal/widget"
)

// errBadRequest marks malformed request input
var errBadRequest = errors.New("bad request")

// statusFor maps an error chain to an HTTP status
func statusFor(err error) int {
	switch {
	case errors.Is(err, dashboard.ErrLayoutNotFound),
		errors.Is(err, dashboard.ErrTileNotFound),
		errors.Is(err, widget.ErrUnknownWidgetType),
		errors.Is(err, render.ErrUnknownTile):
		return http.StatusNotFound
	case errors.Is(err, errBadRequest),
		errors.Is(err, dashboard.ErrInvalidLayout),
		errors.Is(err, geocoding.ErrQueryTooShort),
		errors.Is(err, geocoding.ErrQueryTooLong),
		errors.Is(err, prayer.ErrInvalidLocation):
		return http.StatusBadRequest
	case errors.Is(err, resilience.ErrCircuitOpen),
		errors.Is(err, resilience.ErrTooManyRequests):
		return http.StatusServiceUnavailable
	case errors.Is(err, client.ErrFetchFailure):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// fail writes {"error": ...} with the mapped status. Server-side failures
// are logged; client errors are not.
func (h *Handlers) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError || status == http.StatusBadGateway {
		fields := append([]zap.Field{
			zap.String("path", c.FullPath()),
			zap.Int("status", status),
			zap.Error(err),
		}, tracing.Fields(c.Request.Context())...)
		h.logger.Error("Request failed", fields...)
	}
	_ = c.Error(err)

	body := gin.H{"error": err.Error()}
	if trace := tracing.GetTraceID(c.Request.Context()); trace != "" {
		body["traceId"] = trace
	}
	c.JSON(status, body)
}
