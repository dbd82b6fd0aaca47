package http

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/Dashboard/backend/internal/widget"
)

// FindCity looks up cities for the location picker. Admin only.
func (h *Handlers) FindCity(c *gin.Context) {
	result, err := h.geocoding.FindCity(c.Request.Context(), c.Query("query"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// RetrievePrayer returns the day's timings for a location. Public.
func (h *Handlers) RetrievePrayer(c *gin.Context) {
	lat, err := strconv.ParseFloat(c.Query("latitude"), 64)
	if err != nil {
		h.fail(c, fmt.Errorf("%w: latitude must be a number", errBadRequest))
		return
	}
	lon, err := strconv.ParseFloat(c.Query("longitude"), 64)
	if err != nil {
		h.fail(c, fmt.Errorf("%w: longitude must be a number", errBadRequest))
		return
	}

	salah, err := h.prayer.Retrieve(c.Request.Context(), widget.Location{Latitude: lat, Longitude: lon})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, salah)
}
