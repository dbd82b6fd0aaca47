package http

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/Dashboard/backend/internal/api/middleware"
	"github.com/GriffinCanCode/Dashboard/backend/internal/domain/dashboard"
	"github.com/GriffinCanCode/Dashboard/backend/internal/shared/utils"
)

// MaxTileWait bounds ?wait=true on tile state requests
const MaxTileWait = 30 * time.Second

// ListDashboards lists layout summaries
func (h *Handlers) ListDashboards(c *gin.Context) {
	summaries, err := h.layouts.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"dashboards": summaries,
		"count":      len(summaries),
	})
}

// GetDashboard returns a stored layout
func (h *Handlers) GetDashboard(c *gin.Context) {
	layout, err := h.layouts.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, layout)
}

// CreateDashboard stores a new layout under a generated ID
func (h *Handlers) CreateDashboard(c *gin.Context) {
	var layout dashboard.Layout
	if err := bindJSON(c, utils.MaxLayoutSize, &layout); err != nil {
		h.fail(c, err)
		return
	}
	layout.ID = ""

	saved, err := h.layouts.Save(c.Request.Context(), &layout)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.audit(c, "create", saved.ID)
	c.JSON(http.StatusCreated, saved)
}

// PutDashboard creates or replaces the layout at :id
func (h *Handlers) PutDashboard(c *gin.Context) {
	id := c.Param("id")
	if err := utils.ValidateID(id, "id", true); err != nil {
		h.fail(c, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}

	var layout dashboard.Layout
	if err := bindJSON(c, utils.MaxLayoutSize, &layout); err != nil {
		h.fail(c, err)
		return
	}
	layout.ID = id

	saved, err := h.layouts.Save(c.Request.Context(), &layout)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.audit(c, "replace", saved.ID)
	c.JSON(http.StatusOK, saved)
}

// DeleteDashboard removes a layout and releases its tiles
func (h *Handlers) DeleteDashboard(c *gin.Context) {
	id := c.Param("id")
	if err := h.layouts.Delete(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	h.audit(c, "delete", id)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"id":      id,
	})
}

// Board resolves a layout and dispatches its tiles
func (h *Handlers) Board(c *gin.Context) {
	board, err := h.layouts.Board(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, board)
}

// GetTile returns one tile's render state. With ?wait=true it blocks until
// the render settles, at most MaxTileWait.
func (h *Handlers) GetTile(c *gin.Context) {
	wait := false
	if raw := c.Query("wait"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			h.fail(c, fmt.Errorf("%w: wait must be a boolean", errBadRequest))
			return
		}
		wait = parsed
	}

	ctx := c.Request.Context()
	if wait {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, MaxTileWait)
		defer cancel()
	}

	state, err := h.layouts.TileState(ctx, c.Param("id"), c.Param("tile"), wait)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"tile":  c.Param("tile"),
		"state": state,
	})
}

type patchTileRequest struct {
	Properties map[string]any `json:"properties"`
}

// PatchTile merges properties into a tile and re-renders it
func (h *Handlers) PatchTile(c *gin.Context) {
	var req patchTileRequest
	if err := bindJSON(c, utils.MaxPropertiesSize, &req); err != nil {
		h.fail(c, err)
		return
	}
	if len(req.Properties) == 0 {
		h.fail(c, fmt.Errorf("%w: properties are required", errBadRequest))
		return
	}

	tile, err := h.layouts.UpdateTile(c.Request.Context(), c.Param("id"), c.Param("tile"), req.Properties)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, tile)
}

// RefreshTile re-renders a tile with unchanged properties
func (h *Handlers) RefreshTile(c *gin.Context) {
	tile, err := h.layouts.RefreshTile(c.Request.Context(), c.Param("id"), c.Param("tile"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusAccepted, tile)
}

// audit records a layout mutation and the capability it ran under
func (h *Handlers) audit(c *gin.Context, action, layoutID string) {
	h.logger.Info("Layout changed",
		zap.String("action", action),
		zap.String("layout", layoutID),
		zap.String("capability", middleware.Capability(c)),
		zap.String("client_ip", c.ClientIP()))
}
