package http

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/Dashboard/backend/internal/shared/utils"
	"github.com/GriffinCanCode/Dashboard/backend/internal/widget"
)

// ListWidgets lists every registered definition in registration order
func (h *Handlers) ListWidgets(c *gin.Context) {
	defs := h.registry.List()
	c.JSON(http.StatusOK, gin.H{
		"widgets": defs,
		"stats":   h.registry.Stats(),
	})
}

// GetWidget returns one definition
func (h *Handlers) GetWidget(c *gin.Context) {
	id := c.Param("id")
	def, ok := h.registry.Get(id)
	if !ok {
		h.fail(c, fmt.Errorf("%w: %q", widget.ErrUnknownWidgetType, id))
		return
	}
	c.JSON(http.StatusOK, def)
}

// ResolveWidget resolves one occurrence without storing it, so a settings
// form can preview defaults, coercions and the clamped size.
func (h *Handlers) ResolveWidget(c *gin.Context) {
	var occ widget.Occurrence
	if err := bindJSON(c, utils.MaxPropertiesSize, &occ); err != nil {
		h.fail(c, err)
		return
	}
	if occ.DefinitionID == "" {
		h.fail(c, fmt.Errorf("%w: definitionId is required", errBadRequest))
		return
	}

	inst, warnings, err := h.resolver.Resolve(occ)
	if errors.Is(err, widget.ErrUnknownWidgetType) {
		h.metrics.RecordResolution(occ.DefinitionID, "unknown_type")
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		h.fail(c, err)
		return
	}

	warned := make([]string, 0, len(warnings))
	for _, w := range warnings {
		warned = append(warned, w.Option)
	}
	outcome := "resolved"
	if len(warned) > 0 {
		outcome = "coerced"
	}
	h.metrics.RecordResolution(occ.DefinitionID, outcome, warned...)

	c.JSON(http.StatusOK, gin.H{
		"instance": inst,
		"warnings": warnings,
	})
}
