package dashboard

import (
	"errors"
	"fmt"
	"time"

	"github.com/GriffinCanCode/Dashboard/backend/internal/render"
	"github.com/GriffinCanCode/Dashboard/backend/internal/shared/utils"
	"github.com/GriffinCanCode/Dashboard/backend/internal/widget"
)

var (
	// ErrLayoutNotFound is returned when no layout is stored under an ID
	ErrLayoutNotFound = errors.New("layout not found")

	// ErrTileNotFound is returned when a layout has no occurrence with an ID
	ErrTileNotFound = errors.New("tile not found")

	// ErrInvalidLayout is returned when a layout fails structural validation
	ErrInvalidLayout = errors.New("invalid layout")
)

// TileErrorUnknownType marks placeholder tiles whose widget type is not registered
const TileErrorUnknownType = "unknown_widget_type"

// Layout is a persisted dashboard: a named list of widget occurrences
type Layout struct {
	ID        string              `json:"id"`
	Name      string              `json:"name"`
	Widgets   []widget.Occurrence `json:"widgets"`
	UpdatedAt time.Time           `json:"updatedAt"`
}

// Summary is the listing view of a layout
type Summary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Widgets   int       `json:"widgets"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Summary returns the listing view of l
func (l *Layout) Summary() Summary {
	return Summary{ID: l.ID, Name: l.Name, Widgets: len(l.Widgets), UpdatedAt: l.UpdatedAt}
}

// occurrence returns the index of the occurrence with the given ID
func (l *Layout) occurrence(tileID string) int {
	for i := range l.Widgets {
		if l.Widgets[i].ID == tileID {
			return i
		}
	}
	return -1
}

// validate checks identifiers, counts and property depth. Unknown widget
// types are allowed: they persist and render as placeholders.
func (l *Layout) validate() error {
	if err := utils.ValidateID(l.ID, "id", true); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidLayout, err)
	}
	if err := utils.ValidateName(l.Name, "name"); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidLayout, err)
	}
	if len(l.Widgets) > utils.MaxWidgetsPerLayout {
		return fmt.Errorf("%w: %d widgets exceeds maximum of %d", ErrInvalidLayout, len(l.Widgets), utils.MaxWidgetsPerLayout)
	}

	seen := make(map[string]struct{}, len(l.Widgets))
	for i, occ := range l.Widgets {
		if err := utils.ValidateID(occ.ID, fmt.Sprintf("widgets[%d].id", i), true); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidLayout, err)
		}
		if _, dup := seen[occ.ID]; dup {
			return fmt.Errorf("%w: duplicate tile id %q", ErrInvalidLayout, occ.ID)
		}
		seen[occ.ID] = struct{}{}

		if occ.DefinitionID == "" {
			return fmt.Errorf("%w: widgets[%d].definitionId is required", ErrInvalidLayout, i)
		}
		if err := utils.ValidateDepth(occ.Properties, utils.MaxPropertyDepth); err != nil {
			return fmt.Errorf("%w: widgets[%d].properties: %v", ErrInvalidLayout, i, err)
		}
	}
	return nil
}

// Tile is one resolved occurrence on a board. Instance is nil for
// placeholder tiles, which carry Error instead.
type Tile struct {
	ID       string                   `json:"id"`
	Widget   string                   `json:"widget"`
	Instance *widget.Instance         `json:"instance,omitempty"`
	Warnings []widget.CoercionWarning `json:"warnings,omitempty"`
	Error    string                   `json:"error,omitempty"`
	State    render.State             `json:"state"`
}

// Board is a layout resolved for display
type Board struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Tiles []Tile `json:"tiles"`
}
