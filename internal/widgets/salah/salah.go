// Package salah implements the prayer-times widget.
package salah

import (
	"context"

	"github.com/GriffinCanCode/Dashboard/backend/internal/providers/prayer"
	"github.com/GriffinCanCode/Dashboard/backend/internal/shared/utils"
	"github.com/GriffinCanCode/Dashboard/backend/internal/widget"
)

// ID is the prayer widget's definition ID
const ID = "Salah"

// Option names
const (
	OptTitle    = "customTitle"
	OptLocation = "location"
)

// Retriever fetches prayer timings for a location
type Retriever interface {
	Retrieve(ctx context.Context, loc widget.Location) (*prayer.Salah, error)
}

// View is the rendered prayer tile
type View struct {
	Title    string          `json:"title"`
	Location widget.Location `json:"location"`
	Timings  []prayer.Timing `json:"timings"`
}

// Definition declares the Salah widget rendering through retriever
func Definition(retriever Retriever) *widget.Definition {
	return &widget.Definition{
		ID:   ID,
		Icon: "alarm",
		Options: map[string]widget.Option{
			OptTitle:    widget.Text("Salah"),
			OptLocation: widget.LocationAt(48.85341, 2.3488),
		},
		Grid: widget.GridConstraints{
			MinWidth:  1,
			MinHeight: 1,
			MaxWidth:  2,
			MaxHeight: 4,
		},
		Render: widget.RenderFunc(func(ctx context.Context, inst *widget.Instance) (any, error) {
			loc := inst.Properties.Location(OptLocation)
			salah, err := retriever.Retrieve(ctx, loc)
			if err != nil {
				return nil, err
			}
			return View{
				Title:    utils.SanitizeText(inst.Properties.String(OptTitle)),
				Location: loc,
				Timings:  salah.Timings.Ordered(),
			}, nil
		}),
	}
}
