// Package widgets registers the built-in widget catalog.
package widgets

import (
	"errors"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/Dashboard/backend/internal/widget"
	"github.com/GriffinCanCode/Dashboard/backend/internal/widgets/chart"
	"github.com/GriffinCanCode/Dashboard/backend/internal/widgets/salah"
)

// Deps are the collaborators the built-in widgets render through
type Deps struct {
	Fetcher chart.Fetcher
	Prayer  salah.Retriever
	Logger  *zap.Logger
}

// Definitions returns the built-in definitions in catalog order
func Definitions(deps Deps) []*widget.Definition {
	return []*widget.Definition{
		chart.Definition(deps.Fetcher),
		salah.Definition(deps.Prayer),
	}
}

// Register adds every built-in definition to reg. A failing definition is
// skipped and reported; the others are still registered.
func Register(reg *widget.Registry, deps Deps) error {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	var errs []error
	for _, def := range Definitions(deps) {
		if err := reg.Register(def); err != nil {
			logger.Error("Failed to register widget", zap.String("widget", def.ID), zap.Error(err))
			errs = append(errs, err)
			continue
		}
		logger.Debug("Registered widget",
			zap.String("widget", def.ID),
			zap.Int("options", len(def.Options)))
	}
	return errors.Join(errs...)
}
