package widget

import (
	"fmt"
)

// Occurrence is a persisted widget placement. Properties may be partial,
// carry stale keys, or hold values of the wrong shape.
type Occurrence struct {
	ID           string         `json:"id" yaml:"id" toml:"id"`
	DefinitionID string         `json:"definitionId" yaml:"definitionId" toml:"definitionId"`
	Position     Position       `json:"gridPosition" yaml:"gridPosition" toml:"gridPosition"`
	Size         Size           `json:"gridSize" yaml:"gridSize" toml:"gridSize"`
	Properties   map[string]any `json:"properties,omitempty" yaml:"properties,omitempty" toml:"properties,omitempty"`
}

// Properties maps option name to a normalized value
type Properties map[string]any

// String returns a text or select property
func (p Properties) String(name string) string {
	s, _ := p[name].(string)
	return s
}

// Bool returns a boolean property
func (p Properties) Bool(name string) bool {
	b, _ := p[name].(bool)
	return b
}

// Number returns a numeric property
func (p Properties) Number(name string) float64 {
	f, _ := p[name].(float64)
	return f
}

// Location returns a location property
func (p Properties) Location(name string) Location {
	loc, _ := p[name].(Location)
	return loc
}

// Instance is a fully resolved widget occurrence: every declared option is
// present and valid, nothing undeclared remains, and the size fits the grid.
type Instance struct {
	ID           string      `json:"id"`
	DefinitionID string      `json:"definitionId"`
	Position     Position    `json:"gridPosition"`
	Size         Size        `json:"gridSize"`
	Properties   Properties  `json:"properties"`
	Definition   *Definition `json:"-"`
}

// Result is the per-occurrence outcome of ResolveAll
type Result struct {
	Occurrence Occurrence        `json:"occurrence"`
	Instance   *Instance         `json:"instance,omitempty"`
	Warnings   []CoercionWarning `json:"warnings,omitempty"`
	Err        error             `json:"-"`
}

// Resolver turns stored occurrences into instances against a registry
type Resolver struct {
	registry *Registry
}

// NewResolver creates a resolver reading from reg
func NewResolver(reg *Registry) *Resolver {
	return &Resolver{registry: reg}
}

// Resolve fills missing options with defaults, replaces invalid values with
// defaults (reporting a CoercionWarning each), drops undeclared keys and
// clamps the size. The only error is ErrUnknownWidgetType.
func (r *Resolver) Resolve(occ Occurrence) (*Instance, []CoercionWarning, error) {
	def, ok := r.registry.Get(occ.DefinitionID)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownWidgetType, occ.DefinitionID)
	}

	var warnings []CoercionWarning
	props := make(Properties, len(def.Options))
	defaults := def.Defaults()

	for _, name := range def.OptionNames() {
		stored, present := occ.Properties[name]
		if !present {
			props[name] = defaults[name]
			continue
		}

		v, err := def.Options[name].Normalize(stored)
		if err != nil {
			warnings = append(warnings, CoercionWarning{
				Option: name,
				Value:  stored,
				Reason: err.Error(),
			})
			props[name] = defaults[name]
			continue
		}
		props[name] = v
	}

	pos := occ.Position
	if pos.X < 0 {
		pos.X = 0
	}
	if pos.Y < 0 {
		pos.Y = 0
	}

	return &Instance{
		ID:           occ.ID,
		DefinitionID: def.ID,
		Position:     pos,
		Size:         def.Grid.Clamp(occ.Size),
		Properties:   props,
		Definition:   def,
	}, warnings, nil
}

// ResolveAll resolves each occurrence independently; one failure never
// affects the others.
func (r *Resolver) ResolveAll(occs []Occurrence) []Result {
	results := make([]Result, len(occs))
	for i, occ := range occs {
		inst, warnings, err := r.Resolve(occ)
		results[i] = Result{
			Occurrence: occ,
			Instance:   inst,
			Warnings:   warnings,
			Err:        err,
		}
	}
	return results
}
