package widget

import (
	"context"
	"fmt"
	"reflect"
	"sort"
)

// Position is a tile's origin on the dashboard grid
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Size is a tile's footprint in grid cells
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// GridConstraints bounds a tile's footprint in grid cells
type GridConstraints struct {
	MinWidth  int `json:"minWidth"`
	MinHeight int `json:"minHeight"`
	MaxWidth  int `json:"maxWidth"`
	MaxHeight int `json:"maxHeight"`
}

// Validate checks that all bounds are positive and min <= max on both axes
func (g GridConstraints) Validate() error {
	if g.MinWidth <= 0 || g.MinHeight <= 0 || g.MaxWidth <= 0 || g.MaxHeight <= 0 {
		return fmt.Errorf("%w: bounds must be positive, got %+v", ErrInvalidGridConstraint, g)
	}
	if g.MinWidth > g.MaxWidth {
		return fmt.Errorf("%w: minWidth %d > maxWidth %d", ErrInvalidGridConstraint, g.MinWidth, g.MaxWidth)
	}
	if g.MinHeight > g.MaxHeight {
		return fmt.Errorf("%w: minHeight %d > maxHeight %d", ErrInvalidGridConstraint, g.MinHeight, g.MaxHeight)
	}
	return nil
}

// Clamp moves each axis of s into [min, max]
func (g GridConstraints) Clamp(s Size) Size {
	return Size{
		Width:  clamp(s.Width, g.MinWidth, g.MaxWidth),
		Height: clamp(s.Height, g.MinHeight, g.MaxHeight),
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Renderer turns a resolved instance into tile view data
type Renderer interface {
	Render(ctx context.Context, inst *Instance) (any, error)
}

// RenderFunc adapts a function to Renderer
type RenderFunc func(ctx context.Context, inst *Instance) (any, error)

// Render calls f
func (f RenderFunc) Render(ctx context.Context, inst *Instance) (any, error) {
	return f(ctx, inst)
}

// Inline is implemented by renderers that only lay out resolved properties.
// The dispatcher settles them without a loading state.
type Inline interface {
	Renderer
	Inline() bool
}

// Definition is a named widget type: its options, grid footprint and renderer.
// Definitions are declared once at startup and never mutated after registration.
type Definition struct {
	ID      string            `json:"id"`
	Icon    string            `json:"icon"`
	Options map[string]Option `json:"options"`
	Grid    GridConstraints   `json:"gridConstraints"`
	Render  Renderer          `json:"-"`
}

// Validate runs the registration-time checks: non-empty ID, a renderer,
// valid defaults for every option and consistent grid constraints.
func (d *Definition) Validate() error {
	if d.ID == "" {
		// An empty ID can never be unique, so it also matches ErrDuplicateDefinition
		return &DefinitionError{Err: fmt.Errorf("%w: %w: id is required", ErrInvalidDefinition, ErrDuplicateDefinition)}
	}
	if d.Render == nil {
		return &DefinitionError{ID: d.ID, Err: fmt.Errorf("%w: renderer is required", ErrInvalidDefinition)}
	}
	for _, name := range d.OptionNames() {
		if err := d.Options[name].validate(); err != nil {
			return &DefinitionError{ID: d.ID, Option: name, Err: err}
		}
	}
	if err := d.Grid.Validate(); err != nil {
		return &DefinitionError{ID: d.ID, Err: err}
	}
	return nil
}

// OptionNames returns the declared option names in sorted order
func (d *Definition) OptionNames() []string {
	names := make([]string, 0, len(d.Options))
	for name := range d.Options {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Defaults returns the normalized default for every option
func (d *Definition) Defaults() Properties {
	props := make(Properties, len(d.Options))
	for name, opt := range d.Options {
		// Defaults are validated at registration; fall back to the raw value otherwise.
		v, err := opt.Normalize(opt.Default)
		if err != nil {
			v = opt.Default
		}
		props[name] = v
	}
	return props
}

// SameShape reports whether two definitions declare the same ID, icon,
// options and grid constraints. Renderers are not compared.
func (d *Definition) SameShape(other *Definition) bool {
	if other == nil {
		return false
	}
	return d.ID == other.ID &&
		d.Icon == other.Icon &&
		d.Grid == other.Grid &&
		reflect.DeepEqual(normalizeOptions(d.Options), normalizeOptions(other.Options))
}

func normalizeOptions(opts map[string]Option) map[string]Option {
	out := make(map[string]Option, len(opts))
	for name, opt := range opts {
		if v, err := opt.Normalize(opt.Default); err == nil {
			opt.Default = v
		}
		if len(opt.Choices) == 0 {
			opt.Choices = nil
		}
		out[name] = opt
	}
	return out
}

// IsInline reports whether the definition's renderer settles synchronously
func (d *Definition) IsInline() bool {
	in, ok := d.Render.(Inline)
	return ok && in.Inline()
}
