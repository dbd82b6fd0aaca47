// Package widget provides the widget definition and configuration framework.
//
// A widget author declares a Definition: an ID, an icon reference, a set of
// typed options with defaults, grid sizing constraints and a Renderer. The
// dashboard host resolves stored, possibly partial occurrences into fully
// typed Instances against a Registry.
//
// Components:
//   - Option: tagged schema for one field (text, select, location, boolean, number)
//   - Definition: named bundle of options, grid constraints and renderer
//   - Registry: definitions keyed by ID, listed in registration order
//   - Resolver: defaulting, validation, stale-key removal and size clamping
//
// Error Taxonomy:
//   - Registration: ErrInvalidDefinition, ErrDuplicateDefinition, ErrInvalidDefault, ErrInvalidGridConstraint
//   - Resolution: ErrUnknownWidgetType (per occurrence), CoercionWarning (non-fatal)
//
// Example Usage:
//
//	reg := widget.NewRegistry()
//	err := reg.Register(&widget.Definition{
//	    ID:      "Clock",
//	    Icon:    "clock",
//	    Options: map[string]widget.Option{"format": widget.Select("24h", "12h", "24h")},
//	    Grid:    widget.GridConstraints{MinWidth: 1, MinHeight: 1, MaxWidth: 2, MaxHeight: 2},
//	    Render:  clockRenderer,
//	})
//	inst, warnings, err := widget.NewResolver(reg).Resolve(occurrence)
package widget
