// Package dashboard provides layout persistence and board assembly.
//
// A layout is a named list of widget occurrences. Layouts are stored as JSON
// through the key-value storage collaborator; a board is a layout whose
// occurrences have been resolved against the widget registry and dispatched
// to the render dispatcher.
//
// Components:
//   - Manager: layout CRUD, board assembly, per-tile edits
//   - Seeder: loads JSON, YAML and TOML layouts from a directory on startup
//
// Storage Structure:
//   - Key: layout:{layout-id}
//   - Value: JSON-encoded Layout
//
// Failure Isolation:
//   - An occurrence with an unknown widget type becomes a placeholder tile
//   - Invalid property values fall back to defaults with warnings
//   - A failed render is an error state on one tile only
//
// Example Usage:
//
//	manager := dashboard.NewManager(store, resolver, dispatcher, logger, metrics)
//	layout, err := manager.Save(ctx, &dashboard.Layout{Name: "Home", Widgets: occs})
//	board, err := manager.Board(ctx, layout.ID)
//	tile, err := manager.UpdateTile(ctx, layout.ID, tileID, map[string]any{"chartType": "Line Chart"})
package dashboard
