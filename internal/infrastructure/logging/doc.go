// Package logging builds the zap loggers used across the backend: JSON with
// sampling in production, colored console output with LOG_DEV=true.
//
// Each component takes a named child from Component and logs with fields
// rather than formatted strings; Tile and Elapsed cover the two fields
// nearly every render path needs.
//
//	logger := logging.NewDefault()
//	defer logger.Close()
//	logger.Component("render").Info("Render settled", logging.Tile("home", "t1"))
package logging
