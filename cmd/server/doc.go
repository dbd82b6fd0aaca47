// Command server runs the dashboard backend.
//
// It serves the widget catalog, stored layouts and per-tile render state
// over REST, and streams tile updates to subscribed clients on /stream.
// Layouts live in memory, buntdb or redis, and are seeded from YAML, TOML
// or JSON files at startup.
//
// Settings come from the environment (see package config); flags override
// them:
//
//	ADMIN_TOKEN_HASH='$2a$10$...' server -port 8000 -storage buntdb
//	server -dev -seed ./layouts
//
// SIGINT or SIGTERM drains in-flight requests and closes the store.
package main
