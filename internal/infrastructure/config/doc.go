// Package config provides 12-factor configuration management for the
// dashboard backend.
//
// Configuration is loaded from environment variables with sensible defaults.
// CLI flags can override environment variables for development flexibility.
//
// Configuration Sections:
//   - Server: HTTP listener, shutdown and compression
//   - Logging: log level and output format
//   - RateLimit: per-IP and process-wide inbound rate limiting
//   - Storage: layout persistence backend and seed directory
//   - Providers: geocoding and prayer-time endpoints, outbound client tuning
//   - Render: asynchronous render timeout
//   - Auth: admin capability token
//   - CORS: allowed browser origins
//
// Example Usage:
//
//	cfg, err := config.Load()
//	if err != nil {
//		cfg = config.Default()
//	}
//
// Environment Variables:
//   - PORT, HOST, SHUTDOWN_TIMEOUT, GZIP_ENABLED
//   - LOG_LEVEL, LOG_DEV
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST, RATE_LIMIT_MAX_CLIENTS, RATE_LIMIT_GLOBAL_RPS, RATE_LIMIT_ENABLED
//   - STORAGE_BACKEND, STORAGE_PATH, STORAGE_CACHE_SIZE, SEED_DIR
//   - REDIS_ADDR, REDIS_PASSWORD, REDIS_DB, REDIS_PREFIX
//   - GEOCODING_URL, PRAYER_URL, FETCH_TIMEOUT, FETCH_RETRIES, FETCH_RPS
//   - RENDER_TIMEOUT
//   - ADMIN_TOKEN_HASH
//   - CORS_ORIGINS (comma-separated origins or glob patterns)
package config
