// Package middleware holds the gin middleware in front of the dashboard API:
// CORS with glob origin patterns, per-client token buckets behind an LRU
// with an optional process-wide ceiling, and the admin capability check.
//
// Admin routes require "Authorization: Bearer <token>" matching the bcrypt
// hash in ADMIN_TOKEN_HASH. Without a hash they answer 403.
//
//	router.Use(middleware.CORS(middleware.WithOrigins(origins)))
//	router.Use(middleware.RateLimit(middleware.DefaultRateLimitConfig()))
//	admin := middleware.NewAdminAuth(hash, logger)
//	edits := router.Group("/", admin.Require())
package middleware
