package middleware

import (
	"net/http"
	"slices"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORSConfig defines which browser origins may call the API. Admin calls
// authenticate with a bearer header, never cookies, so credentials are not
// allowed.
type CORSConfig struct {
	// AllowOrigins holds exact origins or glob patterns such as
	// "https://*.example.com". "*" or an empty list allows any origin.
	AllowOrigins  []string
	AllowMethods  []string
	AllowHeaders  []string
	ExposeHeaders []string
	MaxAge        time.Duration
}

// WithOrigins returns the dashboard CORS policy for the given origins
func WithOrigins(origins []string) CORSConfig {
	return CORSConfig{
		AllowOrigins: origins,
		AllowMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowHeaders: []string{
			"Origin",
			"Accept",
			"Accept-Encoding",
			"Authorization",
			"Cache-Control",
			"Content-Type",
			"Content-Length",
			"X-Requested-With",
			"X-Trace-ID",
			"X-Span-ID",
		},
		ExposeHeaders: []string{"X-Trace-ID", "X-Span-ID"},
		MaxAge:        12 * time.Hour,
	}
}

// CORS creates a CORS middleware with the provided configuration.
func CORS(cfg CORSConfig) gin.HandlerFunc {
	c := cors.Config{
		AllowMethods:  cfg.AllowMethods,
		AllowHeaders:  cfg.AllowHeaders,
		ExposeHeaders: cfg.ExposeHeaders,
		MaxAge:        cfg.MaxAge,
	}
	if len(cfg.AllowOrigins) == 0 || slices.Contains(cfg.AllowOrigins, "*") {
		c.AllowAllOrigins = true
	} else {
		c.AllowOriginFunc = OriginMatcher(cfg.AllowOrigins)
	}
	return cors.New(c)
}

// OriginMatcher reports whether an origin equals or glob-matches one of
// patterns. Invalid patterns never match.
func OriginMatcher(patterns []string) func(origin string) bool {
	return func(origin string) bool {
		for _, p := range patterns {
			if p == origin {
				return true
			}
			if ok, err := doublestar.Match(p, origin); err == nil && ok {
				return true
			}
		}
		return false
	}
}
