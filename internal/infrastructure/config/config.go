package config

import (
	"fmt"
	"net"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
	Storage   StorageConfig
	Providers ProvidersConfig
	Render    RenderConfig
	Auth      AuthConfig
	CORS      CORSConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            string        `envconfig:"PORT" default:"8000"`
	Host            string        `envconfig:"HOST" default:"0.0.0.0"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
	Gzip            bool          `envconfig:"GZIP_ENABLED" default:"true"`
}

// Addr returns the listen address
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, s.Port)
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds per-client and process-wide request limits.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	MaxClients        int  `envconfig:"RATE_LIMIT_MAX_CLIENTS" default:"10000"`
	GlobalRPS         int  `envconfig:"RATE_LIMIT_GLOBAL_RPS" default:"0"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// StorageConfig holds layout persistence configuration.
type StorageConfig struct {
	Backend   string `envconfig:"STORAGE_BACKEND" default:"memory"`
	Path      string `envconfig:"STORAGE_PATH" default:"./data/dashboards.db"`
	CacheSize int    `envconfig:"STORAGE_CACHE_SIZE" default:"1024"`
	SeedDir   string `envconfig:"SEED_DIR" default:"./layouts"`

	RedisAddr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`
	RedisPrefix   string `envconfig:"REDIS_PREFIX" default:"dashboard:"`
}

// ProvidersConfig holds external collaborator configuration.
type ProvidersConfig struct {
	GeocodingURL string        `envconfig:"GEOCODING_URL" default:"https://geocoding-api.open-meteo.com/v1/search"`
	PrayerURL    string        `envconfig:"PRAYER_URL" default:"http://api.aladhan.com/v1/timings"`
	FetchTimeout time.Duration `envconfig:"FETCH_TIMEOUT" default:"15s"`
	FetchRetries int           `envconfig:"FETCH_RETRIES" default:"2"`
	FetchRPS     float64       `envconfig:"FETCH_RPS" default:"0"`
}

// RenderConfig holds render dispatcher configuration.
type RenderConfig struct {
	// Timeout bounds asynchronous renders; zero disables it
	Timeout time.Duration `envconfig:"RENDER_TIMEOUT" default:"0s"`
}

// AuthConfig holds admin capability configuration.
type AuthConfig struct {
	// AdminTokenHash is a bcrypt hash of the admin bearer token. Empty
	// disables every admin route.
	AdminTokenHash string `envconfig:"ADMIN_TOKEN_HASH"`
}

// CORSConfig holds browser origin configuration.
type CORSConfig struct {
	// Origins are exact origins or glob patterns; "*" allows any origin
	Origins []string `envconfig:"CORS_ORIGINS" default:"*"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            "8000",
			Host:            "0.0.0.0",
			ShutdownTimeout: 10 * time.Second,
			Gzip:            true,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			MaxClients:        10000,
			Enabled:           true,
		},
		Storage: StorageConfig{
			Backend:     "memory",
			Path:        "./data/dashboards.db",
			CacheSize:   1024,
			SeedDir:     "./layouts",
			RedisAddr:   "localhost:6379",
			RedisDB:     0,
			RedisPrefix: "dashboard:",
		},
		Providers: ProvidersConfig{
			GeocodingURL: "https://geocoding-api.open-meteo.com/v1/search",
			PrayerURL:    "http://api.aladhan.com/v1/timings",
			FetchTimeout: 15 * time.Second,
			FetchRetries: 2,
		},
		CORS: CORSConfig{
			Origins: []string{"*"},
		},
	}
}
