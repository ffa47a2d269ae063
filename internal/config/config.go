// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"strconv"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Import    ImportConfig
	Nutrition NutritionConfig
	Schedule  ScheduleConfig
	Layout    LayoutConfig
	Rate      RateLimitConfig
	Security  SecurityConfig
	Events    EventsConfig
	Logging   LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing response (default: 60s)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"60s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string (required)
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	URL string `env:"DATABASE_URL" envAlt:"DB_URL" required:"true"`

	// MaxConns is the maximum number of connections in the pool (default: 20)
	MaxConns int `env:"DB_MAX_CONNS" default:"20"`

	// MinConns is the minimum number of connections to keep open (default: 4)
	MinConns int `env:"DB_MIN_CONNS" default:"4"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`

	// MaxConnIdleTime is the maximum idle time before a connection is closed (default: 30m)
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`

	// Migrate applies the embedded schema on startup (default: true)
	Migrate bool `env:"DB_MIGRATE" default:"true"`

	// BatchSize is the number of workout upserts per round trip (default: 500)
	BatchSize int `env:"DB_BATCH_SIZE" default:"500"`
}

// ImportConfig holds workout export import settings.
type ImportConfig struct {
	// MaxFileSize is the maximum allowed file size in bytes (default: 20MB)
	MaxFileSize int64 `env:"IMPORT_MAX_FILE_SIZE" default:"20971520"`

	// MaxConcurrent is the maximum number of parallel imports (default: 5)
	MaxConcurrent int `env:"IMPORT_MAX_CONCURRENT" default:"5"`

	// MaxWaitTime is how long to wait for an import slot (default: 30s)
	MaxWaitTime time.Duration `env:"IMPORT_MAX_WAIT_TIME" default:"30s"`

	// Workers is the number of goroutines normalizing rows; 1 is sequential (default: 4)
	Workers int `env:"IMPORT_WORKERS" default:"4"`

	// PreviewRows is the number of rows echoed back as a preview (default: 10)
	PreviewRows int `env:"IMPORT_PREVIEW_ROWS" default:"10"`

	// DefaultSource labels rows without a source column
	DefaultSource string `env:"IMPORT_DEFAULT_SOURCE" default:"trainingpeaks_export"`
}

// NutritionConfig holds plan derivation settings.
type NutritionConfig struct {
	// MaxWeightKg is the largest accepted body weight (default: 250)
	MaxWeightKg float64 `env:"NUTRITION_MAX_WEIGHT_KG" default:"250"`

	// MaxPlanDays caps the length of a derived plan (default: 366)
	MaxPlanDays int `env:"NUTRITION_MAX_PLAN_DAYS" default:"366"`
}

// ScheduleConfig holds conflict resolver settings.
type ScheduleConfig struct {
	// WindowMinutes widens the moved item when selecting candidates (default: 120)
	WindowMinutes int `env:"SCHEDULE_WINDOW_MINUTES" default:"120"`

	// BufferMinutes is the gap kept around a moved item (default: 30)
	BufferMinutes int `env:"SCHEDULE_BUFFER_MINUTES" default:"30"`

	// DayStart is the earliest time an item may be moved to, HH:MM (default: 05:00)
	DayStart string `env:"SCHEDULE_DAY_START" default:"05:00"`

	// DayEnd is the latest time a moved item may end, HH:MM (default: 24:00)
	DayEnd string `env:"SCHEDULE_DAY_END" default:"24:00"`
}

// LayoutConfig holds day grid defaults.
type LayoutConfig struct {
	// StartHour is the first visible hour (default: 5)
	StartHour int `env:"LAYOUT_START_HOUR" default:"5"`

	// EndHour is the last visible hour (default: 24)
	EndHour int `env:"LAYOUT_END_HOUR" default:"24"`

	// PixelsPerHour is the vertical scale (default: 60)
	PixelsPerHour float64 `env:"LAYOUT_PX_PER_HOUR" default:"60"`

	// MinHeightPx is the smallest rendered item height (default: 15)
	MinHeightPx float64 `env:"LAYOUT_MIN_HEIGHT_PX" default:"15"`
}

// RateLimitConfig holds rate limiting settings per time window.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default rate limit per IP (default: 100)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`

	// ImportLimit is requests per minute for upload endpoints (default: 10)
	ImportLimit int `env:"RATE_LIMIT_IMPORT" default:"10"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`
}

// EventsConfig holds domain event publishing settings.
type EventsConfig struct {
	// Enabled turns on Kafka publishing; otherwise events are dropped (default: false)
	Enabled bool `env:"EVENTS_ENABLED" default:"false"`

	// Brokers is a comma-separated list of Kafka brokers
	Brokers []string `env:"KAFKA_BROKERS"`

	// TopicPrefix is prepended to each event type (default: trainfuel)
	TopicPrefix string `env:"KAFKA_TOPIC_PREFIX" default:"trainfuel"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
