// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import "time"

// Store backends accepted by STORE_BACKEND.
const (
	BackendNone     = "none"
	BackendMemory   = "memory"
	BackendMongo    = "mongo"
	BackendPostgres = "postgres"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	Auth     AuthConfig
	CORS     CORSConfig
	Rate     RateLimitConfig
	Store    StoreConfig
	Pipeline PipelineConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading the request (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing the response (default: 30s)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"30s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// AuthConfig holds signed-token settings for the read API.
type AuthConfig struct {
	// SecretKey is the HS256 signing secret. Required by the server only.
	SecretKey string `env:"JWT_SECRET_KEY"`

	// Header is the request header carrying the token (default: JWT)
	Header string `env:"JWT_HEADER" default:"JWT"`

	// Leeway tolerates clock skew when checking exp and nbf (default: 0s)
	Leeway time.Duration `env:"JWT_LEEWAY" default:"0s"`
}

// CORSConfig holds cross-origin settings for the read API.
type CORSConfig struct {
	// AllowedOrigins is a comma-separated list of origins (default: *)
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" default:"*"`

	// AllowCredentials sets Access-Control-Allow-Credentials (default: true)
	AllowCredentials bool `env:"CORS_ALLOW_CREDENTIALS" default:"true"`

	// MaxAge is how long browsers may cache a preflight (default: 10m)
	MaxAge time.Duration `env:"CORS_MAX_AGE" default:"10m"`
}

// RateLimitConfig holds rate limiting settings per time window.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the limit per client IP (default: 100)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`
}

// StoreConfig selects and configures the document store.
type StoreConfig struct {
	// Backend is one of none, memory, mongo, postgres (default: none)
	Backend string `env:"STORE_BACKEND" default:"none"`

	// Timeout bounds every store call (default: 10s)
	Timeout time.Duration `env:"STORE_TIMEOUT" default:"10s"`

	Mongo    MongoConfig
	Postgres DatabaseConfig
}

// MongoConfig holds MongoDB connection and collection settings.
type MongoConfig struct {
	// URI is the MongoDB connection string (default: mongodb://localhost:27017)
	URI string `env:"MONGO_CLIENT_DB" default:"mongodb://localhost:27017"`

	// Database is the database name (default: recordflow)
	Database string `env:"MONGO_DATABASE" default:"recordflow"`

	// CollectionOK holds valid records (default: collection_ok)
	CollectionOK string `env:"MONGO_COLLECTION_OK" default:"collection_ok"`

	// CollectionKO holds invalid records (default: collection_ko)
	CollectionKO string `env:"MONGO_COLLECTION_KO" default:"collection_ko"`

	// CollectionHistory holds run summaries (default: historic)
	CollectionHistory string `env:"MONGO_HISTORIC" default:"historic"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string, required for the postgres backend.
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// MaxConns is the maximum number of connections in the pool (default: 10)
	MaxConns int `env:"DB_MAX_CONNS" default:"10"`

	// MinConns is the minimum number of connections to keep open (default: 1)
	MinConns int `env:"DB_MIN_CONNS" default:"1"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`

	// MaxConnIdleTime is the maximum idle time before a connection is closed (default: 30m)
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// PipelineConfig holds settings for cmd/pipeline.
type PipelineConfig struct {
	// ParamsPath is the invocation file to run
	ParamsPath string `env:"PIPELINE_PARAMS_PATH"`

	// Dataflow restricts the run to one dataflow; empty runs all
	Dataflow string `env:"PIPELINE_DATAFLOW"`

	// Schedule is a cron expression; empty runs once
	Schedule string `env:"PIPELINE_SCHEDULE"`

	// Watch re-runs the pipeline when the invocation or a source changes
	Watch bool `env:"PIPELINE_WATCH" default:"false"`

	// WatchDebounce coalesces bursts of file events (default: 500ms)
	WatchDebounce time.Duration `env:"PIPELINE_WATCH_DEBOUNCE" default:"500ms"`

	// WriteParallelism bounds concurrent sink path writes (default: 1)
	WriteParallelism int `env:"PIPELINE_WRITE_PARALLELISM" default:"1"`

	// RequireSinks aborts a run when a partition has no sink (default: true)
	RequireSinks bool `env:"PIPELINE_REQUIRE_SINKS" default:"true"`

	// Timeout bounds a single run, 0 disables (default: 10m)
	Timeout time.Duration `env:"PIPELINE_TIMEOUT" default:"10m"`
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
	if c.Host == "" {
		return ":" + itoa(c.Port)
	}
	return c.Host + ":" + itoa(c.Port)
}

// itoa converts an int to string without importing strconv in this file.
func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	var b [20]byte
	n := len(b)
	neg := i < 0
	if neg {
		i = -i
	}
	for i > 0 {
		n--
		b[n] = byte('0' + i%10)
		i /= 10
	}
	if neg {
		n--
		b[n] = '-'
	}
	return string(b[n:])
}
