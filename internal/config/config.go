// Package config loads the service configuration from environment variables
// and validates it on startup so misconfiguration fails fast.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Ingest   IngestConfig
	Blob     BlobConfig
	Metrics  MetricsConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `env:"SERVER_HOST" envDefault:"0.0.0.0"`
	Port int    `env:"SERVER_PORT" envDefault:"8080"`

	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"30s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"6m"`
	IdleTimeout     time.Duration `env:"SERVER_IDLE_TIMEOUT" envDefault:"60s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// RequestTimeout bounds one ingest request end to end.
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" envDefault:"5m"`

	// TrustedProxies is a comma-separated list of proxy CIDRs whose
	// forwarding headers are believed.
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// RateLimit is ingest requests per minute per client; 0 disables it.
	RateLimit int `env:"RATE_LIMIT_INGESTS_PER_MINUTE" envDefault:"30"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// Driver is "pgx" for Postgres or "sqlite".
	Driver string `env:"DB_DRIVER" envDefault:"pgx"`

	// URL is the connection string, or a file path for sqlite.
	URL string `env:"DATABASE_URL"`

	MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" envDefault:"20"`
	MaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS" envDefault:"4"`
	ConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"1h"`

	// AutoMigrate applies pending migrations on startup.
	AutoMigrate bool `env:"DB_AUTO_MIGRATE" envDefault:"true"`
}

// IngestConfig holds pipeline settings.
type IngestConfig struct {
	MaxAttempts int           `env:"INGEST_MAX_ATTEMPTS" envDefault:"5"`
	RetryDelay  time.Duration `env:"INGEST_RETRY_DELAY" envDefault:"600ms"`

	MaxFileSize   int64         `env:"INGEST_MAX_FILE_SIZE" envDefault:"52428800"`
	MaxConcurrent int           `env:"INGEST_MAX_CONCURRENT" envDefault:"5"`
	MaxWait       time.Duration `env:"INGEST_MAX_WAIT" envDefault:"30s"`
}

// BlobConfig selects where original and failed workbooks are kept.
type BlobConfig struct {
	// Backend is "memory", "fs" or "s3".
	Backend      string `env:"BLOB_BACKEND" envDefault:"memory"`
	Dir          string `env:"BLOB_DIR"`
	Bucket       string `env:"BLOB_BUCKET"`
	FailedBucket string `env:"BLOB_FAILED_BUCKET"`

	Region          string `env:"AWS_REGION" envDefault:"eu-west-2"`
	Endpoint        string `env:"BLOB_ENDPOINT"`
	PathStyle       bool   `env:"BLOB_PATH_STYLE" envDefault:"false"`
	AccessKeyID     string `env:"AWS_ACCESS_KEY_ID"`
	SecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY"`
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool `env:"METRICS_ENABLED" envDefault:"true"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `env:"LOG_LEVEL" envDefault:"info"`

	// Format is text or json.
	Format string `env:"LOG_FORMAT" envDefault:"text"`
}

// Load reads configuration from the process environment and validates it.
func Load() (*Config, error) {
	return load(env.Options{Environment: env.ToMap(os.Environ())})
}

// LoadFrom is Load over an explicit environment.
func LoadFrom(environ map[string]string) (*Config, error) {
	return load(env.Options{Environment: environ})
}

func load(opts env.Options) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}
	for i, p := range cfg.Server.TrustedProxies {
		cfg.Server.TrustedProxies[i] = strings.TrimSpace(p)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}

// Validate checks that the configuration is usable and reports every
// problem at once.
func (c *Config) Validate() error {
	var errs []string

	switch c.Database.Driver {
	case "pgx", "sqlite":
	default:
		errs = append(errs, fmt.Sprintf("DB_DRIVER (%q) must be one of: pgx, sqlite", c.Database.Driver))
	}
	if c.Database.URL == "" {
		errs = append(errs, "DATABASE_URL is required")
	}
	if c.Database.MaxOpenConns <= 0 {
		errs = append(errs, "DB_MAX_OPEN_CONNS must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		errs = append(errs, "DB_MAX_IDLE_CONNS must be non-negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		errs = append(errs, fmt.Sprintf("DB_MAX_IDLE_CONNS (%d) must be <= DB_MAX_OPEN_CONNS (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns))
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("SERVER_PORT (%d) must be 1-65535", c.Server.Port))
	}
	if c.Server.ReadTimeout < 0 || c.Server.WriteTimeout < 0 {
		errs = append(errs, "SERVER_READ_TIMEOUT and SERVER_WRITE_TIMEOUT must be non-negative")
	}
	if c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, "SERVER_SHUTDOWN_TIMEOUT must be positive")
	}
	if c.Server.RequestTimeout <= 0 {
		errs = append(errs, "SERVER_REQUEST_TIMEOUT must be positive")
	}
	if c.Server.RateLimit < 0 {
		errs = append(errs, "RATE_LIMIT_INGESTS_PER_MINUTE must be non-negative")
	}

	if c.Ingest.MaxAttempts <= 0 {
		errs = append(errs, "INGEST_MAX_ATTEMPTS must be positive")
	}
	if c.Ingest.RetryDelay < 0 {
		errs = append(errs, "INGEST_RETRY_DELAY must be non-negative")
	}
	if c.Ingest.MaxFileSize <= 0 {
		errs = append(errs, "INGEST_MAX_FILE_SIZE must be positive")
	}
	if c.Ingest.MaxConcurrent <= 0 {
		errs = append(errs, "INGEST_MAX_CONCURRENT must be positive")
	}
	if c.Ingest.MaxWait <= 0 {
		errs = append(errs, "INGEST_MAX_WAIT must be positive")
	}

	switch c.Blob.Backend {
	case "memory":
	case "fs":
		if c.Blob.Dir == "" {
			errs = append(errs, "BLOB_DIR is required when BLOB_BACKEND is fs")
		}
	case "s3":
		if c.Blob.Bucket == "" || c.Blob.FailedBucket == "" {
			errs = append(errs, "BLOB_BUCKET and BLOB_FAILED_BUCKET are required when BLOB_BACKEND is s3")
		}
		if (c.Blob.AccessKeyID == "") != (c.Blob.SecretAccessKey == "") {
			errs = append(errs, "AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY must be set together")
		}
	default:
		errs = append(errs, fmt.Sprintf("BLOB_BACKEND (%q) must be one of: memory, fs, s3", c.Blob.Backend))
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Sprintf("LOG_LEVEL (%q) must be one of: debug, info, warn, error", c.Logging.Level))
	}
	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		errs = append(errs, fmt.Sprintf("LOG_FORMAT (%q) must be one of: text, json", c.Logging.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// String returns a representation safe to log. The database URL and blob
// secrets are masked.
func (c *Config) String() string {
	var b strings.Builder
	b.WriteString("Config{")
	fmt.Fprintf(&b, "Server: {Addr: %q, RequestTimeout: %s, RateLimit: %d}, ",
		c.Server.Addr(), c.Server.RequestTimeout, c.Server.RateLimit)
	fmt.Fprintf(&b, "Database: {Driver: %q, URL: [MASKED], MaxOpenConns: %d, AutoMigrate: %v}, ",
		c.Database.Driver, c.Database.MaxOpenConns, c.Database.AutoMigrate)
	fmt.Fprintf(&b, "Ingest: {MaxAttempts: %d, RetryDelay: %s, MaxConcurrent: %d, MaxFileSize: %d}, ",
		c.Ingest.MaxAttempts, c.Ingest.RetryDelay, c.Ingest.MaxConcurrent, c.Ingest.MaxFileSize)
	fmt.Fprintf(&b, "Blob: {Backend: %q, Bucket: %q, FailedBucket: %q, Region: %q, Credentials: %s}, ",
		c.Blob.Backend, c.Blob.Bucket, c.Blob.FailedBucket, c.Blob.Region, masked(c.Blob.SecretAccessKey))
	fmt.Fprintf(&b, "Metrics: {Enabled: %v}, ", c.Metrics.Enabled)
	fmt.Fprintf(&b, "Logging: {Level: %q, Format: %q}", c.Logging.Level, c.Logging.Format)
	b.WriteString("}")
	return b.String()
}

func masked(secret string) string {
	if secret == "" {
		return "[DEFAULT CHAIN]"
	}
	return "[MASKED]"
}
