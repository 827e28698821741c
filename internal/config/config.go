package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Storage drivers accepted by STORAGE_DRIVER.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// Config holds all application configuration.
type Config struct {
	Server        ServerConfig
	Storage       StorageConfig
	App           AppConfig
	Shortener     ShortenerConfig
	Observability ObservabilityConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            string        `envconfig:"SERVER_PORT" required:"true"`
	Host            string        `envconfig:"SERVER_HOST" required:"true"`
	BaseURL         string        `envconfig:"SERVER_BASE_URL"` // empty: short URLs use the request host
	ReadTimeout     time.Duration `envconfig:"SERVER_READ_TIMEOUT" required:"true"`
	WriteTimeout    time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" required:"true"`
	IdleTimeout     time.Duration `envconfig:"SERVER_IDLE_TIMEOUT" required:"true"`
	ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" required:"true"`
}

// Validate validates the server configuration.
func (c *ServerConfig) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("port cannot be empty")
	}
	if c.Host == "" {
		return fmt.Errorf("host cannot be empty")
	}
	if c.BaseURL != "" {
		u, err := url.Parse(c.BaseURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("base URL must be an absolute http(s) URL, got %q", c.BaseURL)
		}
	}
	if c.ReadTimeout <= 0 {
		return fmt.Errorf("read timeout must be positive")
	}
	if c.WriteTimeout <= 0 {
		return fmt.Errorf("write timeout must be positive")
	}
	if c.IdleTimeout <= 0 {
		return fmt.Errorf("idle timeout must be positive")
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown timeout must be positive")
	}
	return nil
}

// StorageConfig selects the link store and carries the settings of each
// backend. Only the settings of the selected driver are validated.
type StorageConfig struct {
	Driver         string         `envconfig:"STORAGE_DRIVER" default:"postgres"`
	SQLitePath     string         `envconfig:"SQLITE_PATH" default:"teenyurl.db"`
	ConnectTimeout time.Duration  `envconfig:"DB_CONNECT_TIMEOUT" default:"30s"`
	Database       DatabaseConfig `ignored:"true"` // loaded on its own in Load
}

// Validate validates the storage configuration.
func (c *StorageConfig) Validate() error {
	switch c.Driver {
	case DriverPostgres:
		if c.ConnectTimeout <= 0 {
			return fmt.Errorf("connect timeout must be positive")
		}
		if err := c.Database.Validate(); err != nil {
			return fmt.Errorf("database: %w", err)
		}
	case DriverSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("sqlite path cannot be empty")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("invalid storage driver: %s (must be one of: postgres, sqlite, memory)", c.Driver)
	}
	return nil
}

// DatabaseConfig holds PostgreSQL connection configuration.
type DatabaseConfig struct {
	Host     string `envconfig:"DB_HOST"`
	Port     string `envconfig:"DB_PORT" default:"5432"`
	User     string `envconfig:"DB_USER"`
	Password string `envconfig:"DB_PASSWORD"`
	Name     string `envconfig:"DB_NAME"`
	SSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`
	MaxConns int32  `envconfig:"DB_MAX_CONNS" default:"10"`
	MinConns int32  `envconfig:"DB_MIN_CONNS" default:"1"`
}

// Validate validates the database configuration.
func (c *DatabaseConfig) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("host cannot be empty")
	}
	if c.Port == "" {
		return fmt.Errorf("port cannot be empty")
	}
	if c.User == "" {
		return fmt.Errorf("user cannot be empty")
	}
	if c.Password == "" {
		return fmt.Errorf("password cannot be empty")
	}
	if c.Name == "" {
		return fmt.Errorf("database name cannot be empty")
	}
	if c.MaxConns <= 0 {
		return fmt.Errorf("max connections must be positive")
	}
	if c.MinConns <= 0 {
		return fmt.Errorf("min connections must be positive")
	}
	if c.MinConns > c.MaxConns {
		return fmt.Errorf("min connections (%d) cannot be greater than max connections (%d)", c.MinConns, c.MaxConns)
	}

	validSSLModes := map[string]bool{
		"disable":     true,
		"require":     true,
		"verify-ca":   true,
		"verify-full": true,
	}
	if !validSSLModes[c.SSLMode] {
		return fmt.Errorf("invalid SSL mode: %s (must be one of: disable, require, verify-ca, verify-full)", c.SSLMode)
	}
	return nil
}

// ConnectionString returns the PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// AppConfig holds application-specific configuration.
type AppConfig struct {
	Environment string `envconfig:"APP_ENV" required:"true"`   // development, staging, production, test
	LogLevel    string `envconfig:"LOG_LEVEL" required:"true"` // debug, info, warn, error
	LogFormat   string `envconfig:"LOG_FORMAT" default:"json"` // json, text
}

// Validate validates the app configuration.
func (c *AppConfig) Validate() error {
	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
		"test":        true,
	}
	if !validEnvs[c.Environment] {
		return fmt.Errorf("invalid environment: %s (must be one of: development, staging, production, test)", c.Environment)
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}

	if c.LogFormat != "json" && c.LogFormat != "text" {
		return fmt.Errorf("invalid log format: %s (must be one of: json, text)", c.LogFormat)
	}
	return nil
}

// ShortenerConfig holds key generation settings.
type ShortenerConfig struct {
	KeyLength     int `envconfig:"KEY_LENGTH" default:"7"`
	KeyMaxRetries int `envconfig:"KEY_MAX_RETRIES" default:"3"`
}

// Validate validates the shortener configuration. The bounds match the
// short_key column constraint.
func (c *ShortenerConfig) Validate() error {
	if c.KeyLength < 4 || c.KeyLength > 32 {
		return fmt.Errorf("key length must be between 4 and 32, got %d", c.KeyLength)
	}
	if c.KeyMaxRetries <= 0 {
		return fmt.Errorf("key max retries must be positive")
	}
	return nil
}

// ObservabilityConfig holds configuration for metrics and the health endpoint.
type ObservabilityConfig struct {
	MetricsEnabled bool   `envconfig:"METRICS_ENABLED" default:"true"`
	MetricsPath    string `envconfig:"METRICS_PATH" default:"/metrics"`
	ServiceName    string `envconfig:"SERVICE_NAME" default:"teenyurl"`
	ServiceVersion string `envconfig:"SERVICE_VERSION" default:"dev"`
}

// Validate validates the observability configuration.
func (c *ObservabilityConfig) Validate() error {
	if c.MetricsEnabled {
		if len(c.MetricsPath) < 2 || c.MetricsPath[0] != '/' {
			return fmt.Errorf("metrics path must start with / and name a path, got %q", c.MetricsPath)
		}
	}
	if c.ServiceName == "" {
		return fmt.Errorf("service name cannot be empty")
	}
	return nil
}

// Load loads configuration from environment variables only.
// (.env loading happens in the app package, before Load is called.)
func Load() (*Config, error) {
	cfg := &Config{}

	if err := envconfig.Process("", &cfg.Server); err != nil {
		return nil, fmt.Errorf("failed to load Server config: %w", err)
	}
	if err := cfg.Server.Validate(); err != nil {
		return nil, fmt.Errorf("invalid Server config: %w", err)
	}

	if err := envconfig.Process("", &cfg.Storage); err != nil {
		return nil, fmt.Errorf("failed to load Storage config: %w", err)
	}
	if err := envconfig.Process("", &cfg.Storage.Database); err != nil {
		return nil, fmt.Errorf("failed to load Database config: %w", err)
	}
	if err := cfg.Storage.Validate(); err != nil {
		return nil, fmt.Errorf("invalid Storage config: %w", err)
	}

	if err := envconfig.Process("", &cfg.App); err != nil {
		return nil, fmt.Errorf("failed to load App config: %w", err)
	}
	if err := cfg.App.Validate(); err != nil {
		return nil, fmt.Errorf("invalid App config: %w", err)
	}

	if err := envconfig.Process("", &cfg.Shortener); err != nil {
		return nil, fmt.Errorf("failed to load Shortener config: %w", err)
	}
	if err := cfg.Shortener.Validate(); err != nil {
		return nil, fmt.Errorf("invalid Shortener config: %w", err)
	}

	if err := envconfig.Process("", &cfg.Observability); err != nil {
		return nil, fmt.Errorf("failed to load Observability config: %w", err)
	}
	if err := cfg.Observability.Validate(); err != nil {
		return nil, fmt.Errorf("invalid Observability config: %w", err)
	}

	return cfg, nil
}
