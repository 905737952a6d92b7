package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Environment variables that override values from the TOML file
const (
	EnvPort        = "PORT"
	EnvDatabaseURL = "MONGO_DB_URL"
	EnvConfigPath  = "MONGO_STATUS_CONFIG"
)

// DefaultConfigPath is used when neither a flag nor MONGO_STATUS_CONFIG is given
const DefaultConfigPath = "config.toml"

// Config represents the main configuration structure
type Config struct {
	Server    ServerConfig    `toml:"server"`
	Database  DatabaseConfig  `toml:"database"`
	Metrics   MetricsConfig   `toml:"metrics"`
	Logger    LoggerConfig    `toml:"logger"`
	RateLimit RateLimitConfig `toml:"ratelimit"`

	// Set by Load, not part of the file
	Path         string   `toml:"-"`
	FileFound    bool     `toml:"-"`
	EnvOverrides []string `toml:"-"`
}

// ServerConfig contains server-specific configuration
type ServerConfig struct {
	Port              int           `toml:"port"`
	ReadTimeout       time.Duration `toml:"read_timeout"`
	WriteTimeout      time.Duration `toml:"write_timeout"`
	IdleTimeout       time.Duration `toml:"idle_timeout"`
	ReadHeaderTimeout time.Duration `toml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `toml:"shutdown_timeout"`
}

// DatabaseConfig contains the MongoDB connection settings.
// Zero timeouts leave the driver defaults in place.
type DatabaseConfig struct {
	URL                    string        `toml:"url"`
	AppName                string        `toml:"app_name"`
	ConnectTimeout         time.Duration `toml:"connect_timeout"`
	ServerSelectionTimeout time.Duration `toml:"server_selection_timeout"`
}

// MetricsConfig contains metrics/monitoring configuration
type MetricsConfig struct {
	Enabled   bool   `toml:"enabled"`
	Namespace string `toml:"namespace"`
}

// LoggerConfig contains logging configuration
type LoggerConfig struct {
	Level  string `toml:"level"`  // "debug", "info", "warn", "error"
	Format string `toml:"format"` // "json" or "text"
	Output string `toml:"output"` // "stdout", "stderr", or file path
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled           bool          `toml:"enabled"`
	RequestsPerSecond float64       `toml:"requests_per_second"`
	Burst             int           `toml:"burst"`
	CleanupInterval   time.Duration `toml:"cleanup_interval"`
	ClientExpiry      time.Duration `toml:"client_expiry"`
}

// Load reads configuration from an optional TOML file, then applies
// environment overrides (including a .env file in the working directory)
// and validates the result.
func Load(configPath string) (*Config, error) {
	config := getDefaultConfig()
	config.Path = configPath

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			if _, err := toml.DecodeFile(configPath, config); err != nil {
				return nil, fmt.Errorf("failed to decode config file %s: %w", configPath, err)
			}
			config.FileFound = true
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to stat config file %s: %w", configPath, err)
		}
	}

	// Existing environment variables win over .env entries
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	if err := config.applyEnv(); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// applyEnv overrides file values with PORT and MONGO_DB_URL
func (c *Config) applyEnv() error {
	if port, ok := os.LookupEnv(EnvPort); ok {
		p, err := strconv.Atoi(strings.TrimSpace(port))
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvPort, port, err)
		}
		c.Server.Port = p
		c.EnvOverrides = append(c.EnvOverrides, EnvPort)
	}

	if url, ok := os.LookupEnv(EnvDatabaseURL); ok {
		c.Database.URL = strings.TrimSpace(url)
		c.EnvOverrides = append(c.EnvOverrides, EnvDatabaseURL)
	}

	return nil
}

// ResolvePath picks the config file path from the CLI argument, then
// MONGO_STATUS_CONFIG, then the default.
func ResolvePath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if envPath := os.Getenv(EnvConfigPath); envPath != "" {
		return envPath
	}
	return DefaultConfigPath
}

func getDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       90 * time.Second,
			ReadHeaderTimeout: 10 * time.Second,
			ShutdownTimeout:   30 * time.Second,
		},
		Database: DatabaseConfig{
			AppName: "mongo-status",
		},
		Metrics: MetricsConfig{
			Enabled:   false,
			Namespace: "mongo_status",
		},
		Logger: LoggerConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		RateLimit: RateLimitConfig{
			Enabled:           false,
			RequestsPerSecond: 50,
			Burst:             100,
			CleanupInterval:   time.Minute,
			ClientExpiry:      5 * time.Minute,
		},
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (set %s or [server] port)", c.Server.Port, EnvPort)
	}

	if c.Database.URL == "" {
		return fmt.Errorf("database url is required (set %s or [database] url)", EnvDatabaseURL)
	}

	if !strings.HasPrefix(c.Database.URL, "mongodb://") && !strings.HasPrefix(c.Database.URL, "mongodb+srv://") {
		return fmt.Errorf("database url must use the mongodb:// or mongodb+srv:// scheme")
	}

	if c.Database.ConnectTimeout < 0 {
		return fmt.Errorf("database connect_timeout cannot be negative")
	}

	if c.Database.ServerSelectionTimeout < 0 {
		return fmt.Errorf("database server_selection_timeout cannot be negative")
	}

	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown_timeout must be positive")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logger.Level] {
		return fmt.Errorf("invalid logger level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logger.Format] {
		return fmt.Errorf("invalid logger format: %s (must be json or text)", c.Logger.Format)
	}

	if c.Metrics.Enabled && c.Metrics.Namespace == "" {
		return fmt.Errorf("metrics namespace cannot be empty when metrics are enabled")
	}

	if c.RateLimit.Enabled {
		if c.RateLimit.RequestsPerSecond <= 0 {
			return fmt.Errorf("rate limit requests_per_second must be positive")
		}
		if c.RateLimit.Burst < 1 {
			return fmt.Errorf("rate limit burst must be at least 1")
		}
		if c.RateLimit.CleanupInterval <= 0 {
			return fmt.Errorf("rate limit cleanup_interval must be positive")
		}
		if c.RateLimit.ClientExpiry <= 0 {
			return fmt.Errorf("rate limit client_expiry must be positive")
		}
	}

	return nil
}

// GetListenAddr returns the formatted listen address
func (c *Config) GetListenAddr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}
