// Package config loads the widget configuration from the environment.
//
// Values are resolved in this order: OS environment, then a .env file in the
// working directory, then the defaults declared on the struct tags. Command
// line flags in main override a few of them after loading.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config is the top-level configuration
type Config struct {
	LogLevel string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`

	HTTP     HTTPConfig
	Upstream UpstreamConfig
	Cache    CacheConfig
	Store    StoreConfig
}

// HTTPConfig is the optional control API
type HTTPConfig struct {
	// Addr is the listen address, e.g. ":8080". Empty disables the API.
	Addr string `envconfig:"HTTP_ADDR" validate:"omitempty,hostname_port"`
}

// UpstreamConfig describes the Open-Meteo endpoints and how they are called
type UpstreamConfig struct {
	GeocodingURL   string        `envconfig:"GEOCODING_URL" default:"https://geocoding-api.open-meteo.com/v1/search" validate:"required,url"`
	ForecastURL    string        `envconfig:"FORECAST_URL" default:"https://api.open-meteo.com/v1/forecast" validate:"required,url"`
	Timeout        time.Duration `envconfig:"HTTP_TIMEOUT" default:"10s" validate:"gt=0"`
	UserAgent      string        `envconfig:"USER_AGENT" default:"classy-weather/1.0"`
	RateLimitRPS   float64       `envconfig:"RATE_LIMIT_RPS" default:"2" validate:"gt=0"`
	RateLimitBurst int           `envconfig:"RATE_LIMIT_BURST" default:"4" validate:"gte=1"`
}

// CacheConfig controls the response cache. A zero TTL disables it.
type CacheConfig struct {
	TTL time.Duration `envconfig:"CACHE_TTL" default:"10m" validate:"gte=0"`
}

// StoreConfig selects where the last location is kept
type StoreConfig struct {
	Backend       string `envconfig:"STORE_BACKEND" default:"sqlite" validate:"oneof=sqlite redis memory"`
	Path          string `envconfig:"STORE_PATH" default:"classy-weather.db" validate:"required_if=Backend sqlite"`
	Key           string `envconfig:"STORE_KEY" default:"location" validate:"required"`
	RedisAddr     string `envconfig:"REDIS_ADDR" validate:"required_if=Backend redis"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
}

// ConfigErrorType categorizes configuration loading failures
type ConfigErrorType string

const (
	// ErrParsing indicates an environment value could not be parsed into its field
	ErrParsing ConfigErrorType = "PARSING_FAILED"
	// ErrValidation indicates the populated struct failed validation rules
	ErrValidation ConfigErrorType = "VALIDATION_FAILED"
)

// ConfigError is returned by Load
type ConfigError struct {
	Type    ConfigErrorType
	Message string
	Err     error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// Load reads .env if present, populates a Config from the environment and
// validates it.
func Load() (*Config, error) {
	// A missing .env file is fine; existing variables are never overridden.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, &ConfigError{
			Type:    ErrParsing,
			Message: "failed to process environment configuration",
			Err:     err,
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the struct rules. main calls it again after applying flags.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return &ConfigError{
			Type:    ErrValidation,
			Message: "configuration validation failed",
			Err:     err,
		}
	}
	return nil
}

// SlogLevel maps LogLevel to a slog.Level, defaulting to info
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
