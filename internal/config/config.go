// Package config loads process configuration from environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// sqlitePrefix marks a DATABASE_URL that names a SQLite database.
const sqlitePrefix = "sqlite:"

// Database selects and sizes the store.
type Database struct {
	URL      string `env:"DATABASE_URL,required,notEmpty"`
	MaxConns int32  `env:"DATABASE_MAX_CONNS" envDefault:"4"`
}

// IsSQLite reports whether URL names a SQLite database.
func (d Database) IsSQLite() bool {
	return strings.HasPrefix(d.URL, sqlitePrefix)
}

// SQLiteDSN returns the SQLite path or ":memory:" named by URL.
func (d Database) SQLiteDSN() string {
	return strings.TrimPrefix(d.URL, sqlitePrefix)
}

// Provider holds the credentials and endpoints of the external APIs. Empty
// URLs keep each client's default.
type Provider struct {
	GeocodeKey string        `env:"GEOCODE_API_KEY,required,notEmpty"`
	WeatherKey string        `env:"WEATHER_API_KEY,required,notEmpty"`
	YelpKey    string        `env:"YELP_API_KEY,required,notEmpty"`
	MovieKey   string        `env:"MOVIE_API_KEY,required,notEmpty"`
	GeocodeURL string        `env:"GEOCODE_URL"`
	WeatherURL string        `env:"WEATHER_URL"`
	YelpURL    string        `env:"YELP_URL"`
	MovieURL   string        `env:"MOVIE_URL"`
	RateLimit  float64       `env:"PROVIDER_RATE_LIMIT" envDefault:"5"`
	Timeout    time.Duration `env:"PROVIDER_TIMEOUT" envDefault:"10s"`
}

// Config is everything the serve command needs.
type Config struct {
	Port     string `env:"PORT" envDefault:"3000"`
	Database Database
	Provider Provider

	RedisURL string `env:"REDIS_URL"`
	APIToken string `env:"API_TOKEN"`

	RateLimitPerMinute int      `env:"RATE_LIMIT_PER_MINUTE" envDefault:"60"`
	AllowedOrigins     []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`

	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
}

// ParseEnv loads configuration from environment variables into target.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load parses the full serve configuration.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadDatabase parses only the store settings, for commands that do not talk
// to providers.
func LoadDatabase() (Database, error) {
	var db Database
	if err := ParseEnv(&db); err != nil {
		return Database{}, err
	}
	return db, nil
}
