// Package config defines the service configuration and its validation.
package config

import (
	"fmt"
	"math"
	"strings"
	"time"

	"kundali-lab/internal/dasha"
)

// Config is the root configuration. Fields are populated from a TOML file
// and then optionally overridden by KUNDALI_* environment variables.
type Config struct {
	Engine     EngineConfig     `toml:"engine"`
	Server     ServerConfig     `toml:"server"`
	Postgres   PostgresConfig   `toml:"postgres"`
	Clickhouse ClickhouseConfig `toml:"clickhouse"`
	Redis      RedisConfig      `toml:"redis"`
	S3         S3Config         `toml:"s3"`
	Geocoder   GeocoderConfig   `toml:"geocoder"`
	LogLevel   string           `toml:"log_level"`
	LogDev     bool             `toml:"log_development"`
}

// EngineConfig holds chart computation parameters.
type EngineConfig struct {
	// AyanamsaCorrection is added to every sidereal longitude, in degrees.
	AyanamsaCorrection     float64 `toml:"ayanamsa_correction_degree"`
	DashaDepth             int     `toml:"dasha_depth"`
	DefaultTransitTimezone string  `toml:"default_transit_timezone"`
	DefaultTimezoneOffset  float64 `toml:"default_timezone_offset"`
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Addr                  string   `toml:"addr"`
	CORSOrigins           []string `toml:"cors_origins"`
	ReadTimeout           duration `toml:"read_timeout"`
	WriteTimeout          duration `toml:"write_timeout"`
	TransitStreamInterval duration `toml:"transit_stream_interval"`
	TransitRecordInterval duration `toml:"transit_record_interval"`
}

// PostgresConfig holds the chart store connection.
type PostgresConfig struct {
	DSN           string `toml:"dsn"`
	RunMigrations bool   `toml:"run_migrations"`
}

// ClickhouseConfig holds the transit history connection.
type ClickhouseConfig struct {
	DSN string `toml:"dsn"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Addr       string   `toml:"addr"`
	Password   string   `toml:"password"`
	DB         int      `toml:"db"`
	PoolSize   int      `toml:"pool_size"`
	MaxRetries int      `toml:"max_retries"`
	TLSEnabled bool     `toml:"tls_enabled"`
	TTL        duration `toml:"ttl"`
}

// S3Config holds S3-compatible object storage parameters.
type S3Config struct {
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// GeocoderConfig holds the place lookup service parameters.
type GeocoderConfig struct {
	Enabled     bool     `toml:"enabled"`
	BaseURL     string   `toml:"base_url"`
	UserAgent   string   `toml:"user_agent"`
	Timeout     duration `toml:"timeout"`
	MinInterval duration `toml:"min_interval"`
}

// duration wraps time.Duration so TOML can hold strings like "30s".
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config usable without any file: memory stores, no
// cache, no archive, geocoding enabled against public Nominatim.
func Defaults() Config {
	return Config{
		Engine: EngineConfig{
			AyanamsaCorrection:     0,
			DashaDepth:             dasha.MaxDepth,
			DefaultTransitTimezone: "Asia/Kolkata",
			DefaultTimezoneOffset:  5.5,
		},
		Server: ServerConfig{
			Addr:                  ":8080",
			CORSOrigins:           []string{"*"},
			ReadTimeout:           duration{15 * time.Second},
			WriteTimeout:          duration{30 * time.Second},
			TransitStreamInterval: duration{10 * time.Second},
			TransitRecordInterval: duration{time.Hour},
		},
		Redis: RedisConfig{
			PoolSize:   10,
			MaxRetries: 3,
			TTL:        duration{24 * time.Hour},
		},
		S3: S3Config{
			Region: "us-east-1",
		},
		Geocoder: GeocoderConfig{
			Enabled:     true,
			BaseURL:     "https://nominatim.openstreetmap.org",
			UserAgent:   "kundali-lab/1.0",
			Timeout:     duration{10 * time.Second},
			MinInterval: duration{time.Second},
		},
		LogLevel: "info",
	}
}

var validLogLevels = map[string]bool{
	"debug": true, "info": true, "warn": true, "error": true,
}

// Validate checks the config for internal consistency.
func (c *Config) Validate() error {
	var errs []string

	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	e := c.Engine
	if math.IsNaN(e.AyanamsaCorrection) || math.Abs(e.AyanamsaCorrection) > 30 {
		errs = append(errs, fmt.Sprintf("engine: ayanamsa_correction_degree must be within ±30, got %v", e.AyanamsaCorrection))
	}
	if e.DashaDepth < dasha.MinDepth || e.DashaDepth > dasha.MaxDepth {
		errs = append(errs, fmt.Sprintf("engine: dasha_depth must be %d-%d, got %d", dasha.MinDepth, dasha.MaxDepth, e.DashaDepth))
	}
	if e.DefaultTransitTimezone == "" {
		errs = append(errs, "engine: default_transit_timezone must not be empty")
	} else if _, err := time.LoadLocation(e.DefaultTransitTimezone); err != nil {
		errs = append(errs, fmt.Sprintf("engine: unknown default_transit_timezone %q", e.DefaultTransitTimezone))
	}
	if e.DefaultTimezoneOffset < -12 || e.DefaultTimezoneOffset > 14 {
		errs = append(errs, fmt.Sprintf("engine: default_timezone_offset must be within [-12, 14], got %v", e.DefaultTimezoneOffset))
	}

	if c.Server.Addr == "" {
		errs = append(errs, "server: addr must not be empty")
	}
	if c.Server.TransitStreamInterval.Duration <= 0 {
		errs = append(errs, "server: transit_stream_interval must be positive")
	}
	if c.Server.TransitRecordInterval.Duration < 0 {
		errs = append(errs, "server: transit_record_interval must not be negative")
	}

	if c.S3.Bucket != "" && c.S3.Region == "" {
		errs = append(errs, "s3: region is required when bucket is set")
	}

	if c.Geocoder.Enabled && c.Geocoder.BaseURL == "" {
		errs = append(errs, "geocoder: base_url must not be empty when enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// ReadTimeoutDuration returns the HTTP read timeout.
func (s ServerConfig) ReadTimeoutDuration() time.Duration { return s.ReadTimeout.Duration }

// WriteTimeoutDuration returns the HTTP write timeout.
func (s ServerConfig) WriteTimeoutDuration() time.Duration { return s.WriteTimeout.Duration }

// StreamInterval is the push period of the transit websocket.
func (s ServerConfig) StreamInterval() time.Duration { return s.TransitStreamInterval.Duration }

// RecordInterval is the transit recorder period. Zero disables recording.
func (s ServerConfig) RecordInterval() time.Duration { return s.TransitRecordInterval.Duration }

// TTLDuration returns the cache entry expiry.
func (r RedisConfig) TTLDuration() time.Duration { return r.TTL.Duration }

// TimeoutDuration returns the per-request geocoder timeout.
func (g GeocoderConfig) TimeoutDuration() time.Duration { return g.Timeout.Duration }

// MinIntervalDuration returns the minimum spacing between geocoder requests.
func (g GeocoderConfig) MinIntervalDuration() time.Duration { return g.MinInterval.Duration }
