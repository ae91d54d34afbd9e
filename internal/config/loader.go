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

// Load reads the TOML file at path over Defaults, loads .env if present and
// applies KUNDALI_* overrides. An empty path skips the file. A set variable
// that does not parse is an error naming the variable. The result is not
// validated; call Validate.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	// .env is optional
	_ = godotenv.Load()

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnvOverrides(cfg *Config) error {
	var env envReader

	// engine
	env.setFloat64(&cfg.Engine.AyanamsaCorrection, "KUNDALI_AYANAMSA_CORRECTION_DEGREE")
	env.setInt(&cfg.Engine.DashaDepth, "KUNDALI_DASHA_DEPTH")
	env.setStr(&cfg.Engine.DefaultTransitTimezone, "KUNDALI_TRANSIT_TIMEZONE")
	env.setFloat64(&cfg.Engine.DefaultTimezoneOffset, "KUNDALI_DEFAULT_TZ_OFFSET")

	// server
	env.setStr(&cfg.Server.Addr, "KUNDALI_SERVER_ADDR")
	env.setStringSlice(&cfg.Server.CORSOrigins, "KUNDALI_CORS_ORIGINS")
	env.setDuration(&cfg.Server.TransitStreamInterval, "KUNDALI_TRANSIT_STREAM_INTERVAL")
	env.setDuration(&cfg.Server.TransitRecordInterval, "KUNDALI_TRANSIT_RECORD_INTERVAL")

	// stores
	env.setStr(&cfg.Postgres.DSN, "KUNDALI_POSTGRES_DSN")
	env.setBool(&cfg.Postgres.RunMigrations, "KUNDALI_POSTGRES_RUN_MIGRATIONS")
	env.setStr(&cfg.Clickhouse.DSN, "KUNDALI_CLICKHOUSE_DSN")

	// redis
	env.setStr(&cfg.Redis.Addr, "KUNDALI_REDIS_ADDR")
	env.setStr(&cfg.Redis.Password, "KUNDALI_REDIS_PASSWORD")
	env.setInt(&cfg.Redis.DB, "KUNDALI_REDIS_DB")
	env.setDuration(&cfg.Redis.TTL, "KUNDALI_REDIS_TTL")

	// s3
	env.setStr(&cfg.S3.Endpoint, "KUNDALI_S3_ENDPOINT")
	env.setStr(&cfg.S3.Region, "KUNDALI_S3_REGION")
	env.setStr(&cfg.S3.Bucket, "KUNDALI_S3_BUCKET")
	env.setStr(&cfg.S3.AccessKey, "KUNDALI_S3_ACCESS_KEY")
	env.setStr(&cfg.S3.SecretKey, "KUNDALI_S3_SECRET_KEY")
	env.setBool(&cfg.S3.ForcePathStyle, "KUNDALI_S3_FORCE_PATH_STYLE")

	// geocoder
	env.setBool(&cfg.Geocoder.Enabled, "KUNDALI_GEOCODER_ENABLED")
	env.setStr(&cfg.Geocoder.BaseURL, "KUNDALI_GEOCODER_BASE_URL")
	env.setStr(&cfg.Geocoder.UserAgent, "KUNDALI_GEOCODER_USER_AGENT")

	env.setStr(&cfg.LogLevel, "KUNDALI_LOG_LEVEL")
	env.setBool(&cfg.LogDev, "KUNDALI_LOG_DEVELOPMENT")

	return env.err()
}

// envReader applies set variables to their targets and keeps every parse
// failure. An unset or empty variable leaves the target alone.
type envReader struct {
	errs []error
}

func (e *envReader) err() error {
	return errors.Join(e.errs...)
}

func (e *envReader) fail(key, v string, err error) {
	e.errs = append(e.errs, fmt.Errorf("config: %s=%q: %w", key, v, err))
}

func (e *envReader) setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func (e *envReader) setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			e.fail(key, v, err)
			return
		}
		*dst = n
	}
}

func (e *envReader) setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			e.fail(key, v, err)
			return
		}
		*dst = f
	}
}

func (e *envReader) setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			e.fail(key, v, err)
			return
		}
		*dst = b
	}
}

func (e *envReader) setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			e.fail(key, v, err)
			return
		}
		dst.Duration = d
	}
}

func (e *envReader) setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		var cleaned []string
		for _, p := range strings.Split(v, ",") {
			if p = strings.TrimSpace(p); p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
