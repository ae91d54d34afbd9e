package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "time/tzdata"
)

func TestDefaultsValidate(t *testing.T) {
	cfg := Defaults()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 0.0, cfg.Engine.AyanamsaCorrection)
	assert.Equal(t, 3, cfg.Engine.DashaDepth)
	assert.Equal(t, "Asia/Kolkata", cfg.Engine.DefaultTransitTimezone)
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "kundali.toml")
	content := `
log_level = "debug"

[engine]
ayanamsa_correction_degree = -0.8
dasha_depth = 2

[server]
addr = ":9090"
transit_stream_interval = "5s"

[redis]
addr = "localhost:6379"
ttl = "1h"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("KUNDALI_SERVER_ADDR", ":7070")
	t.Setenv("KUNDALI_CORS_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, -0.8, cfg.Engine.AyanamsaCorrection)
	assert.Equal(t, 2, cfg.Engine.DashaDepth)
	assert.Equal(t, ":7070", cfg.Server.Addr)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSOrigins)
	assert.Equal(t, 5*time.Second, cfg.Server.StreamInterval())
	assert.Equal(t, time.Hour, cfg.Redis.TTLDuration())
	// untouched defaults survive
	assert.Equal(t, "Asia/Kolkata", cfg.Engine.DefaultTransitTimezone)
	assert.Equal(t, time.Second, cfg.Geocoder.MinIntervalDuration())
}

func TestLoad_MalformedEnv(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"KUNDALI_AYANAMSA_CORRECTION_DEGREE", "-0,8"},
		{"KUNDALI_DASHA_DEPTH", "not-a-number"},
		{"KUNDALI_DEFAULT_TZ_OFFSET", "+5:30"},
		{"KUNDALI_TRANSIT_STREAM_INTERVAL", "10"},
		{"KUNDALI_GEOCODER_ENABLED", "maybe"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			cfg, err := Load("")
			require.Error(t, err)
			assert.Nil(t, cfg)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}

func TestLoad_MalformedEnvReportsEveryKey(t *testing.T) {
	t.Setenv("KUNDALI_AYANAMSA_CORRECTION_DEGREE", "-0,8")
	t.Setenv("KUNDALI_DASHA_DEPTH", "three")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "KUNDALI_AYANAMSA_CORRECTION_DEGREE")
	assert.Contains(t, err.Error(), "KUNDALI_DASHA_DEPTH")
}

func TestLoad_EngineEnv(t *testing.T) {
	t.Setenv("KUNDALI_AYANAMSA_CORRECTION_DEGREE", " -0.8 ")
	t.Setenv("KUNDALI_DEFAULT_TZ_OFFSET", "-5")

	cfg, err := Load("")
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	assert.Equal(t, -0.8, cfg.Engine.AyanamsaCorrection)
	assert.Equal(t, -5.0, cfg.Engine.DefaultTimezoneOffset)
}

func TestLoad_EmptyPath(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Defaults().Engine, cfg.Engine)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		want   string
	}{
		{"log level", func(c *Config) { c.LogLevel = "loud" }, "log_level"},
		{"correction", func(c *Config) { c.Engine.AyanamsaCorrection = 45 }, "ayanamsa_correction_degree"},
		{"depth", func(c *Config) { c.Engine.DashaDepth = 4 }, "dasha_depth"},
		{"zone", func(c *Config) { c.Engine.DefaultTransitTimezone = "Mars/Olympus" }, "default_transit_timezone"},
		{"offset", func(c *Config) { c.Engine.DefaultTimezoneOffset = 20 }, "default_timezone_offset"},
		{"addr", func(c *Config) { c.Server.Addr = "" }, "addr"},
		{"stream", func(c *Config) { c.Server.TransitStreamInterval.Duration = 0 }, "transit_stream_interval"},
		{"s3", func(c *Config) { c.S3.Bucket = "b"; c.S3.Region = "" }, "region"},
		{"geocoder", func(c *Config) { c.Geocoder.BaseURL = "" }, "base_url"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
