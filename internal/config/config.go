package config

import (
	"os"
	"strconv"
	"time"

	"github.com/NikitaDmitryuk/polyfetch/internal/logutils"
	"github.com/NikitaDmitryuk/polyfetch/internal/utils"
)

const (
	DefaultProbeTimeout           = 5 * time.Second
	DefaultDownloadTimeout        = 5 * time.Minute
	DefaultChunkSize              = 8 * 1024
	DefaultMaxConcurrentDownloads = 4
	DefaultProgressUpdateInterval = 100 * time.Millisecond
)

type Config struct {
	Lang     string
	LogLevel string

	ProbeSettings    ProbeConfig
	DownloadSettings DownloadConfig
}

type ProbeConfig struct {
	Timeout   time.Duration
	HTTPPort  int
	HTTPSPort int
}

type DownloadConfig struct {
	MaxConcurrentDownloads int
	DownloadTimeout        time.Duration
	ChunkSize              int
	RateLimit              int64
	ProgressUpdateInterval time.Duration
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func NewConfig() (*Config, error) {
	config := &Config{
		Lang:     getEnv("LANG_MESSAGES", "en"),
		LogLevel: getEnv("LOG_LEVEL", "error"),

		ProbeSettings: ProbeConfig{
			Timeout:   getEnvDuration("PROBE_TIMEOUT", DefaultProbeTimeout),
			HTTPPort:  getEnvInt("PROBE_HTTP_PORT", 80),
			HTTPSPort: getEnvInt("PROBE_HTTPS_PORT", 443),
		},

		DownloadSettings: DownloadConfig{
			MaxConcurrentDownloads: getEnvInt("MAX_CONCURRENT_DOWNLOADS", DefaultMaxConcurrentDownloads),
			DownloadTimeout:        getEnvDuration("DOWNLOAD_TIMEOUT", DefaultDownloadTimeout),
			ChunkSize:              getEnvInt("DOWNLOAD_CHUNK_SIZE", DefaultChunkSize),
			RateLimit:              getEnvInt64("DOWNLOAD_RATE_LIMIT", 0),
			ProgressUpdateInterval: getEnvDuration("PROGRESS_UPDATE_INTERVAL", DefaultProgressUpdateInterval),
		},
	}

	if err := config.validate(); err != nil {
		logutils.Log.WithError(err).Error("Configuration validation failed")
		return nil, utils.WrapError(err, "configuration validation failed", map[string]any{
			"config": config,
		})
	}

	logutils.Log.Debug("Configuration loaded successfully")
	return config, nil
}

func (c *Config) GetProbeSettings() ProbeConfig {
	return c.ProbeSettings
}

func (c *Config) GetDownloadSettings() DownloadConfig {
	return c.DownloadSettings
}
