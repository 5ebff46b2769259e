package config

import (
	"fmt"

	"github.com/NikitaDmitryuk/polyfetch/internal/utils"
)

func (c *Config) validate() error {
	if err := c.validateProbeSettings(); err != nil {
		return err
	}
	if err := c.validateDownloadSettings(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateProbeSettings() error {
	if c.ProbeSettings.Timeout <= 0 {
		return utils.WrapError(utils.ErrConfigurationError, "PROBE_TIMEOUT must be greater than 0", nil)
	}

	if err := validatePort("PROBE_HTTP_PORT", c.ProbeSettings.HTTPPort); err != nil {
		return err
	}
	if err := validatePort("PROBE_HTTPS_PORT", c.ProbeSettings.HTTPSPort); err != nil {
		return err
	}

	return nil
}

func validatePort(name string, port int) error {
	if port < 1 || port > 65535 {
		return utils.WrapError(utils.ErrConfigurationError, fmt.Sprintf("%s must be between 1 and 65535", name), map[string]any{
			"port": port,
		})
	}
	return nil
}

func (c *Config) validateDownloadSettings() error {
	s := c.DownloadSettings

	if s.MaxConcurrentDownloads <= 0 {
		return utils.WrapError(utils.ErrConfigurationError, "MAX_CONCURRENT_DOWNLOADS must be greater than 0", nil)
	}

	if s.DownloadTimeout <= 0 {
		return utils.WrapError(utils.ErrConfigurationError, "DOWNLOAD_TIMEOUT must be greater than 0", nil)
	}

	if s.ChunkSize <= 0 {
		return utils.WrapError(utils.ErrConfigurationError, "DOWNLOAD_CHUNK_SIZE must be greater than 0", nil)
	}

	if s.RateLimit < 0 {
		return utils.WrapError(utils.ErrConfigurationError, "DOWNLOAD_RATE_LIMIT cannot be negative", nil)
	}

	// A nonzero limit below the chunk size would starve the token bucket.
	if s.RateLimit > 0 && s.RateLimit < int64(s.ChunkSize) {
		return utils.WrapError(utils.ErrConfigurationError, "DOWNLOAD_RATE_LIMIT must be at least DOWNLOAD_CHUNK_SIZE", map[string]any{
			"rate_limit": s.RateLimit,
			"chunk_size": s.ChunkSize,
		})
	}

	if s.ProgressUpdateInterval <= 0 {
		return utils.WrapError(utils.ErrConfigurationError, "PROGRESS_UPDATE_INTERVAL must be greater than 0", nil)
	}

	return nil
}
