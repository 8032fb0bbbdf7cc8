package config

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateService(); err != nil {
		return err
	}
	if err := c.validatePipeline(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateService() error {
	parsed, err := url.Parse(c.Service.BaseURL)
	if err != nil {
		return fmt.Errorf("service.base_url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("service.base_url must use http or https, got %q", c.Service.BaseURL)
	}
	if parsed.Host == "" {
		return fmt.Errorf("service.base_url must include a host, got %q", c.Service.BaseURL)
	}
	if c.Service.RequestTimeoutSeconds < 0 {
		return errors.New("service.request_timeout_seconds must be >= 0")
	}
	return nil
}

func (c *Config) validatePipeline() error {
	if len(c.Pipeline.SubtitleFormats) == 0 {
		return errors.New("pipeline.subtitle_formats must include at least one format")
	}
	if !slices.Contains(c.Pipeline.SubtitleFormats, c.Pipeline.SubtitleFormat) {
		return fmt.Errorf("pipeline.subtitle_format %q must be one of pipeline.subtitle_formats %v", c.Pipeline.SubtitleFormat, c.Pipeline.SubtitleFormats)
	}
	if c.Pipeline.MaxUploadMiB <= 0 {
		return errors.New("pipeline.max_upload_mib must be positive")
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.RequestTimeout <= 0 {
		return errors.New("notifications.request_timeout must be positive")
	}
	return nil
}
