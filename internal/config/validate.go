package config

import (
	"errors"
	"fmt"
	"net/url"
)

// Validate checks configuration consistency after normalization.
func (c *Config) Validate() error {
	if err := c.validateBackend(); err != nil {
		return err
	}
	if err := c.validateJobs(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateBackend() error {
	if c.Backend.BaseURL == "" {
		return errors.New("backend.base_url must not be empty")
	}
	parsed, err := url.Parse(c.Backend.BaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("backend.base_url is not a valid URL: %q", c.Backend.BaseURL)
	}
	return nil
}

func (c *Config) validateJobs() error {
	if c.Jobs.PollIntervalMS < 100 {
		return fmt.Errorf("jobs.poll_interval_ms too small: %d", c.Jobs.PollIntervalMS)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level unsupported: %q", c.Logging.Level)
	}
	return nil
}
