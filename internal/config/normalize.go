package config

import (
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	c.Backend.BaseURL = strings.TrimRight(strings.TrimSpace(c.Backend.BaseURL), "/")
	c.Backend.AuthToken = strings.TrimSpace(c.Backend.AuthToken)
	if c.Backend.RequestTimeout <= 0 {
		c.Backend.RequestTimeout = defaultRequestTimeout
	}

	if c.Upload.MaxFileSizeMiB <= 0 {
		c.Upload.MaxFileSizeMiB = defaultMaxFileSizeMiB
	}
	if c.Upload.TransferTimeout <= 0 {
		c.Upload.TransferTimeout = defaultTransferTimeout
	}

	if c.Jobs.PollIntervalMS <= 0 {
		c.Jobs.PollIntervalMS = defaultPollIntervalMS
	}
	c.Jobs.DefaultContentType = strings.ToLower(strings.TrimSpace(c.Jobs.DefaultContentType))
	if c.Jobs.DefaultContentType == "" {
		c.Jobs.DefaultContentType = defaultContentType
	}

	c.Paths.DataDir = expandPath(strings.TrimSpace(c.Paths.DataDir))
	if c.Paths.DataDir == "" {
		c.Paths.DataDir = expandPath(defaultDataDir)
	}
	c.Paths.LogDir = expandPath(strings.TrimSpace(c.Paths.LogDir))
	if c.Paths.LogDir == "" {
		c.Paths.LogDir = expandPath(defaultLogDir)
	}

	c.normalizeWatch()

	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNtfyRequestTimeout
	}

	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	return nil
}

func (c *Config) normalizeWatch() {
	c.Watch.DropDir = expandPath(strings.TrimSpace(c.Watch.DropDir))
	if c.Watch.ScanInterval <= 0 {
		c.Watch.ScanInterval = defaultWatchScanInterval
	}
	if c.Watch.DropDir == "" {
		return
	}
	c.Watch.ArchiveDir = expandPath(strings.TrimSpace(c.Watch.ArchiveDir))
	if c.Watch.ArchiveDir == "" {
		c.Watch.ArchiveDir = filepath.Join(c.Watch.DropDir, "done")
	}
	c.Watch.FailedDir = expandPath(strings.TrimSpace(c.Watch.FailedDir))
	if c.Watch.FailedDir == "" {
		c.Watch.FailedDir = filepath.Join(c.Watch.DropDir, "failed")
	}
}
