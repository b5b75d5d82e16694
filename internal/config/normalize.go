package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeIdentity()
	c.normalizeEndpoints()
	c.normalizeCompression()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.ScanDir, err = expandPath(c.Paths.ScanDir); err != nil {
		return fmt.Errorf("paths.scan_dir: %w", err)
	}
	if c.Paths.WorkDir, err = expandPath(c.Paths.WorkDir); err != nil {
		return fmt.Errorf("paths.work_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeIdentity() {
	c.Identity.ScannerID = strings.TrimSpace(c.Identity.ScannerID)
	c.Identity.StationID = strings.TrimSpace(c.Identity.StationID)
}

func (c *Config) normalizeEndpoints() {
	c.Recognition.Endpoint = strings.TrimRight(strings.TrimSpace(c.Recognition.Endpoint), "/")
	c.Upload.Endpoint = strings.TrimRight(strings.TrimSpace(c.Upload.Endpoint), "/")
	c.Network.ProbeHost = strings.TrimSpace(c.Network.ProbeHost)
}

func (c *Config) normalizeCompression() {
	c.Compression.Binary = strings.TrimSpace(c.Compression.Binary)
	c.Compression.Preset = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(c.Compression.Preset, "/")))
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
