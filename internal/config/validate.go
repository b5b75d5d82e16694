package config

import (
	"errors"
	"fmt"
	"sort"
)

var ghostscriptPresets = map[string]struct{}{
	"screen":   {},
	"ebook":    {},
	"printer":  {},
	"prepress": {},
	"default":  {},
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateIdentity(); err != nil {
		return err
	}
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateServices(); err != nil {
		return err
	}
	if err := c.validateCompression(); err != nil {
		return err
	}
	if err := c.validateWatcher(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateIdentity() error {
	if c.Identity.ScannerID == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/scanflow/config.toml"
		}
		return fmt.Errorf("identity.scanner_id is required; edit %s (create with 'scanflow config init')", defaultPath)
	}
	if c.Identity.StationID == "" {
		return errors.New("identity.station_id is required")
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.ScanDir == "" {
		return errors.New("paths.scan_dir must be set")
	}
	if c.Paths.WorkDir == "" {
		return errors.New("paths.work_dir must be set")
	}
	if c.Paths.ScanDir == c.Paths.WorkDir {
		return errors.New("paths.scan_dir and paths.work_dir must differ")
	}
	return nil
}

func (c *Config) validateServices() error {
	if c.Recognition.Endpoint == "" {
		return errors.New("recognition.endpoint must be set")
	}
	if c.Upload.Endpoint == "" {
		return errors.New("upload.endpoint must be set")
	}
	if c.Network.ProbeHost == "" {
		return errors.New("network.probe_host must be set")
	}
	if err := ensurePositiveMap(map[string]int{
		"recognition.timeout_seconds": c.Recognition.TimeoutSeconds,
		"recognition.max_attempts":    c.Recognition.MaxAttempts,
		"recognition.retry_delay_ms":  c.Recognition.RetryDelayMS,
		"upload.timeout_seconds":      c.Upload.TimeoutSeconds,
		"upload.max_attempts":         c.Upload.MaxAttempts,
		"upload.retry_delay_ms":       c.Upload.RetryDelayMS,
		"upload.max_batch_files":      c.Upload.MaxBatchFiles,
	}); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateCompression() error {
	if c.Compression.Binary == "" {
		return errors.New("compression.binary must be set")
	}
	if _, ok := ghostscriptPresets[c.Compression.Preset]; !ok {
		return fmt.Errorf("compression.preset %q is not a Ghostscript preset (screen, ebook, printer, prepress, default)", c.Compression.Preset)
	}
	if c.Compression.TimeoutSeconds <= 0 {
		return errors.New("compression.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateWatcher() error {
	return ensurePositiveMap(map[string]int{
		"watcher.quiet_period_seconds": c.Watcher.QuietPeriodSeconds,
		"watcher.poll_interval_ms":     c.Watcher.PollIntervalMS,
		"watcher.settle_delay_ms":      c.Watcher.SettleDelayMS,
	})
}

func ensurePositiveMap(values map[string]int) error {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if values[key] <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
