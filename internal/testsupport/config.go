// Package testsupport provides shared fixtures for scanflow tests: per-test
// configuration with unique temp directories and small file helpers.
package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"scanflow/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a validated config seeded with unique temp directories
// per test, with the full stage layout already created on disk.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Identity.ScannerID = "scanner-test"
	cfgVal.Identity.StationID = "station-test"
	cfgVal.Paths.ScanDir = filepath.Join(base, "scans")
	cfgVal.Paths.WorkDir = filepath.Join(base, "stages")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Recognition.Endpoint = "http://127.0.0.1:0/api/recognize"
	cfgVal.Recognition.RetryDelayMS = 1
	cfgVal.Upload.Endpoint = "http://127.0.0.1:0/api/upload"
	cfgVal.Upload.RetryDelayMS = 1
	cfgVal.Watcher.QuietPeriodSeconds = 1
	cfgVal.Watcher.PollIntervalMS = 10
	cfgVal.Watcher.SettleDelayMS = 10

	builder := &configBuilder{t: t, baseDir: base, cfg: &cfgVal}
	for _, opt := range opts {
		opt(builder)
	}

	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return builder.cfg
}

// WithRecognitionEndpoint points the recognition collaborator at url.
func WithRecognitionEndpoint(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Recognition.Endpoint = url
	}
}

// WithUploadEndpoint points the upload collaborator at url.
func WithUploadEndpoint(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Upload.Endpoint = url
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. If names is empty, the Ghostscript binary is
// stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"gs"}
		}
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		script := []byte("#!/bin/sh\nexit 0\n")
		for _, name := range names {
			target := filepath.Join(binDir, name)
			if err := os.WriteFile(target, script, 0o755); err != nil {
				b.t.Fatalf("write stub %s: %v", name, err)
			}
		}

		oldPath := os.Getenv("PATH")
		if err := os.Setenv("PATH", binDir+string(os.PathListSeparator)+oldPath); err != nil {
			b.t.Fatalf("set PATH: %v", err)
		}
		b.t.Cleanup(func() {
			_ = os.Setenv("PATH", oldPath)
		})
	}
}
