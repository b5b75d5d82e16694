package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"scanflow/internal/config"
)

func validConfigTOML(dir string) string {
	return `
[identity]
scanner_id = "sc-9"
station_id = "ws-4"

[paths]
scan_dir = "` + filepath.Join(dir, "scans") + `"
work_dir = "` + filepath.Join(dir, "stages") + `"
log_dir = "` + filepath.Join(dir, "logs") + `"

[recognition]
endpoint = "http://127.0.0.1:8090/api/recognize"

[upload]
endpoint = "http://127.0.0.1:8091/api/upload"
`
}

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, validConfigTOML(dir))

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to be found")
	}
	if resolved != path {
		t.Fatalf("resolved path = %q, want %q", resolved, path)
	}
	if cfg.Upload.MaxBatchFiles != 5 {
		t.Fatalf("upload.max_batch_files default = %d, want 5", cfg.Upload.MaxBatchFiles)
	}
	if cfg.Compression.Preset != "ebook" {
		t.Fatalf("compression.preset default = %q, want ebook", cfg.Compression.Preset)
	}
	if cfg.Watcher.QuietPeriodSeconds != 5 {
		t.Fatalf("watcher.quiet_period_seconds default = %d, want 5", cfg.Watcher.QuietPeriodSeconds)
	}
}

func TestLoadRejectsMissingIdentity(t *testing.T) {
	dir := t.TempDir()
	contents := strings.Replace(validConfigTOML(dir), `scanner_id = "sc-9"`, `scanner_id = ""`, 1)
	path := writeConfig(t, contents)

	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected error for empty scanner_id")
	}
}

func TestLoadRejectsUnknownPreset(t *testing.T) {
	dir := t.TempDir()
	contents := validConfigTOML(dir) + "\n[compression]\npreset = \"tiny\"\n"
	path := writeConfig(t, contents)

	_, _, _, err := config.Load(path)
	if err == nil || !strings.Contains(err.Error(), "preset") {
		t.Fatalf("expected preset error, got %v", err)
	}
}

func TestNormalizeTrimsPresetSlash(t *testing.T) {
	dir := t.TempDir()
	contents := validConfigTOML(dir) + "\n[compression]\npreset = \"/ebook\"\n"
	path := writeConfig(t, contents)

	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Compression.Preset != "ebook" {
		t.Fatalf("preset = %q, want ebook", cfg.Compression.Preset)
	}
}

func TestRejectsScanDirEqualWorkDir(t *testing.T) {
	dir := t.TempDir()
	contents := strings.ReplaceAll(validConfigTOML(dir), filepath.Join(dir, "stages"), filepath.Join(dir, "scans"))
	path := writeConfig(t, contents)

	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected error when scan_dir equals work_dir")
	}
}

func TestEnsureDirectoriesCreatesStageLayout(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, validConfigTOML(dir))

	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	for _, stageDir := range cfg.StageDirs() {
		info, err := os.Stat(stageDir)
		if err != nil || !info.IsDir() {
			t.Fatalf("stage dir %q missing: %v", stageDir, err)
		}
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("create sample: %v", err)
	}
	if _, _, _, err := config.Load(path); err != nil {
		t.Fatalf("sample config should load: %v", err)
	}
}
