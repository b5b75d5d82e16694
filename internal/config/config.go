package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Identity names the operator-supplied scanner and workstation identifiers
// stamped onto every audit record.
type Identity struct {
	ScannerID string `toml:"scanner_id"`
	StationID string `toml:"station_id"`
}

// Paths contains directory configuration.
type Paths struct {
	ScanDir string `toml:"scan_dir"`
	WorkDir string `toml:"work_dir"`
	LogDir  string `toml:"log_dir"`
}

// Recognition contains configuration for the optical-recognition service.
type Recognition struct {
	Endpoint       string `toml:"endpoint"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	MaxAttempts    int    `toml:"max_attempts"`
	RetryDelayMS   int    `toml:"retry_delay_ms"`
}

// Upload contains configuration for the remote assessment service.
type Upload struct {
	Endpoint       string `toml:"endpoint"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	MaxAttempts    int    `toml:"max_attempts"`
	RetryDelayMS   int    `toml:"retry_delay_ms"`
	MaxBatchFiles  int    `toml:"max_batch_files"`
}

// Compression contains configuration for the external Ghostscript process.
type Compression struct {
	Binary         string `toml:"binary"`
	Preset         string `toml:"preset"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Watcher contains stability-detection and settle timing.
type Watcher struct {
	QuietPeriodSeconds int `toml:"quiet_period_seconds"`
	PollIntervalMS     int `toml:"poll_interval_ms"`
	SettleDelayMS      int `toml:"settle_delay_ms"`
}

// Network contains the reachability probe settings.
type Network struct {
	ProbeHost string `toml:"probe_host"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for scanflow. It is built
// once at startup and passed explicitly to every component.
type Config struct {
	Identity    Identity    `toml:"identity"`
	Paths       Paths       `toml:"paths"`
	Recognition Recognition `toml:"recognition"`
	Upload      Upload      `toml:"upload"`
	Compression Compression `toml:"compression"`
	Watcher     Watcher     `toml:"watcher"`
	Network     Network     `toml:"network"`
	Logging     Logging     `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/scanflow/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized. The boolean reports
// whether a config file was actually found.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("scanflow.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the scan root, every stage directory, and the
// log directory. Failure here is fatal to startup.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.ScanDir, c.Paths.WorkDir, c.Paths.LogDir}
	dirs = append(dirs, c.StageDirs()...)
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// Stage directory names. The directory layout is the persisted state of the
// pipeline: which directory holds a document IS its stage.
const (
	LinearizedDirName   = "Linearized"
	ErrorDirName        = "Error"
	UploadQueuedDirName = "Upload-Queued"
	UploadedDirName     = "Uploaded"
	UploadErrorDirName  = "Upload-Error"
)

// LinearizedDir returns the directory holding documents awaiting verification.
func (c *Config) LinearizedDir() string { return filepath.Join(c.Paths.WorkDir, LinearizedDirName) }

// ErrorDir returns the directory holding documents that failed verification.
func (c *Config) ErrorDir() string { return filepath.Join(c.Paths.WorkDir, ErrorDirName) }

// UploadQueuedDir returns the directory holding documents awaiting upload.
func (c *Config) UploadQueuedDir() string { return filepath.Join(c.Paths.WorkDir, UploadQueuedDirName) }

// UploadedDir returns the directory holding successfully uploaded documents.
func (c *Config) UploadedDir() string { return filepath.Join(c.Paths.WorkDir, UploadedDirName) }

// UploadErrorDir returns the directory holding documents whose upload failed permanently.
func (c *Config) UploadErrorDir() string { return filepath.Join(c.Paths.WorkDir, UploadErrorDirName) }

// StageDirs lists every stage directory other than the scan root.
func (c *Config) StageDirs() []string {
	return []string{
		c.LinearizedDir(),
		c.ErrorDir(),
		c.UploadQueuedDir(),
		c.UploadedDir(),
		c.UploadErrorDir(),
	}
}

// AuditLogPath returns the location of the append-only audit trail.
func (c *Config) AuditLogPath() string {
	return filepath.Join(c.Paths.LogDir, "audit.csv")
}

// DocumentExtension returns the accepted document file extension.
func (c *Config) DocumentExtension() string {
	return ".pdf"
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
