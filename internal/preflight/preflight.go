package preflight

import (
	"context"

	"scanflow/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes every readiness check for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}
	return []Result{
		CheckDirectoryAccess("Scan directory", cfg.Paths.ScanDir),
		CheckDirectoryAccess("Work directory", cfg.Paths.WorkDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckBinary("Ghostscript", cfg.Compression.Binary),
		CheckDiskSpace("Work disk space", cfg.Paths.WorkDir),
		CheckConnectivity(ctx, cfg.Network.ProbeHost),
	}
}

// Healthy reports whether every result passed.
func Healthy(results []Result) bool {
	for _, result := range results {
		if !result.Passed {
			return false
		}
	}
	return true
}
