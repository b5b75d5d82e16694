package preflight

import (
	"context"
	"path/filepath"
	"testing"

	"scanflow/internal/testsupport"
)

func TestCheckDirectoryAccess(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("Scan directory", dir)
	if !result.Passed {
		t.Fatalf("expected pass for %s: %s", dir, result.Detail)
	}

	result = CheckDirectoryAccess("Scan directory", filepath.Join(dir, "missing"))
	if result.Passed {
		t.Fatal("expected failure for missing directory")
	}
}

func TestCheckBinary(t *testing.T) {
	if result := CheckBinary("Ghostscript", ""); result.Passed {
		t.Fatal("expected failure for unconfigured command")
	}
	if result := CheckBinary("Ghostscript", "scanflow-no-such-binary"); result.Passed {
		t.Fatal("expected failure for unresolvable command")
	}
	testsupport.NewConfig(t, testsupport.WithStubbedBinaries("gs"))
	if result := CheckBinary("Ghostscript", "gs"); !result.Passed {
		t.Fatalf("expected pass for stubbed binary: %s", result.Detail)
	}
}

func TestCheckDiskSpace(t *testing.T) {
	result := CheckDiskSpace("Work disk space", t.TempDir())
	if result.Detail == "" {
		t.Fatal("expected detail text")
	}
}

func TestOnlineRejectsEmptyHost(t *testing.T) {
	if Online(context.Background(), "  ") {
		t.Fatal("empty probe host must report offline")
	}
}

func TestRunAllCoversEveryCheck(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())

	results := RunAll(context.Background(), cfg)
	if len(results) != 6 {
		t.Fatalf("results = %d, want 6", len(results))
	}
	seen := map[string]bool{}
	for _, result := range results {
		seen[result.Name] = true
	}
	for _, name := range []string{"Scan directory", "Work directory", "Log directory", "Ghostscript", "Work disk space", "Network"} {
		if !seen[name] {
			t.Errorf("missing check %q", name)
		}
	}
}
