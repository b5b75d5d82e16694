package stage

import (
	"fmt"

	"scanflow/internal/config"
	"scanflow/internal/fileutil"
)

// Move advances the document at path into the target stage's directory via
// a single atomic rename, enforcing the stage graph: transitions that would
// revert or skip a stage are rejected before any filesystem change. The new
// path is returned on success.
func Move(cfg *config.Config, path string, to Stage) (string, error) {
	from, ok := Infer(cfg, path)
	if !ok {
		return "", fmt.Errorf("path %s is not inside a stage directory", path)
	}
	if !CanAdvance(from, to) {
		return "", fmt.Errorf("illegal stage transition %s -> %s", from, to)
	}
	return fileutil.MoveFile(path, Dir(cfg, to))
}

// Counts lists the number of documents currently held by each stage
// directory. The scan root counts loose documents only; batch directories
// are transient and not included.
func Counts(cfg *config.Config) (map[Stage]int, error) {
	counts := make(map[Stage]int, len(All()))
	for _, s := range All() {
		n, err := fileutil.CountFilesWithExt(Dir(cfg, s), cfg.DocumentExtension())
		if err != nil {
			return nil, fmt.Errorf("count %s: %w", s, err)
		}
		counts[s] = n
	}
	return counts, nil
}
