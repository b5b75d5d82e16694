package stage

import (
	"fmt"
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"scanflow/internal/config"
)

// Stage is a point in the document processing lifecycle. Each stage maps to
// exactly one directory; a document's stage is always inferable from the
// directory that currently contains it, and moving the file between those
// directories is the one and only state transition.
type Stage int

const (
	// Scanned is the intake stage: the document sits in the scan root.
	Scanned Stage = iota
	// Linearized holds documents that passed intake and await verification.
	Linearized
	// Error holds documents that failed verification. Terminal; operator
	// intervention required.
	Error
	// UploadQueued holds verified documents awaiting upload.
	UploadQueued
	// Uploaded holds documents accepted by the assessment service. Terminal.
	Uploaded
	// UploadError holds documents whose upload failed permanently. Terminal
	// for automation, available for manual resubmission.
	UploadError
)

var stageNames = map[Stage]string{
	Scanned:      "Scanned",
	Linearized:   config.LinearizedDirName,
	Error:        config.ErrorDirName,
	UploadQueued: config.UploadQueuedDirName,
	Uploaded:     config.UploadedDirName,
	UploadError:  config.UploadErrorDirName,
}

// transitions is the stage graph. A document only ever advances along these
// edges; there is no way back.
var transitions = map[Stage][]Stage{
	Scanned:      {Linearized},
	Linearized:   {Error, UploadQueued},
	UploadQueued: {Uploaded, UploadError},
}

var titleCaser = cases.Title(language.English)

func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Stage(%d)", int(s))
}

// Label returns the human-readable stage name used in status output.
func (s Stage) Label() string {
	return titleCaser.String(strings.ReplaceAll(strings.ToLower(s.String()), "-", " "))
}

// Terminal reports whether automation ever moves a document out of s.
func (s Stage) Terminal() bool {
	return len(transitions[s]) == 0
}

// All lists every stage in lifecycle order.
func All() []Stage {
	return []Stage{Scanned, Linearized, Error, UploadQueued, Uploaded, UploadError}
}

// Dir maps a stage to its backing directory under the given configuration.
func Dir(cfg *config.Config, s Stage) string {
	switch s {
	case Scanned:
		return cfg.Paths.ScanDir
	case Linearized:
		return cfg.LinearizedDir()
	case Error:
		return cfg.ErrorDir()
	case UploadQueued:
		return cfg.UploadQueuedDir()
	case Uploaded:
		return cfg.UploadedDir()
	case UploadError:
		return cfg.UploadErrorDir()
	default:
		return ""
	}
}

// Infer derives a document's stage from its containing directory. Documents
// inside a batch sub-directory of the scan root are also Scanned.
func Infer(cfg *config.Config, path string) (Stage, bool) {
	dir := filepath.Dir(path)
	for _, s := range All() {
		if dir == Dir(cfg, s) {
			return s, true
		}
	}
	if filepath.Dir(dir) == cfg.Paths.ScanDir {
		return Scanned, true
	}
	return 0, false
}

// CanAdvance reports whether the stage graph contains the edge from → to.
func CanAdvance(from, to Stage) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
