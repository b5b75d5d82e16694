package services

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel markers used to classify stage failures. Wrap tags an error with
// one of these so callers can route the document without string matching.
var (
	// ErrExternalTool marks failures of an external process (Ghostscript).
	ErrExternalTool = errors.New("external tool error")
	// ErrValidation marks content failures that need operator review, such
	// as a recognized identifier that does not match the filename.
	ErrValidation = errors.New("validation error")
	// ErrConfiguration marks unusable configuration discovered at runtime.
	ErrConfiguration = errors.New("configuration error")
	// ErrNotFound marks a document that vanished between discovery and use.
	ErrNotFound = errors.New("not found")
	// ErrTimeout marks a collaborator call that exceeded its deadline.
	ErrTimeout = errors.New("timeout")
	// ErrUnavailable marks the soft offline condition: leave the document in
	// place and retry on the next trigger.
	ErrUnavailable = errors.New("network unavailable")
	// ErrTransient marks remaining recoverable failures.
	ErrTransient = errors.New("transient failure")
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Deferred reports whether the error represents the soft offline condition,
// where the document must be left untouched for a later retry.
func Deferred(err error) bool {
	return errors.Is(err, ErrUnavailable)
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
