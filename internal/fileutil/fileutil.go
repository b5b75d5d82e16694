// Package fileutil contains small filesystem helpers shared by the pipeline
// stages. Directory content is only ever mutated through atomic renames; the
// helpers here never copy-and-delete.
package fileutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// MoveFile renames src into destDir, keeping the base name. The rename is
// the sole mutation primitive for stage transitions, so a failure leaves the
// source untouched.
func MoveFile(src, destDir string) (string, error) {
	dest := filepath.Join(destDir, filepath.Base(src))
	if err := os.Rename(src, dest); err != nil {
		return "", fmt.Errorf("move %s: %w", filepath.Base(src), err)
	}
	return dest, nil
}

// ListFilesWithExt returns the sorted absolute paths of regular files in dir
// whose extension matches ext (case-insensitive, leading dot included).
func ListFilesWithExt(dir, ext string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	ext = strings.ToLower(ext)
	paths := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.ToLower(filepath.Ext(entry.Name())) != ext {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

// CountFilesWithExt counts regular files in dir matching ext. A missing
// directory counts as zero files.
func CountFilesWithExt(dir, ext string) (int, error) {
	paths, err := ListFilesWithExt(dir, ext)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, err
	}
	return len(paths), nil
}

// RemoveIfEmpty deletes dir when it contains no entries. Removing a
// non-empty directory is refused so unprocessed documents are never lost.
func RemoveIfEmpty(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if len(entries) > 0 {
		return fmt.Errorf("directory %s not empty", dir)
	}
	return os.Remove(dir)
}
