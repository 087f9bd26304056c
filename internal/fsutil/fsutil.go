// SPDX-License-Identifier: MPL-2.0

// Package fsutil provides the small set of filesystem operations the packaging
// pipeline is built from: scratch directory recreation, file moves, recursive
// copies, and extension-filtered listings.
package fsutil

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// AmbiguousArtifactError reports that a directory did not contain exactly one
// file with the expected extension. Picking an arbitrary candidate would risk
// packaging the wrong artifact, so callers treat this as fatal.
type AmbiguousArtifactError struct {
	// Dir is the directory that was searched.
	Dir string
	// Ext is the extension that was searched for (without leading dot).
	Ext string
	// Found lists the candidate files that were found (may be empty).
	Found []string
}

func (e *AmbiguousArtifactError) Error() string {
	if len(e.Found) == 0 {
		return fmt.Sprintf("expected exactly one .%s file in %s, found none", e.Ext, e.Dir)
	}
	return fmt.Sprintf("expected exactly one .%s file in %s, found %d: %s",
		e.Ext, e.Dir, len(e.Found), strings.Join(e.Found, ", "))
}

// RecreateDir removes dir (if present) and creates it fresh, so callers never
// observe leftover content from a previous run.
func RecreateDir(dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to remove directory %s: %w", dir, err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}

// FilesWithExt returns the regular files in dir whose extension matches ext
// (without leading dot). The result is sorted for deterministic output.
func FilesWithExt(dir, ext string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.TrimPrefix(filepath.Ext(entry.Name()), ".") == ext {
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

// ExactlyOne returns the single file in dir with the given extension.
// Zero or multiple candidates yield an AmbiguousArtifactError.
func ExactlyOne(dir, ext string) (string, error) {
	files, err := FilesWithExt(dir, ext)
	if err != nil {
		return "", err
	}
	if len(files) != 1 {
		return "", &AmbiguousArtifactError{Dir: dir, Ext: ext, Found: files}
	}
	return files[0], nil
}

// MoveFile moves src into dst. When dst is an existing directory the file
// keeps its base name inside it.
func MoveFile(src, dst string) (string, error) {
	info, err := os.Stat(src)
	if err != nil {
		return "", fmt.Errorf("failed to stat source file: %w", err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("source is not a file: %s", src)
	}

	dest := dst
	if dstInfo, err := os.Stat(dst); err == nil && dstInfo.IsDir() {
		dest = filepath.Join(dst, filepath.Base(src))
	}

	if err := os.Rename(src, dest); err != nil {
		return "", fmt.Errorf("failed to move %s to %s: %w", src, dest, err)
	}
	return dest, nil
}

// CopyFile copies src to dst, overwriting dst if it exists.
func CopyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("failed to copy %s to %s: %w", src, dst, err)
	}
	return out.Close()
}

// CopyDir recursively copies the contents of src into dst. dst is recreated
// first, so the copy never merges with prior content.
func CopyDir(src, dst string) error {
	if err := RecreateDir(dst); err != nil {
		return err
	}

	entries, err := os.ReadDir(src)
	if err != nil {
		return fmt.Errorf("failed to read directory %s: %w", src, err)
	}
	for _, entry := range entries {
		srcPath := filepath.Join(src, entry.Name())
		dstPath := filepath.Join(dst, entry.Name())
		if entry.IsDir() {
			if err := CopyDir(srcPath, dstPath); err != nil {
				return err
			}
			continue
		}
		if err := CopyFile(srcPath, dstPath); err != nil {
			return err
		}
	}
	return nil
}

// OnlySubdir returns the single subdirectory of dir. Zero or multiple
// entries is an error: the caller relies on an unambiguous layout.
func OnlySubdir(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("failed to read directory %s: %w", dir, err)
	}
	if len(entries) != 1 {
		names := make([]string, len(entries))
		for i, e := range entries {
			names[i] = e.Name()
		}
		return "", fmt.Errorf("expected 1 entry in %s, found %d: %s", dir, len(entries), strings.Join(names, ", "))
	}
	if !entries[0].IsDir() {
		return "", fmt.Errorf("expected a directory in %s, found file %s", dir, entries[0].Name())
	}
	return filepath.Join(dir, entries[0].Name()), nil
}
