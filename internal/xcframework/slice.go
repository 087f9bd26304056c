// SPDX-License-Identifier: MPL-2.0

// Package xcframework assembles a multi-platform framework bundle from
// per-triple static libraries. The bundling tool rejects duplicate platform
// entries, so slices are grouped by platform identity and each group is
// merged into one fat library before assembly.
package xcframework

import (
	"fmt"
	"os"
	"path/filepath"

	"swiftbridge/internal/bindgen"
	"swiftbridge/internal/build"
	"swiftbridge/internal/fsutil"
)

// Slice is one architecture-specific build artifact: a thin static library
// built for a single target triple, plus its generated-bindings directory.
type Slice struct {
	Triple  string
	Profile build.Profile
}

// BuiltProductDir is where cargo left this slice's artifacts.
func (s Slice) BuiltProductDir(targetDir string) string {
	return filepath.Join(targetDir, s.Triple, s.Profile.DirName())
}

// BindingsDir is the slice's generated-bindings output directory.
func (s Slice) BindingsDir(targetDir string) (string, error) {
	dir := filepath.Join(s.BuiltProductDir(targetDir), bindgen.BindingsDirName)
	if _, err := os.Stat(dir); err != nil {
		return "", fmt.Errorf("bindings not found for target %s: %w", s.Triple, err)
	}
	return dir, nil
}

// stage copies the slice's single static library into a fresh per-triple
// scratch directory under the given name. Zero or several candidate
// libraries is a fatal fsutil.AmbiguousArtifactError: silently picking one
// would package the wrong code.
func (s Slice) stage(targetDir, libraryName, scratchDir string) (string, error) {
	lib, err := fsutil.ExactlyOne(s.BuiltProductDir(targetDir), "a")
	if err != nil {
		return "", err
	}

	dir := filepath.Join(scratchDir, s.Triple)
	if err := fsutil.RecreateDir(dir); err != nil {
		return "", err
	}

	dest := filepath.Join(dir, libraryName+".a")
	if err := fsutil.CopyFile(lib, dest); err != nil {
		return "", err
	}
	return dest, nil
}
