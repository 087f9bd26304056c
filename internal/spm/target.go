// SPDX-License-Identifier: MPL-2.0

// Package spm generates the Swift Package manifest that wires one target per
// binding crate to the assembled framework.
package spm

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"swiftbridge/internal/cargo"
	"swiftbridge/internal/fsutil"
	"swiftbridge/internal/run"
)

// Target describes one Swift Package target derived from a binding crate:
// its name, where its handwritten sources and tests live (relative to the
// project root), which sibling targets it depends on, and whether its tests
// carry a resource bundle.
type Target struct {
	Name              string
	LibrarySourcePath string
	TestSourcePath    string
	Dependencies      []string
	HasTestResources  bool
}

// swiftCodeSubdir is where a binding crate keeps its companion Swift code,
// relative to the crate's own workspace root.
const swiftCodeSubdir = "native/swift"

// newTarget locates the crate's companion Swift sources. The crate's own
// workspace root is resolved through its manifest, and the Sources/ and
// Tests/ directories must each contain exactly one subdirectory.
func newTarget(ctx context.Context, runner run.Runner, cargoPath, name string, pkg *cargo.Package, rootDir string) (Target, error) {
	if !strings.HasPrefix(pkg.ID, "git+") && !strings.HasPrefix(pkg.ID, "path+") {
		return Target{}, &cargo.UnsupportedSourcingError{Package: pkg.Name, ID: pkg.ID}
	}

	md, err := cargo.LoadMetadata(ctx, runner, cargoPath, cargo.MetadataOptions{ManifestPath: pkg.ManifestPath})
	if err != nil {
		return Target{}, fmt.Errorf("failed to load metadata for crate %s: %w", pkg.Name, err)
	}

	swiftDir := filepath.Join(md.WorkspaceRoot, filepath.FromSlash(swiftCodeSubdir))

	sourcesDir, err := fsutil.OnlySubdir(filepath.Join(swiftDir, "Sources"))
	if err != nil {
		return Target{}, fmt.Errorf("failed to locate Swift sources for crate %s: %w", pkg.Name, err)
	}
	testsDir, err := fsutil.OnlySubdir(filepath.Join(swiftDir, "Tests"))
	if err != nil {
		return Target{}, fmt.Errorf("failed to locate Swift tests for crate %s: %w", pkg.Name, err)
	}

	librarySourcePath, err := relativePath(sourcesDir, rootDir)
	if err != nil {
		return Target{}, err
	}
	testSourcePath, err := relativePath(testsDir, rootDir)
	if err != nil {
		return Target{}, err
	}

	return Target{
		Name:              name,
		LibrarySourcePath: librarySourcePath,
		TestSourcePath:    testSourcePath,
		HasTestResources:  dirExists(filepath.Join(testsDir, "Resources")),
	}, nil
}

func relativePath(path, base string) (string, error) {
	rel, err := filepath.Rel(base, path)
	if err != nil {
		return "", fmt.Errorf("failed to relativize %s against %s: %w", path, base, err)
	}
	return filepath.ToSlash(rel), nil
}
