// SPDX-License-Identifier: MPL-2.0

package cargo

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"swiftbridge/internal/run"
)

// Project is a Cargo workspace opened from its root directory, together with
// the name of the FFI module all generated artifacts are filed under.
type Project struct {
	// FFIModuleName names the merged static library, the framework bundle,
	// and the C module the Swift wrappers import.
	FFIModuleName string
	// Metadata is the full workspace metadata.
	Metadata *Metadata
}

// NewProject loads workspace metadata and verifies the process is running at
// the workspace root. Output paths are derived from the workspace's target
// directory, so running elsewhere would scatter artifacts.
func NewProject(ctx context.Context, runner run.Runner, cargoPath, ffiModuleName string) (*Project, error) {
	md, err := LoadMetadata(ctx, runner, cargoPath, MetadataOptions{})
	if err != nil {
		return nil, err
	}

	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get current directory: %w", err)
	}
	if filepath.Clean(md.WorkspaceRoot) != filepath.Clean(cwd) {
		return nil, fmt.Errorf("current directory %s is not the cargo workspace root %s", cwd, md.WorkspaceRoot)
	}

	return &Project{FFIModuleName: ffiModuleName, Metadata: md}, nil
}

// XCFrameworkPath is the destination the assembled framework bundle is
// renamed to at the end of a successful run.
func (p *Project) XCFrameworkPath() string {
	return filepath.Join(p.Metadata.TargetDirectory, p.FFIModuleName, p.FFIModuleName+".xcframework")
}

// SwiftWrapperDir is where the canonical (architecture-independent) generated
// Swift sources are extracted for consumption by manifest generation.
func (p *Project) SwiftWrapperDir() string {
	return filepath.Join(p.Metadata.TargetDirectory, p.FFIModuleName, "swift-wrapper")
}

// LinuxLibraryDir is where the host-built static library and headers are
// staged when building without Apple platforms.
func (p *Project) LinuxLibraryDir() string {
	return filepath.Join(p.Metadata.TargetDirectory, p.FFIModuleName, "linux")
}
