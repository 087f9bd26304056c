// SPDX-License-Identifier: MPL-2.0

// Package cargo reads Cargo workspace metadata and models the dependency
// graph of binding crates: the crates whose FFI surface gets compiled into
// the multi-platform framework and wrapped by generated Swift sources.
package cargo

import (
	"context"
	"encoding/json"
	"fmt"

	"swiftbridge/internal/run"
)

type (
	// Metadata is the subset of `cargo metadata` output the pipeline needs.
	Metadata struct {
		Packages        []Package `json:"packages"`
		WorkspaceRoot   string    `json:"workspace_root"`
		TargetDirectory string    `json:"target_directory"`
	}

	// Package is one crate in the workspace's dependency universe.
	Package struct {
		// ID is cargo's package id; its scheme prefix (git+, path+,
		// registry+) encodes where the crate's sources come from.
		ID           string       `json:"id"`
		Name         string       `json:"name"`
		ManifestPath string       `json:"manifest_path"`
		Dependencies []Dependency `json:"dependencies"`
	}

	// Dependency is one declared dependency edge of a Package.
	Dependency struct {
		Name string `json:"name"`
		// Kind is "" for normal dependencies, "dev" or "build" otherwise.
		// cargo emits JSON null for normal, which decodes to "".
		Kind     string `json:"kind"`
		Optional bool   `json:"optional"`
	}

	// MetadataOptions controls the `cargo metadata` invocation.
	MetadataOptions struct {
		// ManifestPath points the query at a specific Cargo.toml
		// ("" means the current directory's workspace).
		ManifestPath string
		// NoDeps limits output to workspace members.
		NoDeps bool
	}
)

// IsNormal reports whether the dependency participates in the compiled
// library (as opposed to dev/build-only edges).
func (d Dependency) IsNormal() bool { return d.Kind == "" }

// LoadMetadata runs `cargo metadata` and decodes the result.
func LoadMetadata(ctx context.Context, runner run.Runner, cargoPath string, opts MetadataOptions) (*Metadata, error) {
	if cargoPath == "" {
		cargoPath = "cargo"
	}

	args := []string{"metadata", "--format-version", "1"}
	if opts.NoDeps {
		args = append(args, "--no-deps")
	}
	if opts.ManifestPath != "" {
		args = append(args, "--manifest-path", opts.ManifestPath)
	}

	out, err := runner.Run(ctx, run.Cmd{Path: cargoPath, Args: args})
	if err != nil {
		return nil, fmt.Errorf("failed to load cargo metadata: %w", err)
	}

	var md Metadata
	if err := json.Unmarshal(out.Stdout, &md); err != nil {
		return nil, fmt.Errorf("failed to parse cargo metadata: %w", err)
	}
	return &md, nil
}
