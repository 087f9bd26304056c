// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"swiftbridge/internal/cargo"
	"swiftbridge/internal/run"
	"swiftbridge/internal/spm"
)

var (
	// generateFFIModule names the binary target in the generated manifest
	generateFFIModule string
	// generateProjectName is the human-facing project name
	generateProjectName string
	// generateTargetMap maps crate names to Swift Package target names
	generateTargetMap string

	generatePackageCmd = &cobra.Command{
		Use:   "generate-package",
		Short: "Generate Package.swift for the workspace's binding crates",
		Long: `Discover the workspace's binding crates, resolve their single root, and
write a Package.swift wiring one target per crate to the assembled
XCFramework. The manifest is formatted with 'swift format' after writing.

The --target-map flag maps each crate to its Swift Package target name:

  swiftbridge generate-package --ffi-module MyLibFFI --project-name MyLib \
    --target-map mylib:MyLib,mylib_core:MyLibCore`,
		RunE: runGeneratePackage,
	}
)

func init() {
	generatePackageCmd.Flags().StringVar(&generateFFIModule, "ffi-module", "", "name of the framework and its C module")
	generatePackageCmd.Flags().StringVar(&generateProjectName, "project-name", "", "project name used in the generated manifest")
	generatePackageCmd.Flags().StringVar(&generateTargetMap, "target-map", "", "comma-separated crate:Target pairs")
	_ = generatePackageCmd.MarkFlagRequired("ffi-module")
	_ = generatePackageCmd.MarkFlagRequired("project-name")
	_ = generatePackageCmd.MarkFlagRequired("target-map")
}

// parseTargetMap parses "crate:Target,crate2:Target2" into a map.
func parseTargetMap(raw string) (map[string]string, error) {
	m := make(map[string]string)
	for _, pair := range strings.Split(raw, ",") {
		crate, target, ok := strings.Cut(strings.TrimSpace(pair), ":")
		if !ok || crate == "" || target == "" {
			return nil, fmt.Errorf("invalid target-map entry %q (expected crate:Target)", pair)
		}
		m[crate] = target
	}
	return m, nil
}

func runGeneratePackage(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	targetNames, err := parseTargetMap(generateTargetMap)
	if err != nil {
		return err
	}

	runner := &run.ExecRunner{Timeout: cfg.Timeout()}

	project, err := cargo.NewProject(ctx, runner, cfg.Tools.Cargo, generateFFIModule)
	if err != nil {
		return err
	}
	nodes, err := cargo.DiscoverBindingPackages(project.Metadata)
	if err != nil {
		return err
	}
	rootCrate, err := cargo.Root(nodes)
	if err != nil {
		return err
	}

	generator := &spm.Generator{
		Runner: runner,
		Cargo:  cfg.Tools.Cargo,
		Swift:  cfg.Tools.Swift,
		Logger: logger,
	}
	if err := generator.GeneratePackage(ctx, rootCrate.Name, generateFFIModule, generateProjectName, targetNames); err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), SuccessStyle.Render("Package.swift generated"))
	return nil
}
