// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"path/filepath"
	goruntime "runtime"

	"github.com/spf13/cobra"

	"swiftbridge/internal/bindgen"
	"swiftbridge/internal/build"
	"swiftbridge/internal/cargo"
	"swiftbridge/internal/platform"
	"swiftbridge/internal/run"
	"swiftbridge/internal/xcframework"
)

var (
	// buildProfile overrides the configured default cargo profile
	buildProfile string
	// buildFFIModule names the framework and its C module
	buildFFIModule string
	// buildOnlyIOS restricts the build to iOS targets
	buildOnlyIOS bool
	// buildOnlyMacOS restricts the build to macOS targets
	buildOnlyMacOS bool

	buildCmd = &cobra.Command{
		Use:   "build",
		Short: "Build FFI crates for Apple targets and assemble the XCFramework",
		Long: `Build the workspace's root FFI crate for every requested Apple target,
generate Swift bindings per target, merge same-platform libraries, and
assemble the multi-platform XCFramework plus the canonical Swift wrapper
sources.

On non-macOS hosts without --only-ios/--only-macos the build degrades to a
host-only static library with headers (the Linux layout).

Examples:
  swiftbridge build --ffi-module MyLibFFI
  swiftbridge build --ffi-module MyLibFFI --profile dev --only-macos`,
		RunE: runBuild,
	}
)

func init() {
	buildCmd.Flags().StringVar(&buildProfile, "profile", "", "cargo profile: dev or release (default from config)")
	buildCmd.Flags().StringVar(&buildFFIModule, "ffi-module", "", "name of the framework and its C module")
	buildCmd.Flags().BoolVar(&buildOnlyIOS, "only-ios", false, "build only iOS targets")
	buildCmd.Flags().BoolVar(&buildOnlyMacOS, "only-macos", false, "build only macOS targets")
	_ = buildCmd.MarkFlagRequired("ffi-module")
	buildCmd.MarkFlagsMutuallyExclusive("only-ios", "only-macos")
}

// selectPlatforms picks the Apple platforms to build. With no restriction
// flags, a macOS host builds everything and other hosts build none (the
// host-only Linux path).
func selectPlatforms() []platform.OS {
	switch {
	case buildOnlyIOS:
		return []platform.OS{platform.IOS}
	case buildOnlyMacOS:
		return []platform.OS{platform.MacOS}
	case goruntime.GOOS == "darwin":
		return platform.AllOS()
	default:
		return nil
	}
}

func runBuild(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	profileName := buildProfile
	if profileName == "" {
		profileName = cfg.Build.Profile
	}
	profile, err := build.ParseProfile(profileName)
	if err != nil {
		return err
	}

	runner := &run.ExecRunner{Timeout: cfg.Timeout()}

	project, err := cargo.NewProject(ctx, runner, cfg.Tools.Cargo, buildFFIModule)
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
	logger.Debug("resolved root binding crate", "crate", rootCrate.Name)

	driver := &build.Driver{Runner: runner, Cargo: cfg.Tools.Cargo, Logger: logger}
	if cfg.Build.EnvFile != "" {
		if err := driver.LoadEnvFile(cfg.Build.EnvFile); err != nil {
			return err
		}
	}
	generator := &bindgen.Generator{Runner: runner, Bindgen: cfg.Tools.Bindgen, Logger: logger}

	targetDir := project.Metadata.TargetDirectory
	platforms := selectPlatforms()

	if len(platforms) == 0 {
		return buildHostOnly(cmd, driver, generator, project, rootCrate, profile)
	}

	var triples []string
	for _, os := range platforms {
		if err := driver.BuildPlatform(ctx, rootCrate.Name, os, profile); err != nil {
			return err
		}
		for _, dir := range build.BuiltDirs(targetDir, os, profile) {
			if err := generator.GenerateForDir(ctx, dir, buildFFIModule); err != nil {
				return err
			}
		}
		triples = append(triples, os.TargetTriples()...)
	}

	assembler := &xcframework.Assembler{
		Runner:        runner,
		Resolver:      &platform.Resolver{Runner: runner, Rustc: cfg.Tools.Rustc},
		Logger:        logger,
		TargetDir:     targetDir,
		LibraryName:   buildFFIModule,
		Xcodebuild:    cfg.Tools.Xcodebuild,
		Xcrun:         cfg.Tools.Xcrun,
		VerifyHeaders: cfg.Build.VerifyHeaders,
	}
	if err := assembler.Assemble(ctx, triples, profile, project.XCFrameworkPath(), project.SwiftWrapperDir()); err != nil {
		return err
	}

	if err := bindgen.PatchWrappers(rootCrate, buildFFIModule, project.SwiftWrapperDir(), filepath.Join(targetDir, "tmp")); err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), SuccessStyle.Render("xcframework created at ")+project.XCFrameworkPath())
	return nil
}

// buildHostOnly covers non-Apple hosts: one host-target build, bindings for
// it, and a flat library+headers layout instead of a framework bundle.
func buildHostOnly(cmd *cobra.Command, driver *build.Driver, generator *bindgen.Generator, project *cargo.Project, rootCrate *cargo.BindingPackage, profile build.Profile) error {
	ctx := cmd.Context()

	if err := driver.BuildHost(ctx, rootCrate.Name, profile); err != nil {
		return err
	}
	builtDir := build.HostBuiltDir(project.Metadata.TargetDirectory, profile)
	if err := generator.GenerateForDir(ctx, builtDir, buildFFIModule); err != nil {
		return err
	}
	if err := build.StageHostLibrary(builtDir, project.LinuxLibraryDir(), buildFFIModule); err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), SuccessStyle.Render("host library staged at ")+project.LinuxLibraryDir())
	return nil
}
