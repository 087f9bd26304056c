// SPDX-License-Identifier: MPL-2.0

package build

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"

	"swiftbridge/internal/fsutil"
	"swiftbridge/internal/platform"
	"swiftbridge/internal/run"
)

// Driver invokes cargo once per target triple. Build output streams to the
// console; everything else in the pipeline captures output, but a compiler
// run can take minutes and the user wants to watch it.
type Driver struct {
	Runner run.Runner
	// Cargo is the cargo executable ("cargo" if empty).
	Cargo string
	// ExtraEnv holds additional KEY=VALUE entries for every build.
	ExtraEnv []string
	Logger   *log.Logger
}

// LoadEnvFile reads a dotenv file into ExtraEnv. Used for build-time
// configuration (linker paths, SDK overrides) that should not live in the
// checked-in workspace.
func (d *Driver) LoadEnvFile(path string) error {
	vars, err := godotenv.Read(path)
	if err != nil {
		return fmt.Errorf("failed to load build env file %s: %w", path, err)
	}
	for k, v := range vars {
		d.ExtraEnv = append(d.ExtraEnv, k+"="+v)
	}
	return nil
}

// BuildPlatform builds pkg for every triple of the given OS.
func (d *Driver) BuildPlatform(ctx context.Context, pkg string, os platform.OS, profile Profile) error {
	for _, triple := range os.TargetTriples() {
		args := baseArgs(os.RequiresNightlyToolchain(), pkg, profile)
		args = append(args, "--target", triple)

		env := append([]string{os.DeploymentTargetEnv()}, d.ExtraEnv...)
		if d.Logger != nil {
			d.Logger.Info("building", "package", pkg, "target", triple, "profile", profile)
		}
		if _, err := d.Runner.Run(ctx, run.Cmd{Path: d.cargo(), Args: args, Env: env, Stream: true}); err != nil {
			return fmt.Errorf("failed to build package %s for target %s: %w", pkg, triple, err)
		}
	}
	return nil
}

// BuildHost builds pkg for the host target only.
func (d *Driver) BuildHost(ctx context.Context, pkg string, profile Profile) error {
	if d.Logger != nil {
		d.Logger.Info("building", "package", pkg, "profile", profile)
	}
	if _, err := d.Runner.Run(ctx, run.Cmd{
		Path:   d.cargo(),
		Args:   baseArgs(false, pkg, profile),
		Env:    d.ExtraEnv,
		Stream: true,
	}); err != nil {
		return fmt.Errorf("failed to build package %s: %w", pkg, err)
	}
	return nil
}

// BuiltDirs returns the directories the given OS's triples drop their
// artifacts in, in triple order.
func BuiltDirs(targetDir string, os platform.OS, profile Profile) []string {
	triples := os.TargetTriples()
	dirs := make([]string, len(triples))
	for i, triple := range triples {
		dirs[i] = filepath.Join(targetDir, triple, profile.DirName())
	}
	return dirs
}

// HostBuiltDir returns the artifact directory of a host-only build.
func HostBuiltDir(targetDir string, profile Profile) string {
	return filepath.Join(targetDir, profile.DirName())
}

// StageHostLibrary copies the host build's headers and single static library
// into destDir, the layout consumed by non-Apple (Linux) integrations.
func StageHostLibrary(builtDir, destDir, ffiModuleName string) error {
	lib, err := fsutil.ExactlyOne(builtDir, "a")
	if err != nil {
		return err
	}

	headers := filepath.Join(builtDir, "swift-bindings", "Headers")
	if err := fsutil.CopyDir(headers, destDir); err != nil {
		return fmt.Errorf("failed to stage headers: %w", err)
	}
	if err := fsutil.CopyFile(lib, filepath.Join(destDir, ffiModuleName+".a")); err != nil {
		return fmt.Errorf("failed to stage static library: %w", err)
	}
	return nil
}

func (d *Driver) cargo() string {
	if d.Cargo == "" {
		return "cargo"
	}
	return d.Cargo
}

// baseArgs assembles the cargo argv shared by all build variants. Debug
// symbols stay on in every profile, and panics abort so native crash reports
// keep the Rust backtrace.
func baseArgs(nightly bool, pkg string, profile Profile) []string {
	var args []string
	if nightly {
		args = append(args, "+nightly", "-Z", "build-std=panic_abort,std")
	}
	args = append(args,
		"--config", fmt.Sprintf("profile.%s.debug=true", profile),
		"--config", fmt.Sprintf(`profile.%s.panic="abort"`, profile),
		"build",
		"--package", pkg,
		"--profile", string(profile),
	)
	return args
}
