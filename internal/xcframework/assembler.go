// SPDX-License-Identifier: MPL-2.0

package xcframework

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/charmbracelet/log"

	"swiftbridge/internal/build"
	"swiftbridge/internal/fsutil"
	"swiftbridge/internal/platform"
	"swiftbridge/internal/run"
)

// Assembler orchestrates one packaging run: identity resolution, slice
// grouping, per-group merge, bundle assembly, header patching, and wrapper
// extraction. A run either installs a complete, patched bundle at the
// destination or leaves nothing there; all intermediate state lives under a
// run-scoped scratch root that is removed on the way out, success or
// failure. Assembler is not reentrant: callers must not share a scratch
// root between concurrent runs.
type Assembler struct {
	Runner   run.Runner
	Resolver *platform.Resolver
	Logger   *log.Logger

	// TargetDir is the cargo target directory holding per-triple builds.
	TargetDir string
	// LibraryName is the base name of merged libraries and the bundle.
	LibraryName string
	// Xcodebuild and Xcrun override the tool executables.
	Xcodebuild string
	Xcrun      string
	// VerifyHeaders enables the per-group generated-output parity check.
	VerifyHeaders bool
}

// Assemble builds the framework bundle for the given triples and installs it
// at dest, then extracts the canonical Swift wrapper sources to wrapperDest.
func (a *Assembler) Assemble(ctx context.Context, triples []string, profile build.Profile, dest, wrapperDest string) error {
	groups, err := a.group(ctx, triples, profile)
	if err != nil {
		return err
	}

	scratch := filepath.Join(a.TargetDir, "tmp", "swiftbridge-xcframework")
	if err := fsutil.RecreateDir(scratch); err != nil {
		return err
	}
	defer os.RemoveAll(scratch)

	a.preview(groups)

	bundle, err := a.createBundle(ctx, groups, scratch)
	if err != nil {
		return err
	}
	if err := Patch(bundle, a.LibraryName); err != nil {
		return err
	}
	if err := install(bundle, dest); err != nil {
		return err
	}
	a.logInfo("framework created", "path", dest)

	// Wrapper sources are architecture-independent; any group can donate
	// its copy.
	if err := a.extractWrappers(groups[0], wrapperDest); err != nil {
		return err
	}
	a.logInfo("swift wrappers created", "path", wrapperDest)
	return nil
}

// group partitions the triples into library groups keyed by platform
// identity. Triples with equal identity always land in the same group;
// group order is fixed by sorting on the identity string so runs are
// reproducible.
func (a *Assembler) group(ctx context.Context, triples []string, profile build.Profile) ([]*LibraryGroup, error) {
	if len(triples) == 0 {
		return nil, fmt.Errorf("no target triples to assemble")
	}

	byID := make(map[platform.Identity]*LibraryGroup)
	for _, triple := range triples {
		id, err := a.Resolver.Resolve(ctx, triple)
		if err != nil {
			return nil, err
		}
		g, ok := byID[id]
		if !ok {
			g = &LibraryGroup{ID: id}
			byID[id] = g
		}
		g.Slices = append(g.Slices, Slice{Triple: triple, Profile: profile})
	}

	groups := make([]*LibraryGroup, 0, len(byID))
	for _, g := range byID {
		groups = append(groups, g)
	}
	sort.Slice(groups, func(i, j int) bool {
		return groups[i].ID.String() < groups[j].ID.String()
	})
	return groups, nil
}

// createBundle merges each group and invokes the bundling tool with one
// (library, headers) pair per distinct platform, producing the bundle under
// scratch.
func (a *Assembler) createBundle(ctx context.Context, groups []*LibraryGroup, scratch string) (string, error) {
	dest := filepath.Join(scratch, a.LibraryName+".xcframework")
	if err := os.RemoveAll(dest); err != nil {
		return "", err
	}

	args := []string{"-create-xcframework"}
	for _, g := range groups {
		if a.VerifyHeaders {
			if err := g.VerifyHeaderParity(a.TargetDir); err != nil {
				return "", err
			}
		}
		lib, err := g.merge(ctx, a.Runner, a.Xcrun, a.TargetDir, a.LibraryName, scratch)
		if err != nil {
			return "", err
		}
		headers, err := g.headersDir(a.TargetDir)
		if err != nil {
			return "", err
		}
		args = append(args, "-library", lib, "-headers", headers)
	}
	args = append(args, "-output", dest)

	xcodebuild := a.Xcodebuild
	if xcodebuild == "" {
		xcodebuild = "xcodebuild"
	}
	if _, err := a.Runner.Run(ctx, run.Cmd{Path: xcodebuild, Args: args}); err != nil {
		return "", fmt.Errorf("failed to create xcframework: %w", err)
	}
	return dest, nil
}

// install replaces dest with the fully-built bundle in one rename. Prior
// destination content is removed unconditionally; a failed run never leaves
// a half-written bundle because the rename is the only step that touches
// dest.
func install(bundle, dest string) error {
	if err := os.RemoveAll(dest); err != nil {
		return fmt.Errorf("failed to remove previous bundle at %s: %w", dest, err)
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	if err := os.Rename(bundle, dest); err != nil {
		return fmt.Errorf("failed to move xcframework to %s: %w", dest, err)
	}
	return nil
}

// extractWrappers copies the group's Swift wrapper sources into dest,
// recreated first.
func (a *Assembler) extractWrappers(g *LibraryGroup, dest string) error {
	files, err := g.swiftBindingFiles(a.TargetDir)
	if err != nil {
		return err
	}
	if err := fsutil.RecreateDir(dest); err != nil {
		return err
	}
	for _, f := range files {
		if err := fsutil.CopyFile(f, filepath.Join(dest, filepath.Base(f))); err != nil {
			return err
		}
	}
	return nil
}

func (a *Assembler) preview(groups []*LibraryGroup) {
	if a.Logger == nil {
		return
	}
	a.Logger.Info("assembling xcframework", "platforms", len(groups))
	for _, g := range groups {
		a.Logger.Info("  " + g.describe())
	}
}

func (a *Assembler) logInfo(msg string, kv ...any) {
	if a.Logger != nil {
		a.Logger.Info(msg, kv...)
	}
}
