// SPDX-License-Identifier: MPL-2.0

package xcframework

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"swiftbridge/internal/fsutil"
	"swiftbridge/internal/platform"
	"swiftbridge/internal/run"
)

// LibraryGroup is the set of slices sharing one platform identity. Each
// group contributes exactly one merged library and one header set to the
// assembled bundle. Groups are created fresh per run and discarded after
// assembly.
type LibraryGroup struct {
	ID     platform.Identity
	Slices []Slice
}

// merge stages every slice's library and combines them with the fat-binary
// merge tool into <scratch>/<identity>/<name>.a. Single-slice groups go
// through the same tool invocation.
func (g *LibraryGroup) merge(ctx context.Context, runner run.Runner, xcrunPath, targetDir, libraryName, scratchDir string) (string, error) {
	staged := make([]string, 0, len(g.Slices))
	for _, slice := range g.Slices {
		lib, err := slice.stage(targetDir, libraryName, scratchDir)
		if err != nil {
			return "", err
		}
		staged = append(staged, lib)
	}

	dir := filepath.Join(scratchDir, g.ID.String())
	if err := fsutil.RecreateDir(dir); err != nil {
		return "", err
	}
	dest := filepath.Join(dir, libraryName+".a")

	if xcrunPath == "" {
		xcrunPath = "xcrun"
	}
	args := append([]string{"lipo", "-create"}, staged...)
	args = append(args, "-output", dest)
	if _, err := runner.Run(ctx, run.Cmd{Path: xcrunPath, Args: args}); err != nil {
		return "", fmt.Errorf("failed to merge libraries for platform %s: %w", g.ID, err)
	}
	return dest, nil
}

// bindingsDir returns the first slice's generated-bindings directory. All
// slices of a group are built from identical sources, so their generated
// output is assumed byte-identical; VerifyHeaderParity makes the assumption
// checkable instead of silent.
func (g *LibraryGroup) bindingsDir(targetDir string) (string, error) {
	if len(g.Slices) == 0 {
		return "", fmt.Errorf("no slices in library group %s", g.ID)
	}
	return g.Slices[0].BindingsDir(targetDir)
}

// headersDir returns the group's C header directory.
func (g *LibraryGroup) headersDir(targetDir string) (string, error) {
	bindings, err := g.bindingsDir(targetDir)
	if err != nil {
		return "", err
	}
	headers := filepath.Join(bindings, "Headers")
	if _, err := os.Stat(headers); err != nil {
		return "", fmt.Errorf("headers not found for platform %s: %w", g.ID, err)
	}
	return headers, nil
}

// swiftBindingFiles returns the group's generated Swift wrapper sources.
func (g *LibraryGroup) swiftBindingFiles(targetDir string) ([]string, error) {
	bindings, err := g.bindingsDir(targetDir)
	if err != nil {
		return nil, err
	}
	return fsutil.FilesWithExt(bindings, "swift")
}

// VerifyHeaderParity hash-compares the generated bindings of every slice in
// the group against the first slice's. A mismatch means the "any slice's
// headers will do" assumption does not hold for this build, and the run must
// stop rather than guess which output is authoritative.
func (g *LibraryGroup) VerifyHeaderParity(targetDir string) error {
	if len(g.Slices) < 2 {
		return nil
	}

	reference, err := hashBindings(g.Slices[0], targetDir)
	if err != nil {
		return err
	}
	for _, slice := range g.Slices[1:] {
		h, err := hashBindings(slice, targetDir)
		if err != nil {
			return err
		}
		if h != reference {
			return fmt.Errorf("generated bindings differ between targets %s and %s of platform %s",
				g.Slices[0].Triple, slice.Triple, g.ID)
		}
	}
	return nil
}

// hashBindings digests a slice's bindings directory: relative paths and file
// contents, walked in lexical order.
func hashBindings(s Slice, targetDir string) (string, error) {
	dir, err := s.BindingsDir(targetDir)
	if err != nil {
		return "", err
	}

	h := sha256.New()
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		io.WriteString(h, filepath.ToSlash(rel))
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		_, err = io.Copy(h, f)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("failed to hash bindings for target %s: %w", s.Triple, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// describe renders the group for preview logging.
func (g *LibraryGroup) describe() string {
	triples := make([]string, len(g.Slices))
	for i, s := range g.Slices {
		triples[i] = s.Triple
	}
	return fmt.Sprintf("%s [%s]", g.ID, strings.Join(triples, ", "))
}
