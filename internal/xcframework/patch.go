// SPDX-License-Identifier: MPL-2.0

package xcframework

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"swiftbridge/internal/fsutil"
)

// Patch namespaces each platform's header files inside the bundle: every
// non-library file under <platform>/Headers is moved into a new
// Headers/<moduleName> subdirectory, with the static library left in place.
// Two independently produced bundles linked into the same consumer would
// otherwise collide on the flat headers path.
//
// Patch is not idempotent. Running it on an already-patched bundle nests the
// module directory a second time; callers invoke it exactly once, on the
// freshly assembled bundle.
func Patch(bundleDir, moduleName string) error {
	entries, err := os.ReadDir(bundleDir)
	if err != nil {
		return fmt.Errorf("failed to read bundle %s: %w", bundleDir, err)
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		headersDir := filepath.Join(bundleDir, entry.Name(), "Headers")
		if err := patchHeaders(headersDir, moduleName); err != nil {
			return err
		}
	}
	return nil
}

func patchHeaders(headersDir, moduleName string) error {
	entries, err := os.ReadDir(headersDir)
	if err != nil {
		return fmt.Errorf("failed to read headers %s: %w", headersDir, err)
	}

	var loose []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".a") {
			continue
		}
		loose = append(loose, entry.Name())
	}

	moduleDir := filepath.Join(headersDir, moduleName)
	if err := fsutil.RecreateDir(moduleDir); err != nil {
		return err
	}
	for _, name := range loose {
		if err := os.Rename(filepath.Join(headersDir, name), filepath.Join(moduleDir, name)); err != nil {
			return fmt.Errorf("failed to relocate header %s: %w", name, err)
		}
	}
	return nil
}
