// SPDX-License-Identifier: MPL-2.0

package bindgen

import (
	"bufio"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"swiftbridge/internal/cargo"
)

//go:embed templates/wrapper_prefix.swift.tmpl
var wrapperPrefixTemplate string

// foreignFutureTaskDecl is a generator-emitted protocol that collides when
// two wrappers end up in one module; demoting it to fileprivate keeps each
// copy local to its own file.
const foreignFutureTaskDecl = "protocol UniffiForeignFutureTask {"

// PatchWrappers rewrites every extracted Swift wrapper under wrapperDir:
// each file gains an import prefix for the modules its crate depends on, and
// generator declarations that would collide across wrappers are demoted to
// fileprivate. The rewrite goes through a temp file and lands by rename.
func PatchWrappers(root *cargo.BindingPackage, projectFFIModuleName, wrapperDir, tempDir string) error {
	for pkg := range root.Iter() {
		path := filepath.Join(wrapperDir, pkg.SwiftWrapperFileName())
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("wrapper for crate %s not found: %w", pkg.Name, err)
		}
		prefix, err := wrapperPrefix(pkg, projectFFIModuleName)
		if err != nil {
			return err
		}
		if err := rewriteWrapper(path, prefix, tempDir); err != nil {
			return fmt.Errorf("failed to patch wrapper for crate %s: %w", pkg.Name, err)
		}
	}
	return nil
}

// wrapperPrefix renders the import lines a crate's wrapper needs: the
// internal modules of every crate below it, plus the project FFI module when
// the crate's own FFI module differs from it.
func wrapperPrefix(pkg *cargo.BindingPackage, projectFFIModuleName string) (string, error) {
	var imports []string
	for dep := range pkg.Iter() {
		if dep.Name == pkg.Name {
			continue
		}
		name, err := dep.InternalModuleName()
		if err != nil {
			return "", err
		}
		imports = append(imports, name)
	}

	ffiName, err := pkg.FFIModuleName()
	if err != nil {
		return "", err
	}
	if ffiName != projectFFIModuleName {
		imports = append(imports, projectFFIModuleName)
	}

	tmpl, err := template.New("prefix").Parse(wrapperPrefixTemplate)
	if err != nil {
		return "", fmt.Errorf("failed to parse wrapper prefix template: %w", err)
	}
	var sb strings.Builder
	if err := tmpl.Execute(&sb, struct{ ModulesToImport []string }{imports}); err != nil {
		return "", fmt.Errorf("failed to render wrapper prefix: %w", err)
	}
	return sb.String(), nil
}

func rewriteWrapper(path, prefix, tempDir string) error {
	if err := os.MkdirAll(tempDir, 0o755); err != nil {
		return err
	}
	tempPath := filepath.Join(tempDir, "wrapper.swift")
	if err := os.RemoveAll(tempPath); err != nil {
		return err
	}

	out, err := os.Create(tempPath)
	if err != nil {
		return err
	}
	defer out.Close()

	w := bufio.NewWriter(out)
	if _, err := fmt.Fprintf(w, "%s\n", prefix); err != nil {
		return err
	}

	in, err := os.Open(path)
	if err != nil {
		return err
	}
	defer in.Close()

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if line == foreignFutureTaskDecl {
			line = "fileprivate " + foreignFutureTaskDecl
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}

	return os.Rename(tempPath, path)
}
