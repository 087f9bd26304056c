// SPDX-License-Identifier: MPL-2.0

// Package bindgen orchestrates the external Swift bindings generator and
// reorganizes its output into the layout the framework assembly step
// expects: a swift-bindings directory with wrapper sources at the top and C
// headers plus a module map under Headers/.
package bindgen

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"text/template"

	"github.com/charmbracelet/log"

	"swiftbridge/internal/fsutil"
	"swiftbridge/internal/run"
)

// BindingsDirName is the per-build-dir output directory for generated
// bindings, a sibling of the static library.
const BindingsDirName = "swift-bindings"

//go:embed templates/module.modulemap.tmpl
var modulemapTemplate string

// Generator runs the bindings generator over built static libraries.
type Generator struct {
	Runner run.Runner
	// Bindgen is the generator executable ("uniffi-bindgen-swift" if empty).
	Bindgen string
	Logger  *log.Logger
}

// GenerateForDir locates the single static library in builtDir, generates
// Swift sources and headers for it, and reorganizes the output. The library
// must be unambiguous: zero or several candidates abort the run.
func (g *Generator) GenerateForDir(ctx context.Context, builtDir, ffiModuleName string) error {
	lib, err := fsutil.ExactlyOne(builtDir, "a")
	if err != nil {
		return err
	}

	outDir := filepath.Join(builtDir, BindingsDirName)
	if err := fsutil.RecreateDir(outDir); err != nil {
		return err
	}

	if g.Logger != nil {
		g.Logger.Info("generating bindings", "library", filepath.Base(lib))
	}

	bindgen := g.Bindgen
	if bindgen == "" {
		bindgen = "uniffi-bindgen-swift"
	}
	if _, err := g.Runner.Run(ctx, run.Cmd{
		Path: bindgen,
		Args: []string{"--swift-sources", "--headers", lib, outDir},
	}); err != nil {
		return fmt.Errorf("failed to generate bindings for %s: %w", lib, err)
	}

	return reorganize(outDir, ffiModuleName)
}

// reorganize moves generated headers into Headers/ and writes a module map
// covering them, so each platform slice carries a self-contained C module.
func reorganize(bindingsDir, ffiModuleName string) error {
	headersDir := filepath.Join(bindingsDir, "Headers")
	if err := fsutil.RecreateDir(headersDir); err != nil {
		return err
	}

	headers, err := fsutil.FilesWithExt(bindingsDir, "h")
	if err != nil {
		return err
	}

	headerNames := make([]string, 0, len(headers))
	for _, h := range headers {
		headerNames = append(headerNames, filepath.Base(h))
		if _, err := fsutil.MoveFile(h, headersDir); err != nil {
			return err
		}
	}

	tmpl, err := template.New("modulemap").Parse(modulemapTemplate)
	if err != nil {
		return fmt.Errorf("failed to parse module map template: %w", err)
	}

	f, err := os.Create(filepath.Join(headersDir, "module.modulemap"))
	if err != nil {
		return fmt.Errorf("failed to create module map: %w", err)
	}
	defer f.Close()

	data := struct {
		FFIModuleName string
		HeaderFiles   []string
	}{ffiModuleName, headerNames}
	if err := tmpl.Execute(f, data); err != nil {
		return fmt.Errorf("failed to render module map: %w", err)
	}
	return f.Close()
}
