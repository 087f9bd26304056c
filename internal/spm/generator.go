// SPDX-License-Identifier: MPL-2.0

package spm

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"text/template"

	"github.com/charmbracelet/log"

	"swiftbridge/internal/cargo"
	"swiftbridge/internal/run"
)

//go:embed templates/package.swift.tmpl
var packageTemplate string

// Generator renders Package.swift for the workspace's binding crates.
type Generator struct {
	Runner run.Runner
	// Cargo and Swift override the tool executables.
	Cargo  string
	Swift  string
	Logger *log.Logger
}

// manifestData is the template input for Package.swift.
type manifestData struct {
	PackageName   string
	FFIModuleName string
	ProjectName   string
	Targets       []Target
}

// GeneratePackage writes Package.swift at the workspace root and formats it
// in place. targetNames maps each binding crate to its Swift Package target
// name; every crate involved must have a mapping.
func (g *Generator) GeneratePackage(ctx context.Context, topLevelCrate, ffiModuleName, projectName string, targetNames map[string]string) error {
	md, err := cargo.LoadMetadata(ctx, g.Runner, g.Cargo, cargo.MetadataOptions{NoDeps: true})
	if err != nil {
		return err
	}

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get current directory: %w", err)
	}
	if filepath.Clean(md.WorkspaceRoot) != filepath.Clean(cwd) {
		return fmt.Errorf("current directory %s is not the cargo workspace root %s", cwd, md.WorkspaceRoot)
	}

	packageName, ok := targetNames[topLevelCrate]
	if !ok {
		return fmt.Errorf("no target name specified for top-level crate %s", topLevelCrate)
	}

	var crates []*cargo.Package
	for i := range md.Packages {
		if _, ok := targetNames[md.Packages[i].Name]; ok {
			crates = append(crates, &md.Packages[i])
		}
	}
	if g.Logger != nil {
		g.Logger.Info("found binding crates", "count", len(crates))
		for _, c := range crates {
			g.Logger.Info("  - " + c.Name)
		}
	}

	targets := make([]Target, 0, len(crates))
	for _, crate := range crates {
		target, err := newTarget(ctx, g.Runner, g.Cargo, targetNames[crate.Name], crate, md.WorkspaceRoot)
		if err != nil {
			return err
		}
		for _, dep := range crate.Dependencies {
			if dep.Optional || !dep.IsNormal() {
				continue
			}
			if name, ok := targetNames[dep.Name]; ok {
				target.Dependencies = append(target.Dependencies, name)
			}
		}
		targets = append(targets, target)
	}

	dest := filepath.Join(md.WorkspaceRoot, "Package.swift")
	if err := renderManifest(dest, manifestData{
		PackageName:   packageName,
		FFIModuleName: ffiModuleName,
		ProjectName:   projectName,
		Targets:       targets,
	}); err != nil {
		return err
	}

	swift := g.Swift
	if swift == "" {
		swift = "swift"
	}
	if _, err := g.Runner.Run(ctx, run.Cmd{Path: swift, Args: []string{"format", "--in-place", dest}}); err != nil {
		return fmt.Errorf("failed to format %s: %w", dest, err)
	}
	if g.Logger != nil {
		g.Logger.Info("package manifest written", "path", dest)
	}
	return nil
}

func renderManifest(dest string, data manifestData) error {
	tmpl, err := template.New("package").Parse(packageTemplate)
	if err != nil {
		return fmt.Errorf("failed to parse manifest template: %w", err)
	}

	f, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dest, err)
	}
	defer f.Close()

	if err := tmpl.Execute(f, data); err != nil {
		return fmt.Errorf("failed to render %s: %w", dest, err)
	}
	return f.Close()
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
