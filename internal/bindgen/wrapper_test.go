// SPDX-License-Identifier: MPL-2.0

package bindgen

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"swiftbridge/internal/cargo"
)

func bindingPackage(t *testing.T, name string, deps ...*cargo.BindingPackage) *cargo.BindingPackage {
	t.Helper()
	return &cargo.BindingPackage{
		Name:         name,
		ManifestPath: filepath.Join(t.TempDir(), "Cargo.toml"),
		Dependencies: deps,
	}
}

func TestPatchWrappers(t *testing.T) {
	core := bindingPackage(t, "core")
	app := bindingPackage(t, "app", core)

	wrapperDir := t.TempDir()
	appBody := "// generated\nfunc appCall() {}\n"
	coreBody := "protocol UniffiForeignFutureTask {\n}\n"
	if err := os.WriteFile(filepath.Join(wrapperDir, "app.swift"), []byte(appBody), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(wrapperDir, "core.swift"), []byte(coreBody), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := PatchWrappers(app, "MyLibFFI", wrapperDir, t.TempDir()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	appOut, err := os.ReadFile(filepath.Join(wrapperDir, "app.swift"))
	if err != nil {
		t.Fatal(err)
	}
	appText := string(appOut)
	if !strings.Contains(appText, "import coreInternal") {
		t.Errorf("app wrapper does not import its dependency:\n%s", appText)
	}
	if !strings.Contains(appText, "import MyLibFFI") {
		t.Errorf("app wrapper does not import the project FFI module:\n%s", appText)
	}
	if !strings.Contains(appText, "func appCall()") {
		t.Errorf("original body lost:\n%s", appText)
	}
	if !strings.HasSuffix(strings.TrimSpace(appText), "func appCall() {}") {
		t.Errorf("prefix should come before the body:\n%s", appText)
	}

	coreOut, err := os.ReadFile(filepath.Join(wrapperDir, "core.swift"))
	if err != nil {
		t.Fatal(err)
	}
	coreText := string(coreOut)
	if strings.Contains(coreText, "import coreInternal") {
		t.Errorf("core wrapper must not import itself:\n%s", coreText)
	}
	if !strings.Contains(coreText, "fileprivate protocol UniffiForeignFutureTask {") {
		t.Errorf("colliding declaration not demoted:\n%s", coreText)
	}
	if strings.Contains(coreText, "\nprotocol UniffiForeignFutureTask {") {
		t.Errorf("undemoted declaration remains:\n%s", coreText)
	}
}

func TestPatchWrappersNoExtraImportWhenFFIMatches(t *testing.T) {
	dir := t.TempDir()
	manifest := filepath.Join(dir, "Cargo.toml")
	if err := os.WriteFile(manifest, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	// The crate's FFI module is renamed to match the project-wide one.
	config := "[bindings.swift]\nffi_module_name = \"MyLibFFI\"\n"
	if err := os.WriteFile(filepath.Join(dir, "uniffi.toml"), []byte(config), 0o644); err != nil {
		t.Fatal(err)
	}
	app := &cargo.BindingPackage{Name: "app", ManifestPath: manifest}

	wrapperDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(wrapperDir, "app.swift"), []byte("// body\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := PatchWrappers(app, "MyLibFFI", wrapperDir, t.TempDir()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out, err := os.ReadFile(filepath.Join(wrapperDir, "app.swift"))
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(out), "import MyLibFFI") {
		t.Errorf("redundant import added:\n%s", out)
	}
}

func TestPatchWrappersMissingWrapper(t *testing.T) {
	app := bindingPackage(t, "app")
	err := PatchWrappers(app, "MyLibFFI", t.TempDir(), t.TempDir())
	if err == nil {
		t.Fatal("expected error for missing wrapper file")
	}
	if !strings.Contains(err.Error(), "app") {
		t.Errorf("error does not name the crate: %v", err)
	}
}
