// SPDX-License-Identifier: MPL-2.0

package bindgen

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"swiftbridge/internal/fsutil"
	"swiftbridge/internal/run"
)

// fakeBindgen scripts the generator: it writes one wrapper source and the
// given headers into the requested output directory.
func fakeBindgen(t *testing.T, headers ...string) *run.Fake {
	t.Helper()
	f := &run.Fake{}
	f.Handle("uniffi-bindgen-swift", func(cmd run.Cmd) (run.Output, error) {
		outDir := cmd.Args[len(cmd.Args)-1]
		if err := os.WriteFile(filepath.Join(outDir, "my_crate.swift"), []byte("// wrapper"), 0o644); err != nil {
			return run.Output{}, err
		}
		for _, h := range headers {
			if err := os.WriteFile(filepath.Join(outDir, h), []byte("// header"), 0o644); err != nil {
				return run.Output{}, err
			}
		}
		return run.Output{}, nil
	})
	return f
}

func TestGenerateForDir(t *testing.T) {
	builtDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(builtDir, "libmy_crate.a"), []byte("archive"), 0o644); err != nil {
		t.Fatal(err)
	}

	fake := fakeBindgen(t, "my_crateFFI.h")
	g := &Generator{Runner: fake}

	if err := g.GenerateForDir(context.Background(), builtDir, "MyLibFFI"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	calls := fake.CallsTo("uniffi-bindgen-swift")
	if len(calls) != 1 {
		t.Fatalf("generator invoked %d times", len(calls))
	}
	args := calls[0].Args
	if args[0] != "--swift-sources" || args[1] != "--headers" {
		t.Errorf("args = %v", args)
	}
	if args[2] != filepath.Join(builtDir, "libmy_crate.a") {
		t.Errorf("library arg = %q", args[2])
	}

	bindingsDir := filepath.Join(builtDir, BindingsDirName)

	// Wrapper sources stay at the top, headers move under Headers/.
	if _, err := os.Stat(filepath.Join(bindingsDir, "my_crate.swift")); err != nil {
		t.Errorf("wrapper missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(bindingsDir, "Headers", "my_crateFFI.h")); err != nil {
		t.Errorf("header not relocated: %v", err)
	}
	remaining, err := fsutil.FilesWithExt(bindingsDir, "h")
	if err != nil {
		t.Fatal(err)
	}
	if len(remaining) != 0 {
		t.Errorf("headers left at top level: %v", remaining)
	}

	modulemap, err := os.ReadFile(filepath.Join(bindingsDir, "Headers", "module.modulemap"))
	if err != nil {
		t.Fatal(err)
	}
	content := string(modulemap)
	if !strings.Contains(content, "module MyLibFFI {") {
		t.Errorf("module map:\n%s", content)
	}
	if !strings.Contains(content, `header "my_crateFFI.h"`) {
		t.Errorf("module map does not list the header:\n%s", content)
	}
	if !strings.Contains(content, "export *") {
		t.Errorf("module map does not export:\n%s", content)
	}
}

func TestGenerateForDirReplacesStaleOutput(t *testing.T) {
	builtDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(builtDir, "libmy_crate.a"), nil, 0o644); err != nil {
		t.Fatal(err)
	}
	stale := filepath.Join(builtDir, BindingsDirName, "stale.swift")
	if err := os.MkdirAll(filepath.Dir(stale), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(stale, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}

	g := &Generator{Runner: fakeBindgen(t, "my_crateFFI.h")}
	if err := g.GenerateForDir(context.Background(), builtDir, "MyLibFFI"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Error("stale output survived regeneration")
	}
}

func TestGenerateForDirAmbiguousLibrary(t *testing.T) {
	t.Run("no library", func(t *testing.T) {
		g := &Generator{Runner: &run.Fake{}}
		err := g.GenerateForDir(context.Background(), t.TempDir(), "MyLibFFI")
		var ambiguous *fsutil.AmbiguousArtifactError
		if !errors.As(err, &ambiguous) {
			t.Fatalf("expected AmbiguousArtifactError, got %v", err)
		}
	})

	t.Run("two libraries", func(t *testing.T) {
		builtDir := t.TempDir()
		for _, name := range []string{"liba.a", "libb.a"} {
			if err := os.WriteFile(filepath.Join(builtDir, name), nil, 0o644); err != nil {
				t.Fatal(err)
			}
		}
		g := &Generator{Runner: &run.Fake{}}
		err := g.GenerateForDir(context.Background(), builtDir, "MyLibFFI")
		var ambiguous *fsutil.AmbiguousArtifactError
		if !errors.As(err, &ambiguous) {
			t.Fatalf("expected AmbiguousArtifactError, got %v", err)
		}
	})
}

func TestGenerateForDirGeneratorFailure(t *testing.T) {
	builtDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(builtDir, "lib.a"), nil, 0o644); err != nil {
		t.Fatal(err)
	}

	fake := &run.Fake{}
	fake.FailWith("uniffi-bindgen-swift", 1, "", "unsupported archive")
	g := &Generator{Runner: fake}

	err := g.GenerateForDir(context.Background(), builtDir, "MyLibFFI")
	var procErr *run.ProcessError
	if !errors.As(err, &procErr) {
		t.Fatalf("expected ProcessError, got %v", err)
	}
}
