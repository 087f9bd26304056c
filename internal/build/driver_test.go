// SPDX-License-Identifier: MPL-2.0

package build

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"swiftbridge/internal/platform"
	"swiftbridge/internal/run"
)

func TestBuildPlatformInvokesCargoPerTriple(t *testing.T) {
	fake := &run.Fake{}
	d := &Driver{Runner: fake, Cargo: "cargo"}

	if err := d.BuildPlatform(context.Background(), "my_crate", platform.MacOS, ProfileRelease); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	calls := fake.CallsTo("cargo")
	triples := platform.MacOS.TargetTriples()
	if len(calls) != len(triples) {
		t.Fatalf("cargo invoked %d times, want %d", len(calls), len(triples))
	}

	for i, call := range calls {
		if !slices.Contains(call.Args, "--target") {
			t.Errorf("call %d missing --target: %v", i, call.Args)
		}
		idx := slices.Index(call.Args, "--target")
		if call.Args[idx+1] != triples[i] {
			t.Errorf("call %d targets %q, want %q", i, call.Args[idx+1], triples[i])
		}
		if !slices.Contains(call.Args, "--package") {
			t.Errorf("call %d missing --package: %v", i, call.Args)
		}
		if slices.Contains(call.Args, "+nightly") {
			t.Errorf("macos build should not request nightly: %v", call.Args)
		}
		if !call.Stream {
			t.Error("compiler output should stream to the console")
		}
		if !slices.Contains(call.Env, "MACOSX_DEPLOYMENT_TARGET=11.0") {
			t.Errorf("call %d env = %v", i, call.Env)
		}
	}
}

func TestBuildPlatformNightlyArgs(t *testing.T) {
	fake := &run.Fake{}
	d := &Driver{Runner: fake, Cargo: "cargo"}

	if err := d.BuildPlatform(context.Background(), "my_crate", platform.WatchOS, ProfileDev); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, call := range fake.CallsTo("cargo") {
		if call.Args[0] != "+nightly" {
			t.Fatalf("nightly selector must come first: %v", call.Args)
		}
		if !slices.Contains(call.Args, "build-std=panic_abort,std") {
			t.Errorf("missing build-std: %v", call.Args)
		}
	}
}

func TestBuildProfileConfig(t *testing.T) {
	fake := &run.Fake{}
	d := &Driver{Runner: fake}

	if err := d.BuildHost(context.Background(), "my_crate", ProfileDev); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	args := fake.Calls[0].Args
	joined := strings.Join(args, " ")
	if !strings.Contains(joined, "profile.dev.debug=true") {
		t.Errorf("debug symbols not forced on: %v", args)
	}
	if !strings.Contains(joined, `profile.dev.panic="abort"`) {
		t.Errorf("panic=abort not configured: %v", args)
	}
	idx := slices.Index(args, "--profile")
	if idx < 0 || args[idx+1] != "dev" {
		t.Errorf("profile not passed: %v", args)
	}
	if fake.Calls[0].Path != "cargo" {
		t.Errorf("default executable = %q", fake.Calls[0].Path)
	}
}

func TestLoadEnvFile(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), "build.env")
	if err := os.WriteFile(envFile, []byte("LIBRARY_PATH=/opt/lib\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	fake := &run.Fake{}
	d := &Driver{Runner: fake}
	if err := d.LoadEnvFile(envFile); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := d.BuildHost(context.Background(), "my_crate", ProfileRelease); err != nil {
		t.Fatal(err)
	}
	if !slices.Contains(fake.Calls[0].Env, "LIBRARY_PATH=/opt/lib") {
		t.Errorf("env file entry not applied: %v", fake.Calls[0].Env)
	}

	if err := d.LoadEnvFile(filepath.Join(t.TempDir(), "missing.env")); err == nil {
		t.Error("expected error for missing env file")
	}
}

func TestBuiltDirs(t *testing.T) {
	dirs := BuiltDirs("/ws/target", platform.IOS, ProfileDev)
	triples := platform.IOS.TargetTriples()
	if len(dirs) != len(triples) {
		t.Fatalf("got %d dirs, want %d", len(dirs), len(triples))
	}
	want := filepath.Join("/ws/target", triples[0], "debug")
	if dirs[0] != want {
		t.Errorf("dirs[0] = %q, want %q", dirs[0], want)
	}

	if got := HostBuiltDir("/ws/target", ProfileRelease); got != filepath.Join("/ws/target", "release") {
		t.Errorf("host dir = %q", got)
	}
}

func TestStageHostLibrary(t *testing.T) {
	builtDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(builtDir, "libmy_crate.a"), []byte("archive"), 0o644); err != nil {
		t.Fatal(err)
	}
	headers := filepath.Join(builtDir, "swift-bindings", "Headers")
	if err := os.MkdirAll(headers, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(headers, "my_crateFFI.h"), []byte("// header"), 0o644); err != nil {
		t.Fatal(err)
	}

	destDir := filepath.Join(t.TempDir(), "linux")
	if err := StageHostLibrary(builtDir, destDir, "MyLibFFI"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lib, err := os.ReadFile(filepath.Join(destDir, "MyLibFFI.a"))
	if err != nil {
		t.Fatal(err)
	}
	if string(lib) != "archive" {
		t.Errorf("staged library = %q", lib)
	}
	if _, err := os.Stat(filepath.Join(destDir, "my_crateFFI.h")); err != nil {
		t.Errorf("header not staged: %v", err)
	}
}

func TestStageHostLibraryAmbiguous(t *testing.T) {
	builtDir := t.TempDir()
	for _, name := range []string{"liba.a", "libb.a"} {
		if err := os.WriteFile(filepath.Join(builtDir, name), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := StageHostLibrary(builtDir, t.TempDir(), "MyLibFFI"); err == nil {
		t.Error("expected error for ambiguous library")
	}
}
