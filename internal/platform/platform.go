// SPDX-License-Identifier: MPL-2.0

// Package platform models the Apple platforms a workspace can target and
// resolves Rust target triples to their platform identity.
package platform

import (
	"fmt"
	"strings"
)

// OS is an Apple platform family.
type OS string

const (
	MacOS   OS = "macos"
	IOS     OS = "ios"
	TvOS    OS = "tvos"
	WatchOS OS = "watchos"
)

// AllOS returns every supported platform family, in display order.
func AllOS() []OS {
	return []OS{MacOS, IOS, TvOS, WatchOS}
}

// osFromTripleSegment maps the OS segment of a target triple to a platform.
// Triples spell macOS "darwin".
var osFromTripleSegment = map[string]OS{
	"darwin":  MacOS,
	"ios":     IOS,
	"tvos":    TvOS,
	"watchos": WatchOS,
}

// ResolutionError reports a triple whose platform identity could not be
// determined.
type ResolutionError struct {
	Triple string
	Reason string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("cannot resolve platform for target %q: %s", e.Triple, e.Reason)
}

// UnsupportedPlatformError reports a triple naming an OS outside the
// supported families.
type UnsupportedPlatformError struct {
	Triple string
	OS     string
}

func (e *UnsupportedPlatformError) Error() string {
	return fmt.Sprintf("target %q names unsupported platform %q", e.Triple, e.OS)
}

// TargetTriples returns the Rust target triples built for this platform.
func (o OS) TargetTriples() []string {
	switch o {
	case IOS:
		return []string{
			"aarch64-apple-ios",
			"x86_64-apple-ios",
			"aarch64-apple-ios-sim",
		}
	case MacOS:
		return []string{
			"x86_64-apple-darwin",
			"aarch64-apple-darwin",
		}
	case WatchOS:
		return []string{
			"arm64_32-apple-watchos",
			"x86_64-apple-watchos-sim",
			"aarch64-apple-watchos-sim",
		}
	case TvOS:
		return []string{
			"aarch64-apple-tvos",
			"aarch64-apple-tvos-sim",
		}
	}
	return nil
}

// RequiresNightlyToolchain reports whether this platform's standard library
// ships only as a tier-3 target and must be built from source.
func (o OS) RequiresNightlyToolchain() bool {
	return o == TvOS || o == WatchOS
}

// DeploymentTargetEnv returns the deployment target environment assignment
// passed to cargo for this platform.
func (o OS) DeploymentTargetEnv() string {
	switch o {
	case MacOS:
		return "MACOSX_DEPLOYMENT_TARGET=11.0"
	case IOS:
		return "IPHONEOS_DEPLOYMENT_TARGET=13.0"
	case TvOS:
		return "TVOS_DEPLOYMENT_TARGET=13.0"
	case WatchOS:
		return "WATCHOS_DEPLOYMENT_TARGET=7.0"
	}
	return ""
}

// ParseTripleOS extracts the platform family from a Rust target triple.
// Triples look like <arch>-apple-<os>[-<env>].
func ParseTripleOS(triple string) (OS, error) {
	parts := strings.Split(triple, "-")
	if len(parts) < 3 {
		return "", &ResolutionError{Triple: triple, Reason: "too few segments"}
	}
	if parts[1] != "apple" {
		return "", &ResolutionError{Triple: triple, Reason: "not an Apple target"}
	}
	os, ok := osFromTripleSegment[parts[2]]
	if !ok {
		return "", &UnsupportedPlatformError{Triple: triple, OS: parts[2]}
	}
	return os, nil
}
