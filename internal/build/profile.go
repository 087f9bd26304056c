// SPDX-License-Identifier: MPL-2.0

// Package build drives cargo to produce the per-triple static libraries the
// packaging pipeline consumes.
package build

import "fmt"

// Profile is a cargo build profile.
type Profile string

const (
	ProfileDev     Profile = "dev"
	ProfileRelease Profile = "release"
)

// ParseProfile validates a profile name from user input.
func ParseProfile(s string) (Profile, error) {
	switch s {
	case string(ProfileDev):
		return ProfileDev, nil
	case string(ProfileRelease):
		return ProfileRelease, nil
	default:
		return "", fmt.Errorf("invalid profile %q (expected %q or %q)", s, ProfileDev, ProfileRelease)
	}
}

// DirName returns the target-directory subfolder cargo writes this profile's
// artifacts to. The dev profile lands in "debug".
func (p Profile) DirName() string {
	if p == ProfileDev {
		return "debug"
	}
	return string(p)
}

func (p Profile) String() string { return string(p) }
