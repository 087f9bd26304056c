// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"swiftbridge/internal/build"
)

type (
	// Config is the resolved tool configuration.
	Config struct {
		Tools ToolsConfig `mapstructure:"tools"`
		Build BuildConfig `mapstructure:"build"`
	}

	// ToolsConfig holds executable overrides for the external toolchain.
	ToolsConfig struct {
		Cargo      string `mapstructure:"cargo"`
		Rustc      string `mapstructure:"rustc"`
		Xcodebuild string `mapstructure:"xcodebuild"`
		Xcrun      string `mapstructure:"xcrun"`
		Swift      string `mapstructure:"swift"`
		Bindgen    string `mapstructure:"bindgen"`
	}

	// BuildConfig holds packaging-run behavior.
	BuildConfig struct {
		// Profile is the default cargo profile when --profile is not given.
		Profile string `mapstructure:"profile"`
		// EnvFile is an optional dotenv file applied to every build.
		EnvFile string `mapstructure:"env_file"`
		// TimeoutSeconds bounds each external tool invocation; 0 waits
		// forever.
		TimeoutSeconds int `mapstructure:"timeout_seconds"`
		// VerifyHeaders enables the per-platform generated-output parity
		// check before merging.
		VerifyHeaders bool `mapstructure:"verify_headers"`
	}
)

// ErrInvalidConfig is the sentinel error wrapped by configuration
// validation failures.
var ErrInvalidConfig = errors.New("invalid configuration")

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Tools: ToolsConfig{
			Cargo:      "cargo",
			Rustc:      "rustc",
			Xcodebuild: "xcodebuild",
			Xcrun:      "xcrun",
			Swift:      "swift",
			Bindgen:    "uniffi-bindgen-swift",
		},
		Build: BuildConfig{
			Profile: "release",
		},
	}
}

// Validate checks value-level invariants.
func (c *Config) Validate() error {
	if _, err := build.ParseProfile(c.Build.Profile); err != nil {
		return fmt.Errorf("%w: build.profile: %v", ErrInvalidConfig, err)
	}
	if c.Build.TimeoutSeconds < 0 {
		return fmt.Errorf("%w: build.timeout_seconds must not be negative", ErrInvalidConfig)
	}
	for name, value := range map[string]string{
		"tools.cargo":      c.Tools.Cargo,
		"tools.rustc":      c.Tools.Rustc,
		"tools.xcodebuild": c.Tools.Xcodebuild,
		"tools.xcrun":      c.Tools.Xcrun,
		"tools.swift":      c.Tools.Swift,
		"tools.bindgen":    c.Tools.Bindgen,
	} {
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("%w: %s must not be blank", ErrInvalidConfig, name)
		}
	}
	return nil
}

// Timeout returns the per-invocation bound as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Build.TimeoutSeconds) * time.Second
}

// Profile returns the validated default profile.
func (c *Config) Profile() build.Profile {
	p, err := build.ParseProfile(c.Build.Profile)
	if err != nil {
		return build.ProfileRelease
	}
	return p
}
