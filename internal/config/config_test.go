// SPDX-License-Identifier: MPL-2.0

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"swiftbridge/internal/build"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate(), "defaults must validate")
	assert.Equal(t, "cargo", cfg.Tools.Cargo)
	assert.Equal(t, "uniffi-bindgen-swift", cfg.Tools.Bindgen)
	assert.Equal(t, build.ProfileRelease, cfg.Profile())
	assert.Equal(t, time.Duration(0), cfg.Timeout(), "default timeout is unbounded")
}

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	SetConfigDirOverride(t.TempDir())
	t.Cleanup(func() { SetConfigDirOverride("") })

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "cargo", cfg.Tools.Cargo)
}

func TestLoadFrom(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[tools]
cargo = "/opt/rust/bin/cargo"

[build]
profile = "dev"
timeout_seconds = 600
verify_headers = true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, "/opt/rust/bin/cargo", cfg.Tools.Cargo)
	// Unset keys keep their defaults.
	assert.Equal(t, "rustc", cfg.Tools.Rustc)
	assert.Equal(t, build.ProfileDev, cfg.Profile())
	assert.Equal(t, 10*time.Minute, cfg.Timeout())
	assert.True(t, cfg.Build.VerifyHeaders)
}

func TestLoadFromMissingFile(t *testing.T) {
	_, err := LoadFrom(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err, "explicitly named config file must exist")
}

func TestEnvOverride(t *testing.T) {
	SetConfigDirOverride(t.TempDir())
	t.Cleanup(func() { SetConfigDirOverride("") })
	t.Setenv("SWIFTBRIDGE_BUILD_PROFILE", "dev")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "dev", cfg.Build.Profile)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad profile", func(c *Config) { c.Build.Profile = "fastest" }},
		{"negative timeout", func(c *Config) { c.Build.TimeoutSeconds = -1 }},
		{"blank tool", func(c *Config) { c.Tools.Xcodebuild = "  " }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}

func TestLoadFromInvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[build]\nprofile = \"fastest\"\n"), 0o644))

	_, err := LoadFrom(path)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
