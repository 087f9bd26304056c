// SPDX-License-Identifier: MPL-2.0

// Package config loads swiftbridge's tool configuration: a TOML file in the
// platform config directory, overridable per key via SWIFTBRIDGE_* env vars
// or wholesale via --config.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	// AppName is the application name, used for the config directory.
	AppName = "swiftbridge"
	// ConfigFileName is the config file name without extension.
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "toml"
)

// configDirOverride lets tests redirect the config directory.
var configDirOverride string

// SetConfigDirOverride redirects config loading to dir. Tests only.
func SetConfigDirOverride(dir string) { configDirOverride = dir }

// ConfigDir returns the swiftbridge configuration directory under the
// platform's user config root.
func ConfigDir() (string, error) {
	if configDirOverride != "" {
		return configDirOverride, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve user config directory: %w", err)
	}
	return filepath.Join(base, AppName), nil
}

// Load reads the default config file if present, applies env overrides, and
// validates the result. A missing file yields the defaults.
func Load() (*Config, error) {
	dir, err := ConfigDir()
	if err != nil {
		return nil, err
	}
	return load(filepath.Join(dir, ConfigFileName+"."+ConfigFileExt), false)
}

// LoadFrom reads the given config file exclusively. The file must exist.
func LoadFrom(path string) (*Config, error) {
	return load(path, true)
}

func load(path string, required bool) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType(ConfigFileExt)

	defaults := DefaultConfig()
	v.SetDefault("tools.cargo", defaults.Tools.Cargo)
	v.SetDefault("tools.rustc", defaults.Tools.Rustc)
	v.SetDefault("tools.xcodebuild", defaults.Tools.Xcodebuild)
	v.SetDefault("tools.xcrun", defaults.Tools.Xcrun)
	v.SetDefault("tools.swift", defaults.Tools.Swift)
	v.SetDefault("tools.bindgen", defaults.Tools.Bindgen)
	v.SetDefault("build.profile", defaults.Build.Profile)
	v.SetDefault("build.env_file", defaults.Build.EnvFile)
	v.SetDefault("build.timeout_seconds", defaults.Build.TimeoutSeconds)
	v.SetDefault("build.verify_headers", defaults.Build.VerifyHeaders)

	v.SetEnvPrefix(strings.ToUpper(AppName))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound *os.PathError
		if required || !(errors.As(err, &notFound) || os.IsNotExist(err)) {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config file %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
