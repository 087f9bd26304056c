// SPDX-License-Identifier: MPL-2.0

package cargo

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// uniffiConfig mirrors the crate-side uniffi.toml sections this tool reads.
type uniffiConfig struct {
	Bindings struct {
		Swift struct {
			ModuleName    string `toml:"module_name"`
			FFIModuleName string `toml:"ffi_module_name"`
		} `toml:"swift"`
	} `toml:"bindings"`
}

// loadUniffiConfig reads the companion config next to the crate manifest.
// A missing file is not an error: discovery already established existence
// for binding crates, and all keys have defaults.
func loadUniffiConfig(manifestPath string) (*uniffiConfig, error) {
	data, err := os.ReadFile(filepath.Join(filepath.Dir(manifestPath), companionConfigName))
	if err != nil {
		if os.IsNotExist(err) {
			return &uniffiConfig{}, nil
		}
		return nil, fmt.Errorf("failed to read %s for %s: %w", companionConfigName, manifestPath, err)
	}

	var cfg uniffiConfig
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s for %s: %w", companionConfigName, manifestPath, err)
	}
	return &cfg, nil
}

// ModuleName returns the Swift module name configured for the crate,
// defaulting to the crate name.
func (p *BindingPackage) ModuleName() (string, error) {
	cfg, err := loadUniffiConfig(p.ManifestPath)
	if err != nil {
		return "", err
	}
	if cfg.Bindings.Swift.ModuleName != "" {
		return cfg.Bindings.Swift.ModuleName, nil
	}
	return p.Name, nil
}

// FFIModuleName returns the name of the C module holding the crate's FFI
// symbols, defaulting to "<module>FFI".
func (p *BindingPackage) FFIModuleName() (string, error) {
	cfg, err := loadUniffiConfig(p.ManifestPath)
	if err != nil {
		return "", err
	}
	if cfg.Bindings.Swift.FFIModuleName != "" {
		return cfg.Bindings.Swift.FFIModuleName, nil
	}
	name, err := p.ModuleName()
	if err != nil {
		return "", err
	}
	return name + "FFI", nil
}

// InternalModuleName returns the name of the SPM target holding the crate's
// generated wrapper when it is a dependency of another binding crate.
func (p *BindingPackage) InternalModuleName() (string, error) {
	name, err := p.ModuleName()
	if err != nil {
		return "", err
	}
	return name + "Internal", nil
}
