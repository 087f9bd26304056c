// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for swiftbridge.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"swiftbridge/internal/config"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"

	// verbose enables verbose output
	verbose bool
	// cfgFile allows specifying a custom config file
	cfgFile string

	// cfg is the loaded configuration, available to all subcommands.
	cfg *config.Config

	// logger is the shared pipeline logger.
	logger = log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: false})

	// rootCmd represents the base command when called without any subcommands
	rootCmd = &cobra.Command{
		Use:   "swiftbridge",
		Short: "Package Rust FFI crates as a Swift-ready XCFramework",
		Long: TitleStyle.Render("swiftbridge") + SubtitleStyle.Render(" - Package Rust FFI crates as a Swift-ready XCFramework") + `

swiftbridge cross-compiles the FFI crates of a Cargo workspace for Apple
platforms, generates Swift bindings for them, merges the per-architecture
static libraries into one artifact per platform, and assembles everything
into an XCFramework plus a Swift Package manifest.

` + SubtitleStyle.Render("Typical flow:") + `
  1. Run 'swiftbridge build' at the workspace root
  2. Run 'swiftbridge generate-package' to (re)write Package.swift
  3. Commit the generated Package.swift and distribute the framework`,
	}
)

func init() {
	cobra.OnInitialize(initRootConfig)

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is <user config dir>/swiftbridge/config.toml)")

	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(generatePackageCmd)
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() {
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}

// initRootConfig reads the config file and env overrides.
func initRootConfig() {
	var err error
	if cfgFile != "" {
		cfg, err = config.LoadFrom(cfgFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, WarningStyle.Render("Warning: ")+err.Error())
		cfg = config.DefaultConfig()
	}

	if verbose {
		logger.SetLevel(log.DebugLevel)
	}
}
