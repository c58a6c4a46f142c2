// Package paths resolves where marquee keeps its configuration and database.
//
// Both directories default to project-local names under the working
// directory, so a checkout or a shared folder carries its own catalog.
package paths

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mesh-intelligence/marquee/pkg/types"
)

// CWD-relative directory names.
const (
	DefaultConfigDirName = ".marquee"
	DefaultDataDirName   = ".marquee-db"
)

// Environment variable names for directory overrides.
const (
	EnvConfigDir = "MARQUEE_CONFIG_DIR"
	EnvDataDir   = "MARQUEE_DATA_DIR"
)

// getwd is replaced in tests.
var getwd = os.Getwd

// ResolveConfigDir returns the configuration directory following the
// precedence chain: flag > MARQUEE_CONFIG_DIR > $(CWD)/.marquee.
func ResolveConfigDir(flag string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if env := os.Getenv(EnvConfigDir); env != "" {
		return filepath.Abs(env)
	}
	return underCwd(DefaultConfigDirName)
}

// ResolveDataDir returns the data directory following the precedence chain:
// flag > configured (the data_dir key of config.yaml) > MARQUEE_DATA_DIR >
// $(CWD)/.marquee-db. A relative configured value is taken relative to
// configDir, so the file means the same thing from any working directory.
func ResolveDataDir(flag, configured, configDir string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if configured != "" {
		if !filepath.IsAbs(configured) && configDir != "" {
			configured = filepath.Join(configDir, configured)
		}
		return filepath.Abs(configured)
	}
	if env := os.Getenv(EnvDataDir); env != "" {
		return filepath.Abs(env)
	}
	return underCwd(DefaultDataDirName)
}

// DatabasePath joins dataDir and the database file name. The name must be a
// bare file name; anything that would escape dataDir is rejected with
// types.ErrInvalidConfig.
func DatabasePath(dataDir, name string) (string, error) {
	if name == "" {
		name = types.DefaultDatabaseFile
	}
	if name == "." || name == ".." || strings.ContainsAny(name, `/\`) || filepath.Base(name) != name {
		return "", fmt.Errorf("database %q must be a file name: %w", name, types.ErrInvalidConfig)
	}
	if dataDir == "" {
		dataDir = "."
	}
	return filepath.Join(dataDir, name), nil
}

func underCwd(name string) (string, error) {
	cwd, err := getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, name), nil
}
