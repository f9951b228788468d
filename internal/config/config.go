// Package config resolves and validates the storage root once at startup.
// The validated value is passed to the service instance; there is no
// ambient global state and no per-request revalidation.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tailscale/hujson"
)

// Config holds all configuration options.
type Config struct {
	Root string `json:"root"`
	Addr string `json:"addr,omitempty"`
}

// ConfigFileName is the default project config file name. The file is
// JSONC: comments and trailing commas are allowed.
const ConfigFileName = "humblefs.json"

// RootEnvVar overrides the config-file root when set.
const RootEnvVar = "HUMBLEFS_ROOT"

// DefaultAddr is the listen address used when neither flag nor config
// file sets one.
const DefaultAddr = ":8080"

var (
	ErrConfigFileNotFound = errors.New("config file not found")
	ErrConfigInvalid      = errors.New("invalid config file")
	ErrRootRequired       = errors.New("storage root is required")
	ErrRootNotFound       = errors.New("storage root does not exist")
	ErrRootNotDirectory   = errors.New("storage root must be a directory")
	ErrRootNotWritable    = errors.New("storage root is not writable")
)

// Load resolves configuration with the following precedence (highest wins):
//  1. CLI overrides (non-empty fields of cliOverrides)
//  2. HUMBLEFS_ROOT environment variable (root only)
//  3. Explicit config file via configPath (must exist)
//  4. Project config file humblefs.json in workDir (optional)
//  5. Defaults
//
// The resolved root is validated before returning: it must exist, be a
// directory, and be writable.
func Load(workDir, configPath string, cliOverrides Config, env map[string]string) (Config, error) {
	cfg := Config{Addr: DefaultAddr}

	fileCfg, err := loadConfigFile(workDir, configPath)
	if err != nil {
		return Config{}, err
	}

	cfg = mergeConfig(cfg, fileCfg)

	if envRoot := env[RootEnvVar]; envRoot != "" {
		cfg.Root = envRoot
	}

	cfg = mergeConfig(cfg, cliOverrides)

	if cfg.Root == "" {
		return Config{}, ErrRootRequired
	}

	if !filepath.IsAbs(cfg.Root) {
		cfg.Root = filepath.Join(workDir, cfg.Root)
	}

	if err := ValidateRoot(cfg.Root); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// ValidateRoot checks that root exists, is a directory, and is writable.
// Writability is probed by creating and removing a temp file, since a
// permission-bit check cannot account for mount options or ACLs.
func ValidateRoot(root string) error {
	info, err := os.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrRootNotFound, root)
		}

		return err
	}

	if !info.IsDir() {
		return fmt.Errorf("%w: %s", ErrRootNotDirectory, root)
	}

	probe, err := os.CreateTemp(root, ".humblefs-probe-*")
	if err != nil {
		return fmt.Errorf("%w: %s", ErrRootNotWritable, root)
	}

	name := probe.Name()
	_ = probe.Close()
	_ = os.Remove(name)

	return nil
}

// loadConfigFile loads the explicit config file if configPath is set
// (missing file is an error), otherwise the optional project config file
// (missing file yields zero config).
func loadConfigFile(workDir, configPath string) (Config, error) {
	var (
		cfgFile   string
		mustExist bool
	)

	if configPath != "" {
		cfgFile = configPath
		if !filepath.IsAbs(cfgFile) {
			cfgFile = filepath.Join(workDir, cfgFile)
		}

		mustExist = true
	} else {
		cfgFile = filepath.Join(workDir, ConfigFileName)
	}

	data, err := os.ReadFile(cfgFile) //nolint:gosec // path is intentionally user-controlled
	if err != nil {
		if os.IsNotExist(err) && !mustExist {
			return Config{}, nil
		}

		return Config{}, fmt.Errorf("%w: %s", ErrConfigFileNotFound, cfgFile)
	}

	cfg, err := parseConfig(data)
	if err != nil {
		return Config{}, fmt.Errorf("%w %s: %w", ErrConfigInvalid, cfgFile, err)
	}

	return cfg, nil
}

func parseConfig(data []byte) (Config, error) {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Config{}, fmt.Errorf("invalid JSONC: %w", err)
	}

	var cfg Config

	if err := json.Unmarshal(standardized, &cfg); err != nil {
		return Config{}, fmt.Errorf("invalid JSON: %w", err)
	}

	return cfg, nil
}

func mergeConfig(base, overlay Config) Config {
	if overlay.Root != "" {
		base.Root = overlay.Root
	}

	if overlay.Addr != "" {
		base.Addr = overlay.Addr
	}

	return base
}
