// Package config loads the keymaster configuration.
//
// Loading order (later overrides earlier):
//  1. Defaults
//  2. Config file: $XDG_CONFIG_HOME/keymaster/config.yaml, or the path in
//     KEYMASTER_CONFIG / --config
//  3. Environment variables: KEYMASTER_*
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/libopenstorage/keymaster"
)

const (
	// EnvPrefix is the prefix for all environment variables.
	EnvPrefix = "KEYMASTER_"
	// EnvConfig names the config file.
	EnvConfig = EnvPrefix + "CONFIG"
	// EnvBackend overrides the vault backend.
	EnvBackend = EnvPrefix + "BACKEND"
	// EnvLogLevel overrides the log level.
	EnvLogLevel = EnvPrefix + "LOG_LEVEL"
	// EnvDistinguishMissing overrides DistinguishMissing.
	EnvDistinguishMissing = EnvPrefix + "DISTINGUISH_MISSING"

	configDir  = "keymaster"
	configFile = "config.yaml"
)

// Config is the complete keymaster configuration.
type Config struct {
	// Backend names the registered vault backend.
	Backend string `yaml:"backend"`
	// Options is passed to the backend. Keys missing here fall back to
	// environment variables of the same name.
	Options map[string]interface{} `yaml:"options,omitempty"`
	Auth    AuthConfig             `yaml:"auth"`
	// LogLevel is one of the logrus levels.
	LogLevel string `yaml:"log_level"`
	// DistinguishMissing makes get report a missing key differently from a
	// vault failure.
	DistinguishMissing bool `yaml:"distinguish_missing"`
}

// AuthConfig configures the authentication methods.
type AuthConfig struct {
	// PasscodeHash is the bcrypt hash of the passcode. Empty disables the
	// passcode method.
	PasscodeHash string          `yaml:"passcode_hash,omitempty"`
	Biometric    BiometricConfig `yaml:"biometric"`
}

// BiometricConfig configures fingerprint verification.
type BiometricConfig struct {
	Disabled bool   `yaml:"disabled"`
	Username string `yaml:"username,omitempty"`
	Finger   string `yaml:"finger,omitempty"`
}

// ConfigError reports a config file that could not be parsed.
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid config file %s: %v", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Backend:  keymaster.DefaultBackend,
		Options:  make(map[string]interface{}),
		LogLevel: "warn",
	}
}

// DefaultPath returns the default config file path.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, configDir, configFile)
}

// Path resolves the config file path: explicit, then KEYMASTER_CONFIG, then
// the default.
func Path(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if p := os.Getenv(EnvConfig); p != "" {
		return p
	}
	return DefaultPath()
}

// Load reads the config file at path, if any, and applies environment
// overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg, err := read(path)
	if err != nil {
		return nil, err
	}
	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	if cfg.Options == nil {
		cfg.Options = make(map[string]interface{})
	}
	return cfg, nil
}

func read(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, &ConfigError{Path: path, Err: err}
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv(EnvBackend); v != "" {
		cfg.Backend = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv(EnvDistinguishMissing); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %v", EnvDistinguishMissing, err)
		}
		cfg.DistinguishMissing = b
	}
	return nil
}

// Save writes cfg to path, creating the directory if needed. The file holds
// the passcode hash and is only readable by its owner.
func Save(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// Update applies fn to the file at path and saves the result. Environment
// overrides are not written back.
func Update(path string, fn func(*Config)) error {
	cfg, err := read(path)
	if err != nil {
		return err
	}
	fn(cfg)
	return Save(cfg, path)
}
