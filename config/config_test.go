package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
backend: vault
log_level: debug
distinguish_missing: true
options:
  VAULT_ADDR: http://127.0.0.1:8200
  VAULT_KV_VERSION: "2"
auth:
  passcode_hash: $2a$12$abc
  biometric:
    finger: right-index-finger
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "vault", cfg.Backend)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.DistinguishMissing)
	assert.Equal(t, "http://127.0.0.1:8200", cfg.Options["VAULT_ADDR"])
	assert.Equal(t, "2", cfg.Options["VAULT_KV_VERSION"])
	assert.Equal(t, "$2a$12$abc", cfg.Auth.PasscodeHash)
	assert.Equal(t, "right-index-finger", cfg.Auth.Biometric.Finger)
	assert.False(t, cfg.Auth.Biometric.Disabled)
}

func TestLoadInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("backend: [unterminated"), 0600))

	_, err := Load(path)
	var cfgErr *ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, path, cfgErr.Path)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv(EnvBackend, "file")
	t.Setenv(EnvLogLevel, "info")
	t.Setenv(EnvDistinguishMissing, "true")

	cfg, err := Load(filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "file", cfg.Backend)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.True(t, cfg.DistinguishMissing)

	t.Setenv(EnvDistinguishMissing, "maybe")
	_, err = Load(filepath.Join(t.TempDir(), "config.yaml"))
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Default()
	cfg.Auth.PasscodeHash = "$2a$12$xyz"

	require.NoError(t, Save(cfg, path))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "$2a$12$xyz", loaded.Auth.PasscodeHash)
}

func TestPath(t *testing.T) {
	assert.Equal(t, "/tmp/explicit.yaml", Path("/tmp/explicit.yaml"))
	t.Setenv(EnvConfig, "/tmp/env.yaml")
	assert.Equal(t, "/tmp/env.yaml", Path(""))
}

func TestUpdateSkipsEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keymaster", "config.yaml")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0700))
	require.NoError(t, os.WriteFile(path, []byte("backend: file\n"), 0600))
	t.Setenv(EnvBackend, "vault")

	require.NoError(t, Update(path, func(cfg *Config) {
		cfg.Auth.PasscodeHash = "$2a$12$hash"
	}))

	t.Setenv(EnvBackend, "")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "file", cfg.Backend)
	assert.Equal(t, "$2a$12$hash", cfg.Auth.PasscodeHash)
}
