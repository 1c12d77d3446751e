package docker

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/libopenstorage/keymaster"
)

func TestNew(t *testing.T) {
	t.Setenv(SecretsDirKey, "")
	testCases := []struct {
		name        string
		cfg         map[string]interface{}
		expectedDir string
	}{
		{
			name:        "config is not provided",
			expectedDir: DockerSecretPath,
		},
		{
			name:        "empty config",
			cfg:         map[string]interface{}{},
			expectedDir: DockerSecretPath,
		},
		{
			name:        "custom directory",
			cfg:         map[string]interface{}{SecretsDirKey: "/tmp/secrets"},
			expectedDir: "/tmp/secrets",
		},
	}

	for _, tc := range testCases {
		s, err := New(tc.cfg)
		require.NoError(t, err, tc.name)
		require.Equal(t, tc.expectedDir, s.(*dockerSecrets).dir, tc.name)
	}
}

func TestFetch(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "db_password"), []byte("hunter2"), 0400))
	v, err := New(map[string]interface{}{SecretsDirKey: dir})
	require.NoError(t, err)
	ctx := context.Background()

	payload, err := v.Fetch(ctx, "db_password")
	require.NoError(t, err)
	assert.Equal(t, []byte("hunter2"), payload)

	_, err = v.Fetch(ctx, "missing")
	assert.ErrorIs(t, err, keymaster.ErrSecretNotFound)
	_, err = v.Fetch(ctx, "../db_password")
	assert.ErrorIs(t, err, keymaster.ErrSecretNotFound)
}

func TestReadOnly(t *testing.T) {
	v, err := New(map[string]interface{}{SecretsDirKey: t.TempDir()})
	require.NoError(t, err)

	assert.Equal(t, keymaster.ErrNotSupported, v.InsertOrReplace(context.Background(), "k", []byte("v")))
	assert.Equal(t, keymaster.ErrNotSupported, v.Delete(context.Background(), "k"))
}
