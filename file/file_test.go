package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/libopenstorage/keymaster"
	"github.com/libopenstorage/keymaster/test"
)

func TestAll(t *testing.T) {
	v, err := keymaster.New(Name, map[string]interface{}{DirKey: t.TempDir()})
	require.NoError(t, err)
	test.RunForVault(v, t)
}

func TestEntriesAreEncrypted(t *testing.T) {
	dir := t.TempDir()
	v, err := New(map[string]interface{}{DirKey: dir})
	require.NoError(t, err)

	require.NoError(t, v.InsertOrReplace(context.Background(), "db", []byte("hunter2")))

	info, err := os.Stat(filepath.Join(dir, keyFileName))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(filePerm), info.Mode().Perm())

	entry := v.(*fileVault).path("db")
	data, err := os.ReadFile(entry)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hunter2")

	info, err = os.Stat(entry)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(filePerm), info.Mode().Perm())
}

func TestEntryBoundToKey(t *testing.T) {
	dir := t.TempDir()
	v, err := New(map[string]interface{}{DirKey: dir})
	require.NoError(t, err)
	fv := v.(*fileVault)

	require.NoError(t, v.InsertOrReplace(context.Background(), "db", []byte("hunter2")))
	data, err := os.ReadFile(fv.path("db"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(fv.path("other"), data, filePerm))

	_, err = v.Fetch(context.Background(), "other")
	assert.ErrorIs(t, err, ErrCorruptEntry)
}

func TestFetchWithoutKeyFile(t *testing.T) {
	v, err := New(map[string]interface{}{DirKey: t.TempDir()})
	require.NoError(t, err)

	_, err = v.Fetch(context.Background(), "db")
	assert.ErrorIs(t, err, keymaster.ErrSecretNotFound)
	assert.NoError(t, v.Delete(context.Background(), "db"))
}

func TestDefaultDir(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/tmp/xdg")
	t.Setenv(DirKey, "")
	v, err := New(nil)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/xdg/keymaster", v.(*fileVault).dir)
}
