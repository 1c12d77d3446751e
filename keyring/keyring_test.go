package keyring

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"

	"github.com/libopenstorage/keymaster"
	"github.com/libopenstorage/keymaster/test"
)

func TestAll(t *testing.T) {
	keyring.MockInit()

	v, err := keymaster.New(Name, map[string]interface{}{})
	require.NoError(t, err)
	assert.Equal(t, Name, v.String())
	test.RunForVault(v, t)
}

func TestServicePrefix(t *testing.T) {
	keyring.MockInit()

	v, err := New(map[string]interface{}{
		ServicePrefixKey: "keymaster.",
		AccountKey:       "alice",
	})
	require.NoError(t, err)

	require.NoError(t, v.InsertOrReplace(context.Background(), "db", []byte("hunter2")))
	secret, err := keyring.Get("keymaster.db", "alice")
	require.NoError(t, err)
	assert.Equal(t, "hunter2", secret)
}

func TestKeyringError(t *testing.T) {
	keyring.MockInitWithError(errors.New("secret service unavailable"))

	v, err := New(nil)
	require.NoError(t, err)

	_, err = v.Fetch(context.Background(), "db")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, keymaster.ErrSecretNotFound)
	assert.Error(t, v.InsertOrReplace(context.Background(), "db", []byte("x")))
	assert.Error(t, v.Delete(context.Background(), "db"))
}
