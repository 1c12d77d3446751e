// Package test holds the conformance suite every vault backend runs.
package test

import (
	"context"
	"testing"

	"github.com/pborman/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/libopenstorage/keymaster"
)

type vaultTest struct {
	v   keymaster.Vault
	key string
}

// RunForVault checks the Vault contract against v: round trip, replace on
// store, not found on fetch of an absent key and idempotent delete.
func RunForVault(v keymaster.Vault, t *testing.T) {
	vt := &vaultTest{
		v:   v,
		key: "keymaster_secret_" + uuid.New(),
	}

	vt.TestInsertOrReplace(t)
	vt.TestFetch(t)
	vt.TestDelete(t)
}

func (a *vaultTest) TestInsertOrReplace(t *testing.T) {
	ctx := context.Background()

	err := a.v.InsertOrReplace(ctx, a.key, []byte("value1"))
	require.NoError(t, err, "Unexpected error on InsertOrReplace")

	// same key and payload again
	err = a.v.InsertOrReplace(ctx, a.key, []byte("value1"))
	require.NoError(t, err, "Expected InsertOrReplace to be repeatable")

	payload, err := a.v.Fetch(ctx, a.key)
	require.NoError(t, err)
	assert.Equal(t, []byte("value1"), payload)

	// replace with a new payload
	err = a.v.InsertOrReplace(ctx, a.key, []byte("value2"))
	require.NoError(t, err, "Expected InsertOrReplace on an existing key to succeed")
}

func (a *vaultTest) TestFetch(t *testing.T) {
	ctx := context.Background()

	_, err := a.v.Fetch(ctx, "dummy_"+uuid.New())
	assert.ErrorIs(t, err, keymaster.ErrSecretNotFound, "Expected Fetch of an absent key to fail")

	payload, err := a.v.Fetch(ctx, a.key)
	assert.NoError(t, err, "Expected Fetch to succeed")
	assert.Equal(t, []byte("value2"), payload, "Expected the replaced payload only")

	emptyKey := a.key + "_empty"
	require.NoError(t, a.v.InsertOrReplace(ctx, emptyKey, []byte{}))
	payload, err = a.v.Fetch(ctx, emptyKey)
	assert.NoError(t, err, "Expected Fetch of an empty payload to succeed")
	assert.Empty(t, payload)
	require.NoError(t, a.v.Delete(ctx, emptyKey))
}

func (a *vaultTest) TestDelete(t *testing.T) {
	ctx := context.Background()

	err := a.v.Delete(ctx, a.key)
	assert.NoError(t, err, "Expected Delete to succeed")

	err = a.v.Delete(ctx, a.key)
	assert.NoError(t, err, "Expected Delete of an absent key to succeed")

	_, err = a.v.Fetch(ctx, a.key)
	assert.ErrorIs(t, err, keymaster.ErrSecretNotFound, "Expected Fetch after Delete to fail")
}
