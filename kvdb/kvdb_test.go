package kvdb

import (
	"context"
	"testing"

	"github.com/portworx/kvdb"
	"github.com/portworx/kvdb/mem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/libopenstorage/keymaster"
	"github.com/libopenstorage/keymaster/test"
)

func TestAll(t *testing.T) {
	kv, err := kvdb.New(mem.Name, "keymaster_test/", nil, nil, nil)
	require.NoError(t, err)

	v, err := keymaster.New(Name, map[string]interface{}{KvdbKey: kv})
	require.NoError(t, err)
	test.RunForVault(v, t)

	require.NoError(t, v.InsertOrReplace(context.Background(), "db", []byte("hunter2")))
	kvp, err := kv.Get("secret/db")
	require.NoError(t, err)
	assert.Equal(t, []byte("hunter2"), kvp.Value)
}

func TestRequiresConfiguration(t *testing.T) {
	t.Setenv(KvdbNameKey, "")
	t.Setenv(KvdbEndpointsKey, "")
	_, err := New(map[string]interface{}{})
	assert.Equal(t, ErrKvdbNotConfigured, err)
}

func TestExplicitMemKvdb(t *testing.T) {
	v, err := New(map[string]interface{}{KvdbNameKey: mem.Name})
	require.NoError(t, err)
	test.RunForVault(v, t)
}

func TestInvalidKvdb(t *testing.T) {
	_, err := New(map[string]interface{}{KvdbKey: "not a kvdb"})
	assert.Equal(t, ErrInvalidKvdbProvided, err)

	_, err = New(map[string]interface{}{KvdbNameKey: "notfound"})
	assert.Error(t, err)
}
