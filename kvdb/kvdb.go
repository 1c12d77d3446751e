// Package kvdb stores secrets in a portworx kvdb: etcd v3 or the in-memory
// kvdb.
package kvdb

import (
	"context"
	"errors"
	"fmt"
	"strings"

	kv "github.com/portworx/kvdb"
	etcdv3 "github.com/portworx/kvdb/etcd/v3"
	_ "github.com/portworx/kvdb/mem"

	"github.com/libopenstorage/keymaster"
)

const (
	// Name of the backend
	Name = keymaster.TypeKvdb
	// KvdbKey passes an existing kvdb.Kvdb instance.
	KvdbKey = "KVDB"
	// KvdbNameKey selects the kvdb implementation, for example etcdv3-kv.
	// Defaults to etcdv3-kv when endpoints are given. The in-memory kv-mem
	// only lives as long as the process and must be named explicitly.
	KvdbNameKey = "KVDB_NAME"
	// KvdbEndpointsKey is a comma separated list of kvdb endpoints.
	KvdbEndpointsKey = "KVDB_ENDPOINTS"
	// KvdbBasePathKey is the kvdb base path.
	KvdbBasePathKey = "KVDB_BASE_PATH"

	secretPrefix    = "secret/"
	defaultBasePath = "keymaster/"
)

var (
	// ErrInvalidKvdbProvided is returned when the KVDB value is not a kvdb.Kvdb.
	ErrInvalidKvdbProvided = errors.New("invalid kvdb provided")
	// ErrKvdbNotConfigured is returned when neither a kvdb instance, a kvdb
	// name nor endpoints are configured.
	ErrKvdbNotConfigured = errors.New("kvdb not configured: set KVDB_ENDPOINTS or KVDB_NAME")
)

type kvdbVault struct {
	client kv.Kvdb
}

// New creates the kvdb backend.
func New(
	vaultConfig map[string]interface{},
) (keymaster.Vault, error) {
	if kvdbIntf, exists := vaultConfig[KvdbKey]; exists {
		client, ok := kvdbIntf.(kv.Kvdb)
		if !ok {
			return nil, ErrInvalidKvdbProvided
		}
		return &kvdbVault{client: client}, nil
	}

	var endpoints []string
	if e := keymaster.Param(vaultConfig, KvdbEndpointsKey); e != "" {
		endpoints = strings.Split(e, ",")
	}
	name := keymaster.Param(vaultConfig, KvdbNameKey)
	if name == "" {
		if len(endpoints) == 0 {
			return nil, ErrKvdbNotConfigured
		}
		name = etcdv3.Name
	}
	basePath := keymaster.Param(vaultConfig, KvdbBasePathKey)
	if basePath == "" {
		basePath = defaultBasePath
	}
	client, err := kv.New(name, basePath, endpoints, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create kvdb %s: %v", name, err)
	}
	return &kvdbVault{client: client}, nil
}

func (v *kvdbVault) String() string {
	return Name
}

func (v *kvdbVault) InsertOrReplace(
	_ context.Context,
	key string,
	payload []byte,
) error {
	_, err := v.client.Put(secretPrefix+key, payload, 0)
	return err
}

func (v *kvdbVault) Fetch(_ context.Context, key string) ([]byte, error) {
	kvp, err := v.client.Get(secretPrefix + key)
	if err == kv.ErrNotFound {
		return nil, keymaster.ErrSecretNotFound
	} else if err != nil {
		return nil, err
	}
	return kvp.Value, nil
}

func (v *kvdbVault) Delete(_ context.Context, key string) error {
	_, err := v.client.Delete(secretPrefix + key)
	if err == nil || err == kv.ErrNotFound {
		return nil
	}
	return err
}

func init() {
	if err := keymaster.Register(Name, New); err != nil {
		panic(err.Error())
	}
}
