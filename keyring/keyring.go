// Package keyring stores secrets in the operating system keychain: the
// macOS Keychain, the Secret Service on Linux or the Windows Credential
// Manager.
package keyring

import (
	"context"
	"errors"

	"github.com/zalando/go-keyring"

	"github.com/libopenstorage/keymaster"
)

const (
	// Name of the backend
	Name = keymaster.TypeKeyring
	// ServicePrefixKey is prepended to the key to form the keychain service.
	ServicePrefixKey = "KEYRING_SERVICE_PREFIX"
	// AccountKey is the keychain account every entry is stored under.
	AccountKey = "KEYRING_ACCOUNT"

	defaultAccount = "keymaster"
)

type keyringVault struct {
	prefix  string
	account string
}

// New creates the keyring backend.
func New(
	vaultConfig map[string]interface{},
) (keymaster.Vault, error) {
	account := keymaster.Param(vaultConfig, AccountKey)
	if account == "" {
		account = defaultAccount
	}
	return &keyringVault{
		prefix:  keymaster.Param(vaultConfig, ServicePrefixKey),
		account: account,
	}, nil
}

func (k *keyringVault) String() string {
	return Name
}

func (k *keyringVault) service(key string) string {
	return k.prefix + key
}

// InsertOrReplace deletes any previous entry before adding the new one.
func (k *keyringVault) InsertOrReplace(
	_ context.Context,
	key string,
	payload []byte,
) error {
	if err := k.delete(key); err != nil {
		return err
	}
	return keyring.Set(k.service(key), k.account, string(payload))
}

func (k *keyringVault) Fetch(_ context.Context, key string) ([]byte, error) {
	secret, err := keyring.Get(k.service(key), k.account)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, keymaster.ErrSecretNotFound
		}
		return nil, err
	}
	return []byte(secret), nil
}

func (k *keyringVault) Delete(_ context.Context, key string) error {
	return k.delete(key)
}

func (k *keyringVault) delete(key string) error {
	err := keyring.Delete(k.service(key), k.account)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return err
	}
	return nil
}

func init() {
	if err := keymaster.Register(Name, New); err != nil {
		panic(err.Error())
	}
}
