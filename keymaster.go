package keymaster

import (
	"context"
	"errors"
)

var (
	// ErrNotSupported returned when implementation of specific function is not supported
	ErrNotSupported = errors.New("implementation not supported")
	// ErrSecretNotFound returned when no secret is stored for the key
	ErrSecretNotFound = errors.New("no secret stored for key")
	// ErrEmptyKey returned when an operation is requested with an empty key
	ErrEmptyKey = errors.New("key cannot be empty")
	// ErrBackendNotSet returned when no vault backend is configured
	ErrBackendNotSet = errors.New("vault backend not set")
)

const (
	TypeKeyring           = "keyring"
	TypeFile              = "file"
	TypeVault             = "vault"
	TypeKvdb              = "kvdb"
	TypeK8s               = "k8s"
	TypeAWSSecretsManager = "aws-secrets-manager"
	TypeGCloud            = "gcloud"
	TypeDocker            = "docker"

	// DefaultBackend is used when the configuration names none.
	DefaultBackend = TypeKeyring
)

// Vault is implemented by every secure storage backend. A vault holds one
// opaque payload per key.
type Vault interface {
	// String representation of the backend
	String() string

	// InsertOrReplace stores payload under key. An existing entry is
	// replaced entirely, never merged or versioned.
	InsertOrReplace(ctx context.Context, key string, payload []byte) error

	// Fetch returns the payload stored under key, or ErrSecretNotFound
	// when there is none.
	Fetch(ctx context.Context, key string) ([]byte, error)

	// Delete removes the entry for key. Deleting an absent key is not
	// an error.
	Delete(ctx context.Context, key string) error
}

// BackendInit creates a Vault from a backend specific configuration. Keys
// missing from the config fall back to environment variables of the same
// name.
type BackendInit func(
	vaultConfig map[string]interface{},
) (Vault, error)
