// Package vault stores secrets in a HashiCorp Vault key/value secrets
// engine, version 1 or 2.
package vault

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/hashicorp/vault/api"
	"github.com/hashicorp/vault/api/auth/approle"
	"github.com/hashicorp/vault/api/auth/kubernetes"

	"github.com/libopenstorage/keymaster"
)

const (
	// Name of the backend
	Name = keymaster.TypeVault

	// VaultBackendPathKey is the mount path of the kv engine.
	VaultBackendPathKey = "VAULT_BACKEND_PATH"
	// VaultKVVersionKey is the kv engine version, 1 or 2.
	VaultKVVersionKey = "VAULT_KV_VERSION"
	// AuthMethodKey selects token, approle or kubernetes authentication.
	AuthMethodKey = "VAULT_AUTH_METHOD"
	// AppRoleRoleIDKey is the AppRole role id.
	AppRoleRoleIDKey = "VAULT_APPROLE_ROLE_ID"
	// AppRoleSecretIDKey is the AppRole secret id.
	AppRoleSecretIDKey = "VAULT_APPROLE_SECRET_ID"
	// AuthKubernetesRoleKey is the Vault role for Kubernetes authentication.
	AuthKubernetesRoleKey = "VAULT_AUTH_KUBERNETES_ROLE"
	// AuthKubernetesTokenPathKey overrides the service account token path.
	AuthKubernetesTokenPathKey = "VAULT_AUTH_KUBERNETES_TOKEN_PATH"

	AuthMethodToken      = "token"
	AuthMethodAppRole    = "approle"
	AuthMethodKubernetes = "kubernetes"

	defaultBackendPath = "secret/"
	vaultAddressPrefix = "http"
	valueField         = "value"
)

var (
	ErrVaultTokenNotSet     = errors.New("VAULT_TOKEN not set.")
	ErrVaultAddressNotSet   = errors.New("VAULT_ADDR not set.")
	ErrInvalidSkipVerify    = errors.New("VAULT_SKIP_VERIFY is invalid")
	ErrInvalidKVVersion     = errors.New("VAULT_KV_VERSION is invalid. Should be 1 or 2")
	ErrAppRoleNotSet        = errors.New("VAULT_APPROLE_ROLE_ID and VAULT_APPROLE_SECRET_ID must be set")
	ErrKubernetesRoleNotSet = errors.New("VAULT_AUTH_KUBERNETES_ROLE not set.")
	ErrInvalidAuthMethod    = errors.New("VAULT_AUTH_METHOD is invalid. Should be token, approle or kubernetes")
	ErrInvalidVaultAddress  = errors.New("VAULT_ADDR is invalid. " +
		"Should be of the form http(s)://<ip>:<port>")
	// ErrInvalidSecretFormat is returned when a stored secret has no value field.
	ErrInvalidSecretFormat = errors.New("secret was not written by keymaster")
)

type vaultVault struct {
	client      *api.Client
	backendPath string
	kvVersion   int
}

// New creates the vault backend.
func New(
	vaultConfig map[string]interface{},
) (keymaster.Vault, error) {
	// DefaultConfig uses the environment variables if present.
	config := api.DefaultConfig()
	if config.Error != nil {
		return nil, config.Error
	}

	address := keymaster.Param(vaultConfig, api.EnvVaultAddress)
	if address == "" {
		return nil, ErrVaultAddressNotSet
	}
	// Vault fails if address is not in correct format
	if !strings.HasPrefix(address, vaultAddressPrefix) {
		return nil, ErrInvalidVaultAddress
	}
	config.Address = address

	if err := configureTLS(config, vaultConfig); err != nil {
		return nil, err
	}

	kvVersion := 1
	if v := keymaster.Param(vaultConfig, VaultKVVersionKey); v != "" {
		var err error
		kvVersion, err = strconv.Atoi(v)
		if err != nil || (kvVersion != 1 && kvVersion != 2) {
			return nil, ErrInvalidKVVersion
		}
	}

	backendPath := keymaster.Param(vaultConfig, VaultBackendPathKey)
	if backendPath == "" {
		backendPath = defaultBackendPath
	}
	if !strings.HasSuffix(backendPath, "/") {
		backendPath += "/"
	}

	client, err := api.NewClient(config)
	if err != nil {
		return nil, err
	}
	if err := authenticate(client, vaultConfig); err != nil {
		return nil, err
	}

	return &vaultVault{
		client:      client,
		backendPath: backendPath,
		kvVersion:   kvVersion,
	}, nil
}

func authenticate(client *api.Client, vaultConfig map[string]interface{}) error {
	method := keymaster.Param(vaultConfig, AuthMethodKey)
	switch method {
	case "", AuthMethodToken:
		token := keymaster.Param(vaultConfig, api.EnvVaultToken)
		if token == "" {
			return ErrVaultTokenNotSet
		}
		client.SetToken(token)
		return nil

	case AuthMethodAppRole:
		roleID := keymaster.Param(vaultConfig, AppRoleRoleIDKey)
		secretID := keymaster.Param(vaultConfig, AppRoleSecretIDKey)
		if roleID == "" || secretID == "" {
			return ErrAppRoleNotSet
		}
		appRoleAuth, err := approle.NewAppRoleAuth(roleID, &approle.SecretID{FromString: secretID})
		if err != nil {
			return err
		}
		return login(client, appRoleAuth)

	case AuthMethodKubernetes:
		role := keymaster.Param(vaultConfig, AuthKubernetesRoleKey)
		if role == "" {
			return ErrKubernetesRoleNotSet
		}
		var opts []kubernetes.LoginOption
		if path := keymaster.Param(vaultConfig, AuthKubernetesTokenPathKey); path != "" {
			opts = append(opts, kubernetes.WithServiceAccountTokenPath(path))
		}
		k8sAuth, err := kubernetes.NewKubernetesAuth(role, opts...)
		if err != nil {
			return err
		}
		return login(client, k8sAuth)
	}
	return ErrInvalidAuthMethod
}

func login(client *api.Client, method api.AuthMethod) error {
	secret, err := client.Auth().Login(context.Background(), method)
	if err != nil {
		return fmt.Errorf("vault login failed: %v", err)
	}
	if secret == nil || secret.Auth == nil {
		return errors.New("vault login returned no auth info")
	}
	return nil
}

func (v *vaultVault) String() string {
	return Name
}

func (v *vaultVault) dataPath(key string) string {
	if v.kvVersion == 2 {
		return v.backendPath + "data/" + key
	}
	return v.backendPath + key
}

// deletePath removes every version of a kv v2 secret, since replaced
// values are not kept.
func (v *vaultVault) deletePath(key string) string {
	if v.kvVersion == 2 {
		return v.backendPath + "metadata/" + key
	}
	return v.backendPath + key
}

func (v *vaultVault) InsertOrReplace(
	ctx context.Context,
	key string,
	payload []byte,
) error {
	data := map[string]interface{}{valueField: string(payload)}
	if v.kvVersion == 2 {
		data = map[string]interface{}{"data": data}
	}
	_, err := v.client.Logical().WriteWithContext(ctx, v.dataPath(key), data)
	return err
}

func (v *vaultVault) Fetch(ctx context.Context, key string) ([]byte, error) {
	secretValue, err := v.client.Logical().ReadWithContext(ctx, v.dataPath(key))
	if err != nil {
		return nil, err
	}
	if secretValue == nil || secretValue.Data == nil {
		return nil, keymaster.ErrSecretNotFound
	}

	data := secretValue.Data
	if v.kvVersion == 2 {
		// a deleted version has null data
		nested, ok := data["data"].(map[string]interface{})
		if !ok {
			return nil, keymaster.ErrSecretNotFound
		}
		data = nested
	}
	value, ok := data[valueField].(string)
	if !ok {
		return nil, ErrInvalidSecretFormat
	}
	return []byte(value), nil
}

func (v *vaultVault) Delete(ctx context.Context, key string) error {
	_, err := v.client.Logical().DeleteWithContext(ctx, v.deletePath(key))
	return err
}

func configureTLS(config *api.Config, vaultConfig map[string]interface{}) error {
	tlsConfig := api.TLSConfig{}
	skipVerify := keymaster.Param(vaultConfig, api.EnvVaultInsecure)
	if skipVerify != "" {
		insecure, err := strconv.ParseBool(skipVerify)
		if err != nil {
			return ErrInvalidSkipVerify
		}
		tlsConfig.Insecure = insecure
	}

	tlsConfig.CACert = keymaster.Param(vaultConfig, api.EnvVaultCACert)
	tlsConfig.CAPath = keymaster.Param(vaultConfig, api.EnvVaultCAPath)
	tlsConfig.ClientCert = keymaster.Param(vaultConfig, api.EnvVaultClientCert)
	tlsConfig.ClientKey = keymaster.Param(vaultConfig, api.EnvVaultClientKey)
	tlsConfig.TLSServerName = keymaster.Param(vaultConfig, api.EnvVaultTLSServerName)

	return config.ConfigureTLS(&tlsConfig)
}

func init() {
	if err := keymaster.Register(Name, New); err != nil {
		panic(err.Error())
	}
}
