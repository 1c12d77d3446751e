// Package docker reads secrets mounted by Docker swarm. The mount is read
// only, so only Fetch is supported.
package docker

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/libopenstorage/keymaster"
)

const (
	// Name of the backend
	Name = keymaster.TypeDocker
	// SecretsDirKey overrides the directory secrets are mounted in.
	SecretsDirKey = "DOCKER_SECRETS_DIR"
	// DockerSecretPath is the default mount directory.
	DockerSecretPath = "/run/secrets/"
)

type dockerSecrets struct {
	dir string
}

// New creates the docker backend.
func New(
	vaultConfig map[string]interface{},
) (keymaster.Vault, error) {
	dir := keymaster.Param(vaultConfig, SecretsDirKey)
	if dir == "" {
		dir = DockerSecretPath
	}
	return &dockerSecrets{dir: dir}, nil
}

func (d *dockerSecrets) String() string {
	return Name
}

func (d *dockerSecrets) secretPath(key string) (string, bool) {
	if strings.ContainsRune(key, filepath.Separator) || key == "." || key == ".." {
		return "", false
	}
	return filepath.Join(d.dir, key), true
}

func (d *dockerSecrets) InsertOrReplace(context.Context, string, []byte) error {
	return keymaster.ErrNotSupported
}

func (d *dockerSecrets) Fetch(_ context.Context, key string) ([]byte, error) {
	path, ok := d.secretPath(key)
	if !ok {
		return nil, keymaster.ErrSecretNotFound
	}
	payload, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, keymaster.ErrSecretNotFound
	}
	return payload, err
}

func (d *dockerSecrets) Delete(context.Context, string) error {
	return keymaster.ErrNotSupported
}

func init() {
	if err := keymaster.Register(Name, New); err != nil {
		panic(err.Error())
	}
}
