// Package gcloud stores each secret as a Google Cloud Secret Manager secret.
// Replacing a payload adds a new version. Fetch reads the latest one.
package gcloud

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"hash/crc32"
	"net/http"
	"regexp"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	secretmanager "google.golang.org/api/secretmanager/v1"

	"github.com/libopenstorage/keymaster"
)

const (
	// Name of the backend
	Name = keymaster.TypeGCloud
	// ServiceKey passes an existing *secretmanager.Service.
	ServiceKey = "GCLOUD_SERVICE"
	// ProjectKey is the project owning the secrets.
	ProjectKey = "GCLOUD_PROJECT"
	// EndpointKey overrides the Secret Manager endpoint.
	EndpointKey = "GCLOUD_ENDPOINT"
	// CredentialsKey is a service account key file. Application default
	// credentials are used when unset.
	CredentialsKey = "GOOGLE_APPLICATION_CREDENTIALS"
	// SecretPrefix is prepended to every secret id.
	SecretPrefix = "GCLOUD_SECRET_PREFIX"

	defaultSecretPrefix = "keymaster-"
	maxSecretIDLength   = 255
)

var (
	// ErrProjectNotProvided is returned when GCLOUD_PROJECT is not set.
	ErrProjectNotProvided = errors.New("Google Cloud project not provided")
	// ErrInvalidServiceProvided is returned when GCLOUD_SERVICE has the wrong type.
	ErrInvalidServiceProvided = errors.New("invalid secret manager service provided")
	// ErrChecksumMismatch is returned when an accessed payload fails its crc32c check.
	ErrChecksumMismatch = errors.New("secret payload checksum mismatch")

	secretIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	castagnoli      = crc32.MakeTable(crc32.Castagnoli)
)

type gcloudSecrets struct {
	svc     *secretmanager.Service
	project string
	prefix  string
}

// New creates the gcloud backend.
func New(
	vaultConfig map[string]interface{},
) (keymaster.Vault, error) {
	project := keymaster.Param(vaultConfig, ProjectKey)
	if project == "" {
		return nil, ErrProjectNotProvided
	}
	prefix := keymaster.Param(vaultConfig, SecretPrefix)
	if _, exists := vaultConfig[SecretPrefix]; !exists && prefix == "" {
		prefix = defaultSecretPrefix
	}

	g := &gcloudSecrets{
		project: project,
		prefix:  prefix,
	}
	if svcIntf, exists := vaultConfig[ServiceKey]; exists {
		svc, ok := svcIntf.(*secretmanager.Service)
		if !ok {
			return nil, ErrInvalidServiceProvided
		}
		g.svc = svc
		return g, nil
	}

	var opts []option.ClientOption
	if endpoint := keymaster.Param(vaultConfig, EndpointKey); endpoint != "" {
		opts = append(opts, option.WithEndpoint(endpoint))
	}
	if _, exists := vaultConfig[CredentialsKey]; exists {
		opts = append(opts, option.WithCredentialsFile(keymaster.Param(vaultConfig, CredentialsKey)))
	}
	svc, err := secretmanager.NewService(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create secret manager client: %v", err)
	}
	g.svc = svc
	return g, nil
}

func (g *gcloudSecrets) String() string {
	return Name
}

// secretID maps key onto the characters secret ids allow. Keys that do not
// fit are replaced by their sha256.
func (g *gcloudSecrets) secretID(key string) string {
	id := g.prefix + key
	if len(id) <= maxSecretIDLength && secretIDPattern.MatchString(id) {
		return id
	}
	sum := sha256.Sum256([]byte(key))
	return g.prefix + "sha256-" + hex.EncodeToString(sum[:])
}

func (g *gcloudSecrets) parent() string {
	return "projects/" + g.project
}

func (g *gcloudSecrets) secretName(key string) string {
	return g.parent() + "/secrets/" + g.secretID(key)
}

func (g *gcloudSecrets) InsertOrReplace(
	ctx context.Context,
	key string,
	payload []byte,
) error {
	err := g.addVersion(ctx, key, payload)
	if !isStatus(err, http.StatusNotFound) {
		return err
	}

	secret := &secretmanager.Secret{
		Replication: &secretmanager.Replication{
			Automatic: &secretmanager.Automatic{},
		},
		Labels: map[string]string{"managed-by": "keymaster"},
	}
	_, err = g.svc.Projects.Secrets.Create(g.parent(), secret).
		SecretId(g.secretID(key)).
		Context(ctx).
		Do()
	if err != nil && !isStatus(err, http.StatusConflict) {
		return fmt.Errorf("failed to create secret [%s]: %v", g.secretID(key), err)
	}
	return g.addVersion(ctx, key, payload)
}

func (g *gcloudSecrets) addVersion(ctx context.Context, key string, payload []byte) error {
	req := &secretmanager.AddSecretVersionRequest{
		Payload: &secretmanager.SecretPayload{
			Data:       base64.StdEncoding.EncodeToString(payload),
			DataCrc32c: int64(crc32.Checksum(payload, castagnoli)),
		},
	}
	_, err := g.svc.Projects.Secrets.AddVersion(g.secretName(key), req).Context(ctx).Do()
	return err
}

func (g *gcloudSecrets) Fetch(ctx context.Context, key string) ([]byte, error) {
	resp, err := g.svc.Projects.Secrets.Versions.Access(g.secretName(key) + "/versions/latest").
		Context(ctx).
		Do()
	if isStatus(err, http.StatusNotFound) {
		return nil, keymaster.ErrSecretNotFound
	} else if err != nil {
		return nil, err
	}
	if resp.Payload == nil {
		return []byte{}, nil
	}

	payload, err := base64.StdEncoding.DecodeString(resp.Payload.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode secret payload: %v", err)
	}
	if resp.Payload.DataCrc32c != 0 &&
		int64(crc32.Checksum(payload, castagnoli)) != resp.Payload.DataCrc32c {
		return nil, ErrChecksumMismatch
	}
	return payload, nil
}

func (g *gcloudSecrets) Delete(ctx context.Context, key string) error {
	_, err := g.svc.Projects.Secrets.Delete(g.secretName(key)).Context(ctx).Do()
	if isStatus(err, http.StatusNotFound) {
		return nil
	}
	return err
}

func isStatus(err error, code int) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == code
}

func init() {
	if err := keymaster.Register(Name, New); err != nil {
		panic(err.Error())
	}
}
