// Package k8s stores secrets as data keys of a single Kubernetes Secret.
package k8s

import (
	"context"
	"errors"
	"fmt"

	corev1 "k8s.io/api/core/v1"
	k8serrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"

	"github.com/libopenstorage/keymaster"
)

const (
	// Name of the backend
	Name = keymaster.TypeK8s
	// ClientKey passes an existing kubernetes.Interface.
	ClientKey = "K8S_CLIENT"
	// KubeconfigKey is the kubeconfig path. In-cluster config is used when
	// unset.
	KubeconfigKey = "KUBECONFIG"
	// SecretNamespace is the namespace of the Secret.
	SecretNamespace = "K8S_NAMESPACE"
	// SecretName is the name of the Secret holding every entry.
	SecretName = "K8S_SECRET_NAME"

	defaultNamespace  = "default"
	defaultSecretName = "keymaster"
	managedByLabel    = "app.kubernetes.io/managed-by"
)

var (
	// ErrInvalidClientProvided is returned when K8S_CLIENT is not a kubernetes.Interface.
	ErrInvalidClientProvided = errors.New("invalid kubernetes client provided")
)

type k8sVault struct {
	client     kubernetes.Interface
	namespace  string
	secretName string
}

// New creates the k8s backend.
func New(
	vaultConfig map[string]interface{},
) (keymaster.Vault, error) {
	client, err := getClient(vaultConfig)
	if err != nil {
		return nil, err
	}

	namespace := keymaster.Param(vaultConfig, SecretNamespace)
	if namespace == "" {
		namespace = defaultNamespace
	}
	secretName := keymaster.Param(vaultConfig, SecretName)
	if secretName == "" {
		secretName = defaultSecretName
	}
	return &k8sVault{
		client:     client,
		namespace:  namespace,
		secretName: secretName,
	}, nil
}

func getClient(vaultConfig map[string]interface{}) (kubernetes.Interface, error) {
	if clientIntf, exists := vaultConfig[ClientKey]; exists {
		client, ok := clientIntf.(kubernetes.Interface)
		if !ok {
			return nil, ErrInvalidClientProvided
		}
		return client, nil
	}

	var (
		config *rest.Config
		err    error
	)
	if kubeconfig := keymaster.Param(vaultConfig, KubeconfigKey); kubeconfig != "" {
		config, err = clientcmd.BuildConfigFromFlags("", kubeconfig)
	} else {
		config, err = rest.InClusterConfig()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load kubernetes config: %v", err)
	}
	return kubernetes.NewForConfig(config)
}

func (s *k8sVault) String() string {
	return Name
}

func (s *k8sVault) get(ctx context.Context) (*corev1.Secret, error) {
	return s.client.CoreV1().Secrets(s.namespace).Get(ctx, s.secretName, metav1.GetOptions{})
}

func (s *k8sVault) InsertOrReplace(
	ctx context.Context,
	key string,
	payload []byte,
) error {
	secret, err := s.get(ctx)
	if k8serrors.IsNotFound(err) {
		secret = &corev1.Secret{
			ObjectMeta: metav1.ObjectMeta{
				Name:      s.secretName,
				Namespace: s.namespace,
				Labels:    map[string]string{managedByLabel: "keymaster"},
			},
			Type: corev1.SecretTypeOpaque,
			Data: map[string][]byte{key: payload},
		}
		_, err = s.client.CoreV1().Secrets(s.namespace).Create(ctx, secret, metav1.CreateOptions{})
		return err
	} else if err != nil {
		return fmt.Errorf("failed to get secret [%s]: %v", s.secretName, err)
	}

	if secret.Data == nil {
		secret.Data = make(map[string][]byte)
	}
	secret.Data[key] = payload
	_, err = s.client.CoreV1().Secrets(s.namespace).Update(ctx, secret, metav1.UpdateOptions{})
	return err
}

func (s *k8sVault) Fetch(ctx context.Context, key string) ([]byte, error) {
	secret, err := s.get(ctx)
	if k8serrors.IsNotFound(err) {
		return nil, keymaster.ErrSecretNotFound
	} else if err != nil {
		return nil, fmt.Errorf("failed to get secret [%s]: %v", s.secretName, err)
	}

	payload, exists := secret.Data[key]
	if !exists {
		return nil, keymaster.ErrSecretNotFound
	}
	return payload, nil
}

func (s *k8sVault) Delete(ctx context.Context, key string) error {
	secret, err := s.get(ctx)
	if k8serrors.IsNotFound(err) {
		return nil
	} else if err != nil {
		return fmt.Errorf("failed to get secret [%s]: %v", s.secretName, err)
	}

	if _, exists := secret.Data[key]; !exists {
		return nil
	}
	delete(secret.Data, key)
	_, err = s.client.CoreV1().Secrets(s.namespace).Update(ctx, secret, metav1.UpdateOptions{})
	return err
}

func init() {
	if err := keymaster.Register(Name, New); err != nil {
		panic(err.Error())
	}
}
