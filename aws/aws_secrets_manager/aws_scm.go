// Package aws_secrets_manager stores each secret as its own AWS Secrets
// Manager secret.
package aws_secrets_manager

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/secretsmanager"
	"github.com/aws/aws-sdk-go/service/secretsmanager/secretsmanageriface"

	"github.com/libopenstorage/keymaster"
	sc "github.com/libopenstorage/keymaster/aws/credentials"
)

const (
	// Name of the backend
	Name = keymaster.TypeAWSSecretsManager
	// ClientKey passes an existing secretsmanageriface.SecretsManagerAPI.
	ClientKey = "AWS_SECRETS_MANAGER_CLIENT"
	// SecretPrefix is prepended to every key to form the secret name.
	SecretPrefix = "AWS_SECRET_PREFIX"
	// EndpointKey overrides the service endpoint.
	EndpointKey = "AWS_ENDPOINT"
	// RecoveryWindowKey is the number of days a deleted secret stays
	// recoverable. Deletion is immediate when unset or zero.
	RecoveryWindowKey = "AWS_RECOVERY_WINDOW_DAYS"
	// AwsAccessKey corresponds to AWS credential AWS_ACCESS_KEY_ID
	AwsAccessKey = "AWS_ACCESS_KEY_ID"
	// AwsSecretAccessKey corresponds to AWS credential AWS_SECRET_ACCESS_KEY
	AwsSecretAccessKey = "AWS_SECRET_ACCESS_KEY"
	// AwsTokenKey corresponds to AWS credential AWS_SECRET_TOKEN_KEY
	AwsTokenKey = "AWS_SECRET_TOKEN_KEY"
	// AwsRegionKey defines the AWS region
	AwsRegionKey = "AWS_REGION"

	defaultSecretPrefix = "keymaster/"
)

var (
	// ErrAWSRegionNotProvided is returned when region is not provided.
	ErrAWSRegionNotProvided = errors.New("AWS Region not provided. Cannot perform secret operations.")
	// ErrInvalidClientProvided is returned when AWS_SECRETS_MANAGER_CLIENT has the wrong type.
	ErrInvalidClientProvided = errors.New("invalid secrets manager client provided")
	// ErrInvalidRecoveryWindow is returned for a recovery window outside 7 to 30 days.
	ErrInvalidRecoveryWindow = errors.New("AWS_RECOVERY_WINDOW_DAYS must be 0 or between 7 and 30")
)

type awsSecretsMgr struct {
	scm            secretsmanageriface.SecretsManagerAPI
	prefix         string
	recoveryWindow int64
}

// New creates the aws secrets manager backend.
func New(
	vaultConfig map[string]interface{},
) (keymaster.Vault, error) {
	prefix := keymaster.Param(vaultConfig, SecretPrefix)
	if _, exists := vaultConfig[SecretPrefix]; !exists && prefix == "" {
		prefix = defaultSecretPrefix
	}

	var recoveryWindow int64
	if window := keymaster.Param(vaultConfig, RecoveryWindowKey); window != "" {
		days, err := strconv.ParseInt(window, 10, 64)
		if err != nil || (days != 0 && (days < 7 || days > 30)) {
			return nil, ErrInvalidRecoveryWindow
		}
		recoveryWindow = days
	}

	a := &awsSecretsMgr{
		prefix:         prefix,
		recoveryWindow: recoveryWindow,
	}

	if clientIntf, exists := vaultConfig[ClientKey]; exists {
		client, ok := clientIntf.(secretsmanageriface.SecretsManagerAPI)
		if !ok {
			return nil, ErrInvalidClientProvided
		}
		a.scm = client
		return a, nil
	}

	region := keymaster.Param(vaultConfig, AwsRegionKey)
	if region == "" {
		return nil, ErrAWSRegionNotProvided
	}
	// Keys absent from both the config and the environment leave the
	// default credential chain to the provider.
	id := keymaster.Param(vaultConfig, AwsAccessKey)
	secret := keymaster.Param(vaultConfig, AwsSecretAccessKey)
	token := keymaster.Param(vaultConfig, AwsTokenKey)

	sess, err := session.NewSession(&aws.Config{Region: aws.String(region)})
	if err != nil {
		return nil, fmt.Errorf("failed to create aws session: %v", err)
	}
	config := &aws.Config{Credentials: sc.New(id, secret, token, sess)}
	if endpoint := keymaster.Param(vaultConfig, EndpointKey); endpoint != "" {
		config.Endpoint = aws.String(endpoint)
	}
	a.scm = secretsmanager.New(sess, config)
	return a, nil
}

func (a *awsSecretsMgr) String() string {
	return Name
}

func (a *awsSecretsMgr) secretID(key string) *string {
	return aws.String(a.prefix + key)
}

func (a *awsSecretsMgr) InsertOrReplace(
	ctx context.Context,
	key string,
	payload []byte,
) error {
	_, err := a.scm.PutSecretValueWithContext(ctx, &secretsmanager.PutSecretValueInput{
		SecretId:     a.secretID(key),
		SecretBinary: payload,
	})
	switch {
	case err == nil:
		return nil
	case isCode(err, secretsmanager.ErrCodeResourceNotFoundException):
		_, err = a.scm.CreateSecretWithContext(ctx, &secretsmanager.CreateSecretInput{
			Name:         a.secretID(key),
			SecretBinary: payload,
		})
	case isCode(err, secretsmanager.ErrCodeInvalidRequestException):
		// Scheduled for deletion inside the recovery window.
		if _, err = a.scm.RestoreSecretWithContext(ctx, &secretsmanager.RestoreSecretInput{
			SecretId: a.secretID(key),
		}); err != nil {
			return convertAWSErr(err)
		}
		_, err = a.scm.PutSecretValueWithContext(ctx, &secretsmanager.PutSecretValueInput{
			SecretId:     a.secretID(key),
			SecretBinary: payload,
		})
	}
	return convertAWSErr(err)
}

func (a *awsSecretsMgr) Fetch(ctx context.Context, key string) ([]byte, error) {
	result, err := a.scm.GetSecretValueWithContext(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: a.secretID(key),
	})
	if isCode(err, secretsmanager.ErrCodeResourceNotFoundException) ||
		isCode(err, secretsmanager.ErrCodeInvalidRequestException) {
		return nil, keymaster.ErrSecretNotFound
	} else if err != nil {
		return nil, convertAWSErr(err)
	}

	switch {
	case result.SecretBinary != nil:
		return result.SecretBinary, nil
	case result.SecretString != nil:
		return []byte(*result.SecretString), nil
	}
	return []byte{}, nil
}

func (a *awsSecretsMgr) Delete(ctx context.Context, key string) error {
	input := &secretsmanager.DeleteSecretInput{
		SecretId: a.secretID(key),
	}
	if a.recoveryWindow > 0 {
		input.RecoveryWindowInDays = aws.Int64(a.recoveryWindow)
	} else {
		input.ForceDeleteWithoutRecovery = aws.Bool(true)
	}

	_, err := a.scm.DeleteSecretWithContext(ctx, input)
	if isCode(err, secretsmanager.ErrCodeResourceNotFoundException) ||
		isCode(err, secretsmanager.ErrCodeInvalidRequestException) {
		return nil
	}
	return convertAWSErr(err)
}

func isCode(err error, code string) bool {
	var awsErr awserr.Error
	return errors.As(err, &awsErr) && awsErr.Code() == code
}

func convertAWSErr(err error) error {
	var awsErr awserr.Error
	if errors.As(err, &awsErr) {
		return fmt.Errorf("AWS error: %s - %s", awsErr.Code(), awsErr.Message())
	}
	return err
}

func init() {
	if err := keymaster.Register(Name, New); err != nil {
		panic(err.Error())
	}
}
