package credentials

import (
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatic(t *testing.T) {
	sess, err := session.NewSession(&aws.Config{Region: aws.String("us-east-1")})
	require.NoError(t, err)

	creds, err := New("id", "secret", "token", sess).Get()
	require.NoError(t, err)
	assert.Equal(t, "id", creds.AccessKeyID)
	assert.Equal(t, "secret", creds.SecretAccessKey)
	assert.Equal(t, "token", creds.SessionToken)
}

func TestChainPrefersEnvironment(t *testing.T) {
	t.Setenv("AWS_ACCESS_KEY_ID", "env-id")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "env-secret")
	sess, err := session.NewSession(&aws.Config{Region: aws.String("us-east-1")})
	require.NoError(t, err)

	creds, err := New("", "", "", sess).Get()
	require.NoError(t, err)
	assert.Equal(t, "env-id", creds.AccessKeyID)
	assert.Equal(t, "EnvProvider", creds.ProviderName)
}
