// Package credentials resolves the AWS credentials used by the secrets
// manager backend.
package credentials

import (
	"github.com/aws/aws-sdk-go/aws/client"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/credentials/ec2rolecreds"
	"github.com/aws/aws-sdk-go/aws/ec2metadata"
)

// New returns static credentials when both id and secret are set. Otherwise
// it chains the environment, the shared credentials file and the EC2
// instance role, in that order. Nothing is resolved until first use.
func New(id, secret, token string, p client.ConfigProvider) *credentials.Credentials {
	if id != "" && secret != "" {
		return credentials.NewStaticCredentials(id, secret, token)
	}
	return credentials.NewChainCredentials([]credentials.Provider{
		&credentials.EnvProvider{},
		&credentials.SharedCredentialsProvider{},
		&ec2rolecreds.EC2RoleProvider{Client: ec2metadata.New(p)},
	})
}
