// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package blockref

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// secretsAPI is the subset of *secretsmanager.Client this provider needs,
// so tests can supply a fake.
type secretsAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// AWSSecretsProvider resolves "aws-secrets:<secret-id>" references against
// AWS Secrets Manager, for pools whose job configuration needs a credential
// the EC2 backend's instance profile can already reach.
type AWSSecretsProvider struct {
	client secretsAPI
}

// NewAWSSecretsProvider builds an AWSSecretsProvider over client.
func NewAWSSecretsProvider(client secretsAPI) *AWSSecretsProvider {
	return &AWSSecretsProvider{client: client}
}

func (p *AWSSecretsProvider) Scheme() string { return "aws-secrets" }

func (p *AWSSecretsProvider) Resolve(ctx context.Context, reference string) (string, error) {
	out, err := p.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(reference),
	})
	if err != nil {
		return "", NewValueResolutionError(ErrorCategoryNotFound, "aws-secrets:"+reference, "aws-secrets",
			"failed to read secret", err)
	}
	if out.SecretString != nil {
		return *out.SecretString, nil
	}
	return string(out.SecretBinary), nil
}
