package backend

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
	"github.com/aws/smithy-go"
)

// AWSBackend stores secrets in AWS Secrets Manager, per spec.md §4.J.
// Put tries CreateSecret first, falling back to PutSecretValue when the
// name already exists.
type AWSBackend struct {
	client *secretsmanager.Client
	prefix string
	retry  RetryPolicy
}

// NewAWSBackend builds a backend from the ambient AWS config chain
// (environment, shared config/credentials files, EC2/ECS roles).
// namePrefix is prepended to every key before it is used as a secret
// name. Missing credentials surface as a typed, actionable error
// before any network call is attempted, per spec.md §4.J.
func NewAWSBackend(ctx context.Context, namePrefix string) (*AWSBackend, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading AWS credentials: %w", err)
	}
	if _, err := cfg.Credentials.Retrieve(ctx); err != nil {
		return nil, fmt.Errorf("no usable AWS credentials found: %w", err)
	}
	return &AWSBackend{
		client: secretsmanager.NewFromConfig(cfg),
		prefix: namePrefix,
		retry:  DefaultRetryPolicy(),
	}, nil
}

func (b *AWSBackend) Name() string { return "aws" }

func (b *AWSBackend) secretName(key string) string { return b.prefix + key }

func (b *AWSBackend) Put(ctx context.Context, key, value string) (string, error) {
	name := b.secretName(key)
	err := b.retry.Do(ctx, func() error {
		_, err := b.client.CreateSecret(ctx, &secretsmanager.CreateSecretInput{
			Name:         aws.String(name),
			SecretString: aws.String(value),
		})
		if err == nil {
			return nil
		}
		var exists *types.ResourceExistsException
		if errors.As(err, &exists) {
			_, putErr := b.client.PutSecretValue(ctx, &secretsmanager.PutSecretValueInput{
				SecretId:     aws.String(name),
				SecretString: aws.String(value),
			})
			return putErr
		}
		return err
	})
	if err != nil {
		return "", fmt.Errorf("aws secretsmanager put %s: %w", name, classifyAWSError(err))
	}
	return key, nil
}

func (b *AWSBackend) Get(ctx context.Context, key string) (string, bool, error) {
	name := b.secretName(key)
	var value string
	var found bool
	err := b.retry.Do(ctx, func() error {
		out, err := b.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{SecretId: aws.String(name)})
		if err != nil {
			var notFound *types.ResourceNotFoundException
			if errors.As(err, &notFound) {
				return nil
			}
			return err
		}
		found = true
		if out.SecretString != nil {
			value = *out.SecretString
		}
		return nil
	})
	if err != nil {
		return "", false, fmt.Errorf("aws secretsmanager get %s: %w", name, classifyAWSError(err))
	}
	return value, found, nil
}

func (b *AWSBackend) Delete(ctx context.Context, key string) error {
	name := b.secretName(key)
	err := b.retry.Do(ctx, func() error {
		_, err := b.client.DeleteSecret(ctx, &secretsmanager.DeleteSecretInput{
			SecretId:                   aws.String(name),
			ForceDeleteWithoutRecovery: aws.Bool(true),
		})
		var notFound *types.ResourceNotFoundException
		if errors.As(err, &notFound) {
			return nil
		}
		return err
	})
	if err != nil {
		return fmt.Errorf("aws secretsmanager delete %s: %w", name, classifyAWSError(err))
	}
	return nil
}

// classifyAWSError tags throttling responses so IsTransient recognizes
// them without importing the AWS SDK's error types into retry.go.
func classifyAWSError(err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "ThrottlingException", "TooManyRequestsException":
			return fmt.Errorf("Throttling: %w", err)
		case "ServiceUnavailable", "InternalServiceError":
			return fmt.Errorf("ServiceUnavailable: %w", err)
		}
	}
	return err
}
