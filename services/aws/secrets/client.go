package secrets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/smithy-go"
)

// AWS error codes mapped to package errors.
const (
	ResourceNotFoundException = "ResourceNotFoundException"
	AccessDeniedException     = "AccessDeniedException"
)

// Client reads secrets from AWS Secrets Manager. It is safe for concurrent use.
type Client struct {
	api    ManagerAPI
	logger *slog.Logger
	cache  *InMemoryCache
}

// NewClient builds a client from the default AWS configuration chain.
func NewClient(ctx context.Context, opts ...Option) (*Client, error) {
	o := applyOptions(opts)

	var loadOpts []func(*config.LoadOptions) error
	if o.region != "" {
		loadOpts = append(loadOpts, config.WithRegion(o.region))
	}
	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	api := secretsmanager.NewFromConfig(cfg, func(so *secretsmanager.Options) {
		so.Retryer = o.retryer
		if o.endpoint != "" {
			so.BaseEndpoint = aws.String(o.endpoint)
		}
	})
	return &Client{api: api, logger: o.logger, cache: o.cache}, nil
}

// NewClientWithAPI builds a client over an existing API implementation.
func NewClientWithAPI(api ManagerAPI, opts ...Option) (*Client, error) {
	if api == nil {
		return nil, fmt.Errorf("api cannot be nil")
	}
	o := applyOptions(opts)
	return &Client{api: api, logger: o.logger, cache: o.cache}, nil
}

// GetSecret returns the string value of a secret, serving it from the
// cache when one is configured.
func (c *Client) GetSecret(ctx context.Context, secretName string) (string, error) {
	if secretName == "" {
		return "", fmt.Errorf("secret name cannot be empty")
	}
	if c.cache != nil {
		if v, ok := c.cache.Get(secretName); ok {
			c.logger.DebugContext(ctx, "cache hit for secret", "secret_name", secretName)
			return v, nil
		}
	}

	c.logger.InfoContext(ctx, "retrieving secret", "secret_name", secretName)
	out, err := c.api.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(secretName),
	})
	if err != nil {
		c.logger.ErrorContext(ctx, "failed to retrieve secret", "secret_name", secretName, "error", err)
		return "", handleError(err, "GetSecret")
	}

	var value string
	switch {
	case out.SecretString != nil:
		value = *out.SecretString
	case out.SecretBinary != nil:
		value = string(out.SecretBinary)
	default:
		return "", fmt.Errorf("GetSecret: %w", ErrSecretEmpty)
	}
	if value == "" {
		return "", fmt.Errorf("GetSecret: %w", ErrSecretEmpty)
	}

	if c.cache != nil {
		c.cache.Set(secretName, value, 0)
	}
	return value, nil
}

// InvalidateCache drops a cached secret.
func (c *Client) InvalidateCache(secretName string) {
	if c.cache != nil {
		c.cache.Delete(secretName)
	}
}

func handleError(err error, operation string) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case ResourceNotFoundException:
			return fmt.Errorf("%s: %w", operation, ErrSecretNotFound)
		case AccessDeniedException:
			return fmt.Errorf("%s: %w", operation, ErrAccessDenied)
		}
		return fmt.Errorf("%s operation failed: %s: %s", operation, apiErr.ErrorCode(), apiErr.ErrorMessage())
	}
	return fmt.Errorf("%s operation failed: %w", operation, err)
}
