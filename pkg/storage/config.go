package storage

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// Provider names a storage backend.
type Provider string

const (
	ProviderS3    Provider = "s3"
	ProviderGCS   Provider = "gcs"
	ProviderAzure Provider = "azure"
)

// Config selects a provider and carries its settings.
// Only the section matching Provider may be set.
type Config struct {
	Provider Provider
	S3       *S3Config
	GCS      *GCSConfig
	Azure    *AzureConfig
}

// Validate checks that exactly the section for Provider is present and names a bucket.
func (c *Config) Validate() error {
	sections := 0
	if c.S3 != nil {
		sections++
	}
	if c.GCS != nil {
		sections++
	}
	if c.Azure != nil {
		sections++
	}

	if sections == 0 {
		return errors.New("one of s3, gcs, or azure must be specified")
	}
	if sections > 1 {
		return errors.New("only one of s3, gcs, or azure can be specified")
	}

	switch c.Provider {
	case ProviderS3:
		if c.S3 == nil {
			return errors.New("s3 configuration is required for provider s3")
		}
		if c.S3.Bucket == "" {
			return errors.New("s3 bucket is required")
		}
	case ProviderGCS:
		if c.GCS == nil {
			return errors.New("gcs configuration is required for provider gcs")
		}
		if c.GCS.Bucket == "" {
			return errors.New("gcs bucket is required")
		}
	case ProviderAzure:
		if c.Azure == nil {
			return errors.New("azure configuration is required for provider azure")
		}
		if c.Azure.Container == "" {
			return errors.New("azure container is required")
		}
		if c.Azure.StorageAccount == "" && c.Azure.ServiceURL == "" && c.Azure.ConnectionString == "" {
			return errors.New("azure storage account, service URL or connection string is required")
		}
	default:
		return fmt.Errorf("unsupported storage provider: %q", c.Provider)
	}
	return nil
}

// NewBucket creates the Bucket described by cfg using the provider's
// default credentials.
func NewBucket(ctx context.Context, cfg *Config, logger *zap.SugaredLogger) (Bucket, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid storage config: %w", err)
	}

	switch cfg.Provider {
	case ProviderS3:
		b, err := NewS3Bucket(ctx, cfg.S3, logger)
		if err != nil {
			return nil, err
		}
		return b, nil
	case ProviderGCS:
		b, err := NewGCSBucket(ctx, cfg.GCS, logger)
		if err != nil {
			return nil, err
		}
		return b, nil
	default:
		b, err := NewAzureBucket(ctx, cfg.Azure, logger)
		if err != nil {
			return nil, err
		}
		return b, nil
	}
}
